package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/domain/insurance"
	"github.com/sorosurance/sorosurance-backend/internal/domain/jobs"
	"github.com/sorosurance/sorosurance-backend/internal/domain/notifications"
	"github.com/sorosurance/sorosurance-backend/internal/domain/payments"
	"github.com/sorosurance/sorosurance-backend/internal/domain/user"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(

		// =========================
		// Core identity
		// =========================
		&user.User{},

		// =========================
		// Products and policies
		// =========================
		&insurance.Product{},
		&insurance.Policy{},

		// =========================
		// Claims + voice underwriting
		// =========================
		&claims.Claim{},
		&claims.VoiceAnalysis{},
		&claims.SoroScoreLog{},

		// =========================
		// Money and messaging
		// =========================
		&payments.Payment{},
		&notifications.Notification{},

		// =========================
		// Background jobs
		// =========================
		&jobs.JobRun{},
	)
}

func EnsureClaimIndexes(db *gorm.DB) error {
	// uuid-ossp is already enabled in NewPostgresService, but safe to re-run
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_claim_user_status
		ON claim (user_id, status, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_claim_user_status: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_voice_analysis_claim_created_at
		ON voice_analysis (claim_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_voice_analysis_claim_created_at: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_soro_score_log_claim_calculated_at
		ON soro_score_log (claim_id, calculated_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_soro_score_log_claim_calculated_at: %w", err)
	}
	// Score logs must point at exactly one subject.
	if err := db.Exec(`
		DO $$ BEGIN
			ALTER TABLE soro_score_log ADD CONSTRAINT chk_soro_score_log_single_target CHECK (
				(CASE WHEN claim_id IS NULL THEN 0 ELSE 1 END +
				 CASE WHEN policy_id IS NULL THEN 0 ELSE 1 END +
				 CASE WHEN user_id IS NULL THEN 0 ELSE 1 END) = 1
			);
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("create chk_soro_score_log_single_target: %w", err)
	}
	// Analysis and audit rows follow their claim out of the database.
	if err := db.Exec(`
		DO $$ BEGIN
			ALTER TABLE voice_analysis ADD CONSTRAINT fk_voice_analysis_claim
				FOREIGN KEY (claim_id) REFERENCES claim (id) ON DELETE CASCADE;
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("create fk_voice_analysis_claim: %w", err)
	}
	if err := db.Exec(`
		DO $$ BEGIN
			ALTER TABLE soro_score_log ADD CONSTRAINT fk_soro_score_log_claim
				FOREIGN KEY (claim_id) REFERENCES claim (id) ON DELETE CASCADE;
		EXCEPTION WHEN duplicate_object THEN NULL;
		END $$;
	`).Error; err != nil {
		return fmt.Errorf("create fk_soro_score_log_claim: %w", err)
	}
	return nil
}

func EnsureJobIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_job_run_claimable
		ON job_run (status, created_at)
		WHERE deleted_at IS NULL;
	`).Error; err != nil {
		return fmt.Errorf("create idx_job_run_claimable: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureClaimIndexes(s.db); err != nil {
		s.log.Error("Claim index migration failed", "error", err)
		return err
	}
	if err := EnsureJobIndexes(s.db); err != nil {
		s.log.Error("Job index migration failed", "error", err)
		return err
	}

	return nil
}
