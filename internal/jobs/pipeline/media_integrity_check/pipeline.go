package media_integrity_check

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	claimtypes "github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	jobrt "github.com/sorosurance/sorosurance-backend/internal/jobs/runtime"
	"github.com/sorosurance/sorosurance-backend/internal/platform/dbctx"
	"github.com/sorosurance/sorosurance-backend/internal/scoring"
)

/*
Run re-scores a claim after evidence was attached. The voice signals
come from the latest stored analysis rather than re-transcribing; only
the media integrity component is computed fresh. A new score log entry
is appended every run, but the claim's headline score only moves while
the claim is still in review.
*/
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	claimID, ok := jc.PayloadUUID("claim_id")
	if !ok || claimID == uuid.Nil {
		jc.Fail("validate", fmt.Errorf("missing claim_id"))
		return nil
	}

	dbc := dbctx.Context{Ctx: jc.Ctx}
	found, err := p.claims.GetByIDs(dbc, []uuid.UUID{claimID})
	if err != nil {
		jc.Fail("load", err)
		return nil
	}
	if len(found) == 0 {
		jc.Fail("load", fmt.Errorf("claim %s not found", claimID))
		return nil
	}
	claim := found[0]

	if claim.Status != claimtypes.StatusSubmitted && claim.Status != claimtypes.StatusUnderReview {
		jc.Succeed("done", map[string]any{
			"claim_id": claimID.String(),
			"skipped":  true,
			"status":   claim.Status,
		})
		return nil
	}

	jc.Progress("inspect", 20, "Inspecting attached media")
	mediaScore, details, err := p.integrity.EvaluateClaim(jc.Ctx, claim)
	if err != nil {
		jc.Fail("inspect", err)
		return nil
	}
	if mediaScore == nil {
		jc.Succeed("done", map[string]any{
			"claim_id": claimID.String(),
			"skipped":  true,
			"reason":   "no media attached",
		})
		return nil
	}

	users, err := p.users.GetByIDs(dbc, []uuid.UUID{claim.UserID})
	if err != nil || len(users) == 0 {
		jc.Fail("load", fmt.Errorf("claim user %s not found: %v", claim.UserID, err))
		return nil
	}
	owner := users[0]

	jc.Progress("score", 55, "Recalculating Soro-Score")
	in := scoring.ClaimInput{
		ClaimType:           claim.ClaimType,
		ClaimedAmount:       claim.ClaimedAmount,
		Transcript:          claim.Transcript,
		MediaIntegrityScore: mediaScore,
		UserSoroScore:       owner.SoroScore,
		TotalClaims:         owner.TotalClaims,
		RejectedClaims:      owner.RejectedClaims,
	}
	if claim.TranscriptConfidence != nil {
		in.TranscriptConfidence = *claim.TranscriptConfidence
	}

	// Replay the voice signals from the last analysis so the re-score
	// only differs in the media component.
	if va, err := p.voices.GetLatestByClaim(dbc, claim.ID); err == nil && va != nil {
		in.SentimentScore = va.SentimentScore
		in.SpeakingRate = va.SpeakingRate
		in.WordCount = va.WordCount
		in.RecordingQuality = va.RecordingQuality
		var keywords []string
		if len(va.Keywords) > 0 {
			_ = json.Unmarshal(va.Keywords, &keywords)
		}
		in.Keywords = keywords
		var emotions map[string]int
		if len(va.EmotionScores) > 0 {
			_ = json.Unmarshal(va.EmotionScores, &emotions)
		}
		in.EmotionScores = emotions
	}

	result, err := p.scorer.Score(jc.Ctx, in)
	if err != nil {
		jc.Fail("score", err)
		return nil
	}

	jc.Progress("persist", 80, "Recording updated score")
	var updated bool
	txErr := p.db.WithContext(jc.Ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.Context{Ctx: jc.Ctx, Tx: tx}

		entry := buildMediaScoreLog(claim.ID, result, p.weights, *mediaScore, details)
		if _, err := p.scores.Create(txc, []*claimtypes.SoroScoreLog{entry}); err != nil {
			return err
		}

		// The headline score only moves if nobody decided the claim in
		// the meantime; the log entry above lands either way.
		moved, err := p.claims.UpdateFieldsIfStatus(txc, claim.ID, claim.Status, map[string]interface{}{
			"soro_score": result.SoroScore,
			"risk_level": result.RiskLevel,
			"updated_at": time.Now(),
		})
		if err != nil {
			return err
		}
		updated = moved
		return nil
	})
	if txErr != nil {
		jc.Fail("persist", txErr)
		return nil
	}

	jc.Succeed("done", map[string]any{
		"claim_id":        claimID.String(),
		"claim_number":    claim.ClaimNumber,
		"soro_score":      result.SoroScore,
		"risk_level":      result.RiskLevel,
		"media_integrity": *mediaScore,
		"item_count":      details["item_count"],
		"score_updated":   updated,
		"flags":           result.Flags,
	})
	return nil
}

func buildMediaScoreLog(claimID uuid.UUID, result *scoring.UnderwritingResult, weights scoring.Weights, mediaScore float64, details map[string]any) *claimtypes.SoroScoreLog {
	meta, _ := json.Marshal(map[string]any{
		"trigger": "media_integrity_check",
		"weights": map[string]float64{
			"inconsistency":   weights.Inconsistency,
			"urgency":         weights.Urgency,
			"sentiment":       weights.Sentiment,
			"media_integrity": weights.MediaIntegrity,
			"historical":      weights.Historical,
		},
		"media_integrity": mediaScore,
		"media_details":   details,
		"confidence":      result.Confidence,
		"recommendation":  result.Recommendation,
		"flags":           result.Flags,
	})

	id := claimID
	return &claimtypes.SoroScoreLog{
		ClaimID:               &id,
		InconsistencyScore:    result.Components["inconsistency"],
		UrgencyScore:          result.Components["urgency"],
		SentimentScore:        result.Components["sentiment"],
		MediaIntegrityScore:   result.Components["media_integrity"],
		HistoricalScore:       result.Components["historical"],
		WeightedInconsistency: result.Components["weighted_inconsistency"],
		WeightedUrgency:       result.Components["weighted_urgency"],
		WeightedSentiment:     result.Components["weighted_sentiment"],
		WeightedMedia:         result.Components["weighted_media"],
		WeightedHistorical:    result.Components["weighted_historical"],
		FinalSoroScore:        result.SoroScore,
		RiskLevel:             result.RiskLevel,
		CalculationMetadata:   datatypes.JSON(meta),
		CalculatedAt:          time.Now(),
	}
}
