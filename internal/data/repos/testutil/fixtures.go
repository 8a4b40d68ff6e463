package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sorosurance/sorosurance-backend/internal/domain/claims"
	"github.com/sorosurance/sorosurance-backend/internal/domain/insurance"
	"github.com/sorosurance/sorosurance-backend/internal/domain/user"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, phoneNumber string) *user.User {
	tb.Helper()
	u := &user.User{
		ID:          uuid.New(),
		PhoneNumber: phoneNumber,
		Password:    "pw",
		FirstName:   "Ada",
		LastName:    "Obi",
		UserType:    user.TypeCustomer,
		SoroScore:   50,
		IsActive:    true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedProduct(tb testing.TB, ctx context.Context, tx *gorm.DB) *insurance.Product {
	tb.Helper()
	p := &insurance.Product{
		ID:          uuid.New(),
		Name:        "Okada Cover",
		ProductType: insurance.ProductMotor,
		BasePremium: 5000,
		MinPremium:  3000,
		MaxPremium:  9000,
		IsActive:    true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

func SeedPolicy(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, productID uuid.UUID) *insurance.Policy {
	tb.Helper()
	now := time.Now()
	p := &insurance.Policy{
		ID:               uuid.New(),
		PolicyNumber:     insurance.NewPolicyNumber(),
		UserID:           userID,
		ProductID:        productID,
		StartDate:        now,
		EndDate:          now.AddDate(1, 0, 0),
		Status:           insurance.PolicyActive,
		InitialSoroScore: 50,
		CurrentSoroScore: 50,
		PremiumAmount:    5000,
		CoverageAmount:   200000,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed policy: %v", err)
	}
	return p
}

func SeedClaim(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, policyID uuid.UUID, status string) *claims.Claim {
	tb.Helper()
	c := &claims.Claim{
		ID:            uuid.New(),
		ClaimNumber:   claims.NewClaimNumber(),
		PolicyID:      policyID,
		UserID:        userID,
		ClaimType:     claims.TypeAccident,
		IncidentDate:  time.Now().AddDate(0, 0, -1),
		ClaimedAmount: 40000,
		Status:        status,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed claim: %v", err)
	}
	return c
}
