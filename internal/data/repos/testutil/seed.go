package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/zahnovia-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

// SeedVerifiedUser creates a user with a verified, completed profile.
func SeedVerifiedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) (*types.User, *types.ManufacturerProfile) {
	tb.Helper()
	u := SeedUser(tb, ctx, tx, email)
	now := time.Now().UTC()
	if err := tx.WithContext(ctx).Model(u).Update("email_verified_at", now).Error; err != nil {
		tb.Fatalf("verify user: %v", err)
	}
	u.EmailVerifiedAt = &now
	p := &types.ManufacturerProfile{
		UserID:           u.ID,
		CompanyName:      "Dentallabor Muster GmbH",
		Street:           "Hauptstraße 1",
		PostalCode:       "10115",
		City:             "Berlin",
		Phone:            "030 123456",
		Email:            "labor@example.com",
		EmailVerified:    true,
		ProfileCompleted: true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return u, p
}

func SeedPreset(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, material, manufacturer string) *types.MaterialPreset {
	tb.Helper()
	p := &types.MaterialPreset{
		UserID:       userID,
		Material:     material,
		Manufacturer: manufacturer,
		Composition:  "ZrO2",
		LotNumber:    "L-1",
		CEStatus:     "Ja",
		IsActive:     true,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed preset: %v", err)
	}
	return p
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
