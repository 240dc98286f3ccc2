package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	"github.com/yungbote/zahnovia-backend/internal/data/repos/testutil"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
)

func TestProfileUpdateCompletesProfile(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewProfileService(log, repos.NewUserRepo(db, log), repos.NewProfileRepo(db, log))

	u := testutil.SeedUser(t, context.Background(), db, "profile@example.com")
	require.NoError(t, db.Create(&types.ManufacturerProfile{UserID: u.ID, CompanyName: "Labor"}).Error)
	ctx := asUser(u.ID)

	ok, err := svc.CanAccess(context.Background(), u.ID)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = svc.Update(ctx, ProfileInput{CompanyName: "Labor"})
	ae := requireAPIError(t, err, http.StatusBadRequest, "validation_failed")
	require.Contains(t, ae.Fields, "street")
	require.Contains(t, ae.Fields, "email")

	p, err := svc.Update(ctx, ProfileInput{
		CompanyName: " Zahntechnik Nord GmbH ",
		Street:      "Hafenstraße 5",
		PostalCode:  "20457",
		City:        "Hamburg",
		Phone:       "040 123",
		Email:       "info@nord.example",
	})
	require.NoError(t, err)
	require.True(t, p.ProfileCompleted)
	require.Equal(t, "Zahntechnik Nord GmbH", p.CompanyName)

	got, err := svc.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "Hamburg", got.City)

	ok, err = svc.CanAccess(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCanAccessLetsStaffThrough(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	svc := NewProfileService(log, repos.NewUserRepo(db, log), repos.NewProfileRepo(db, log))

	u := testutil.SeedUser(t, context.Background(), db, "staff@example.com")
	require.NoError(t, db.Model(u).Update("is_staff", true).Error)

	ok, err := svc.CanAccess(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, ok)
}
