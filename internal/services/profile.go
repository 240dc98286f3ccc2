package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/zahnovia-backend/internal/data/repos"
	types "github.com/yungbote/zahnovia-backend/internal/domain"
	"github.com/yungbote/zahnovia-backend/internal/platform/dbctx"
	"github.com/yungbote/zahnovia-backend/internal/platform/logger"
)

type ProfileInput struct {
	CompanyName        string `json:"company_name" validate:"required,max=200"`
	Street             string `json:"street" validate:"required,max=200"`
	PostalCode         string `json:"postal_code" validate:"required,max=10"`
	City               string `json:"city" validate:"required,max=100"`
	Phone              string `json:"phone" validate:"required,max=50"`
	Email              string `json:"email" validate:"required,email,max=254"`
	PrescribingDentist string `json:"prescribing_dentist" validate:"max=200"`
}

type ProfileService interface {
	Get(ctx context.Context) (*types.ManufacturerProfile, error)
	Update(ctx context.Context, in ProfileInput) (*types.ManufacturerProfile, error)
	// CanAccess reports whether the user may use the guarded routes: staff
	// always, everyone else once the profile is completed.
	CanAccess(ctx context.Context, userID uuid.UUID) (bool, error)
}

type profileService struct {
	log         *logger.Logger
	userRepo    repos.UserRepo
	profileRepo repos.ProfileRepo
}

func NewProfileService(log *logger.Logger, userRepo repos.UserRepo, profileRepo repos.ProfileRepo) ProfileService {
	return &profileService{
		log:         log.With("service", "ProfileService"),
		userRepo:    userRepo,
		profileRepo: profileRepo,
	}
}

func (ps *profileService) Get(ctx context.Context) (*types.ManufacturerProfile, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := ps.profileRepo.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return p, nil
}

func (ps *profileService) Update(ctx context.Context, in ProfileInput) (*types.ManufacturerProfile, error) {
	userID, err := requestUserID(ctx)
	if err != nil {
		return nil, err
	}
	in = trimProfile(in)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	dbc := dbctx.Context{Ctx: ctx}
	p, err := ps.profileRepo.GetByUserID(dbc, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Accounts that predate profile creation at registration.
		p = &types.ManufacturerProfile{UserID: userID}
	} else if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	p.CompanyName = in.CompanyName
	p.Street = in.Street
	p.PostalCode = in.PostalCode
	p.City = in.City
	p.Phone = in.Phone
	p.Email = in.Email
	p.PrescribingDentist = in.PrescribingDentist
	p.ProfileCompleted = p.IsComplete()

	if err := ps.profileRepo.Save(dbc, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	ps.log.Info("Profile updated", "user_id", userID, "completed", p.ProfileCompleted)
	return p, nil
}

func trimProfile(in ProfileInput) ProfileInput {
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Street = strings.TrimSpace(in.Street)
	in.PostalCode = strings.TrimSpace(in.PostalCode)
	in.City = strings.TrimSpace(in.City)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)
	in.PrescribingDentist = strings.TrimSpace(in.PrescribingDentist)
	return in
}

func (ps *profileService) CanAccess(ctx context.Context, userID uuid.UUID) (bool, error) {
	dbc := dbctx.Context{Ctx: ctx}
	users, err := ps.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return false, nil
	}
	if users[0].IsStaff {
		return true, nil
	}
	p, err := ps.profileRepo.GetByUserID(dbc, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}
	return p.ProfileCompleted, nil
}
