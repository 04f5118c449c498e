package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"taxdesk/internal/common"
	"taxdesk/internal/models"
	"taxdesk/internal/repositories"

	"github.com/google/uuid"
)

type ClientRegistration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ProfileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// ProfileService owns client accounts: self-service registration and the
// profile behind /v1/me. Staff accounts go through EmployeeService instead.
type ProfileService interface {
	Register(ctx context.Context, req *ClientRegistration) (*models.UserProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	Update(ctx context.Context, id uuid.UUID, req *ProfileUpdate) (*models.UserProfile, error)
}

type profileService struct {
	users repositories.UserRepository
	auth  AuthService
}

func NewProfileService(users repositories.UserRepository, auth AuthService) ProfileService {
	return &profileService{users: users, auth: auth}
}

func (s *profileService) Register(ctx context.Context, req *ClientRegistration) (*models.UserProfile, error) {
	if err := common.ValidateRequiredString(req.FirstName, "first_name"); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err := common.ValidateRequiredString(req.LastName, "last_name"); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	principal, err := s.auth.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		ID:        principal.ID,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      models.RoleClient,
	}
	if err := s.users.Create(ctx, profile); err != nil {
		// The credential exists but the profile write failed. Leave the
		// credential in place; the account can be repaired by support.
		log.Printf("WARN: client registration left credential %s without a profile: %v", principal.ID, err)
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataWrite, err)
	}
	return profile, nil
}

func (s *profileService) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	profile, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	return profile, nil
}

func (s *profileService) Update(ctx context.Context, id uuid.UUID, req *ProfileUpdate) (*models.UserProfile, error) {
	profile, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataRead, err)
	}
	if req.FirstName != nil {
		if err := common.ValidateRequiredString(*req.FirstName, "first_name"); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		profile.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		if err := common.ValidateRequiredString(*req.LastName, "last_name"); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
		}
		profile.LastName = strings.TrimSpace(*req.LastName)
	}
	if err := s.users.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMetadataWrite, err)
	}
	return profile, nil
}
