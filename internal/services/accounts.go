// Package services implements the account, goal, pairing and companion
// operations on top of a storage.Store.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beefriend/beefriend-api/internal/auth"
	"github.com/beefriend/beefriend-api/internal/goals"
	"github.com/beefriend/beefriend-api/internal/models"
	"github.com/beefriend/beefriend-api/internal/storage"
)

type AccountService struct {
	store storage.Store
	now   func() time.Time
}

func NewAccountService(store storage.Store) *AccountService {
	return &AccountService{store: store, now: time.Now}
}

// Register creates an account with an empty goal list.
func (s *AccountService) Register(ctx context.Context, in models.RegisterInput) (*models.User, error) {
	if err := goals.Validate(in); err != nil {
		return nil, err
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        in.Email,
		PasswordHash: hashed,
		About:        models.DefaultAbout,
		Goals:        []models.Goal{},
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fmt.Errorf("email already registered: %w", models.ErrConflict)
		}
		return nil, err
	}

	return user, nil
}

// Authenticate returns the user owning email when password matches.
func (s *AccountService) Authenticate(ctx context.Context, in models.LoginInput) (*models.User, error) {
	if err := goals.Validate(in); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, models.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		return nil, models.ErrInvalidCredentials
	}
	return user, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// GetByLineID resolves the account linked to a LINE user.
func (s *AccountService) GetByLineID(ctx context.Context, lineUserID string) (*models.User, error) {
	return s.store.GetUserByLineID(ctx, lineUserID)
}

// ListOthers returns every account except id.
func (s *AccountService) ListOthers(ctx context.Context, id string) ([]*models.User, error) {
	return s.store.ListUsers(ctx, id)
}

// UpdateProfile applies the non-nil fields of in. Linking a LINE ID that
// another account holds fails with models.ErrConflict.
func (s *AccountService) UpdateProfile(ctx context.Context, id string, in models.ProfileInput) (*models.User, error) {
	if err := goals.Validate(in); err != nil {
		return nil, err
	}

	var lineUserID string
	if in.LineUserID != nil {
		lineUserID = strings.TrimSpace(*in.LineUserID)
	}

	return s.store.UpdateUser(ctx, id, func(u *models.User) error {
		if in.Name != nil {
			u.Name = strings.TrimSpace(*in.Name)
		}
		if in.About != nil {
			u.About = *in.About
			if u.About == "" {
				u.About = models.DefaultAbout
			}
		}
		if in.LineUserID != nil {
			u.LineUserID = lineUserID
		}
		return nil
	})
}

// ChangePassword replaces the password when old matches the stored one.
func (s *AccountService) ChangePassword(ctx context.Context, id string, in models.PasswordInput) error {
	if err := goals.Validate(in); err != nil {
		return err
	}
	if in.OldPassword == in.NewPassword {
		return models.NewValidationError("newPassword", "must differ from the old password")
	}

	hashed, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %v", err)
	}

	_, err = s.store.UpdateUser(ctx, id, func(u *models.User) error {
		if !auth.CheckPassword(u.PasswordHash, in.OldPassword) {
			return models.ErrInvalidCredentials
		}
		u.PasswordHash = hashed
		return nil
	})
	return err
}

// DeleteAccount removes the user document and everything embedded in it.
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	return s.store.DeleteUser(ctx, id)
}
