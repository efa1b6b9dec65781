// Package storage persists user documents. Goals and tasks are embedded in
// the user record, so every goal write is an update of a single document.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beefriend/beefriend-api/internal/goals"
	"github.com/beefriend/beefriend-api/internal/models"
)

// ErrLineIDTaken is returned by UpdateUser when the mutation links a LINE
// user ID that another account already holds.
var ErrLineIDTaken = fmt.Errorf("LINE account already linked: %w", models.ErrConflict)

// MutateFunc edits a user in place. Returning an error aborts the write and
// the error is handed back unchanged.
type MutateFunc func(u *models.User) error

// Store is implemented by the Firestore, MongoDB and in-memory backends.
//
// Lookups return models.ErrNotFound for a missing user, CreateUser returns
// models.ErrConflict for a taken email and driver failures are wrapped in
// models.ErrDataSource.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByLineID(ctx context.Context, lineUserID string) (*models.User, error)

	// UpdateUser applies fn to the stored user as one atomic
	// read-modify-write and returns the stored result. LINE user IDs are
	// unique across users.
	UpdateUser(ctx context.Context, id string, fn MutateFunc) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error

	// ListUsers returns every user except excludeID, oldest first.
	ListUsers(ctx context.Context, excludeID string) ([]*models.User, error)
	// FindUsersByGoalNames returns users other than excludeID that have at
	// least one of names, oldest first.
	FindUsersByGoalNames(ctx context.Context, excludeID string, names []string) ([]*models.User, error)

	Close() error
}

// prepare refreshes the derived fields of a user about to be written.
func prepare(u *models.User, now time.Time) {
	u.GoalNames = goals.GoalNames(u.Goals)
	u.UpdatedAt = now
	u.Version++
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
