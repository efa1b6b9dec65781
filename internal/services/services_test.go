package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/beefriend/beefriend-api/internal/models"
	"github.com/beefriend/beefriend-api/internal/storage"
)

var start = time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)

// ticker returns a clock that advances one second per reading so creation
// order is deterministic.
func ticker() func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

type fixture struct {
	store    *storage.MemoryStore
	accounts *AccountService
	goals    *GoalService
	pairing  *PairingService
}

func newFixture() *fixture {
	store := storage.NewMemoryStore()
	clock := ticker()

	accounts := NewAccountService(store)
	accounts.now = clock
	goalSvc := NewGoalService(store)
	goalSvc.now = clock

	return &fixture{
		store:    store,
		accounts: accounts,
		goals:    goalSvc,
		pairing:  NewPairingService(store),
	}
}

func (f *fixture) register(t *testing.T, name string) *models.User {
	t.Helper()
	u, err := f.accounts.Register(context.Background(), models.RegisterInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "password-" + name,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) setGoals(t *testing.T, userID string, names ...string) {
	t.Helper()
	ins := make([]models.GoalInput, 0, len(names))
	for _, n := range names {
		ins = append(ins, models.GoalInput{GoalName: n})
	}
	_, err := f.goals.ReplaceGoals(context.Background(), userID, ins)
	require.NoError(t, err)
}
