package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beefriend/beefriend-api/internal/models"
	"github.com/beefriend/beefriend-api/internal/storage"
)

func partnerNames(ms []models.PartnerMatch) []string {
	names := make([]string, 0, len(ms))
	for _, m := range ms {
		names = append(names, m.User.Name)
	}
	return names
}

func TestFindPartners(t *testing.T) {
	f := newFixture()
	me := f.register(t, "me")
	alice := f.register(t, "Alice")
	bob := f.register(t, "Bob")
	f.setGoals(t, me.ID, "Meditation")
	f.setGoals(t, alice.ID, "Meditation", "Journaling Daily")
	f.setGoals(t, bob.ID, "Weight Loss")

	ms, err := f.pairing.FindPartners(context.Background(), me.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Alice"}, partnerNames(ms))
	assert.Equal(t, []string{"Meditation"}, ms[0].SharedGoals)
	assert.Equal(t, alice.ID, ms[0].User.ID)
}

func TestFindPartnersExcludesSelfByID(t *testing.T) {
	f := newFixture()
	me := f.register(t, "sam")
	other, err := f.accounts.Register(context.Background(), models.RegisterInput{
		Name: "sam", Email: "other-sam@example.com", Password: "pw",
	})
	require.NoError(t, err)
	f.setGoals(t, me.ID, "Meditation")
	f.setGoals(t, other.ID, "Meditation")

	ms, err := f.pairing.FindPartners(context.Background(), me.ID, nil)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, other.ID, ms[0].User.ID)
}

func TestFindPartnersExplicitGoals(t *testing.T) {
	f := newFixture()
	me := f.register(t, "me")
	alice := f.register(t, "Alice")
	bob := f.register(t, "Bob")
	f.setGoals(t, alice.ID, "Meditation")
	f.setGoals(t, bob.ID, "Weight Loss", "Meditation")

	ms, err := f.pairing.FindPartners(context.Background(), me.ID, []string{"Weight Loss", "Weight Loss"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Bob"}, partnerNames(ms))
}

func TestFindPartnersNoGoals(t *testing.T) {
	f := newFixture()
	me := f.register(t, "me")
	alice := f.register(t, "Alice")
	f.setGoals(t, alice.ID, "Meditation")

	ms, err := f.pairing.FindPartners(context.Background(), me.ID, nil)
	require.NoError(t, err)
	assert.NotNil(t, ms)
	assert.Empty(t, ms)

	_, err = f.pairing.FindPartners(context.Background(), "nobody", nil)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

type failingStore struct {
	storage.Store
}

func (failingStore) FindUsersByGoalNames(context.Context, string, []string) ([]*models.User, error) {
	return nil, models.DataSourceError("failed to query users", errors.New("connection refused"))
}

func TestFindPartnersDataSourceFailure(t *testing.T) {
	p := NewPairingService(failingStore{Store: storage.NewMemoryStore()})

	ms, err := p.FindPartners(context.Background(), "me", []string{"Meditation"})
	assert.Nil(t, ms)
	assert.ErrorIs(t, err, models.ErrDataSource)
}
