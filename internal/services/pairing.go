package services

import (
	"context"
	"fmt"

	"github.com/beefriend/beefriend-api/internal/goals"
	"github.com/beefriend/beefriend-api/internal/models"
	"github.com/beefriend/beefriend-api/internal/storage"
)

// PairingService finds accountability partners that share goals.
type PairingService struct {
	store storage.Store
}

func NewPairingService(store storage.Store) *PairingService {
	return &PairingService{store: store}
}

// FindPartners matches userID against everyone else. With no goalNames the
// user's stored goals are used. No match is an empty result, not an error.
func (s *PairingService) FindPartners(ctx context.Context, userID string, goalNames []string) ([]models.PartnerMatch, error) {
	if len(goalNames) == 0 {
		user, err := s.store.GetUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		goalNames = goals.GoalNames(user.Goals)
	}

	partners := []models.PartnerMatch{}
	if len(goalNames) == 0 {
		return partners, nil
	}

	users, err := s.store.FindUsersByGoalNames(ctx, userID, goalNames)
	if err != nil {
		return nil, fmt.Errorf("find partners: %w", err)
	}

	byID := make(map[string]*models.User, len(users))
	candidates := make([]goals.Candidate, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		candidates = append(candidates, goals.CandidateOf(u))
	}

	for _, m := range goals.FindMatches(goalNames, userID, candidates) {
		partners = append(partners, models.PartnerMatch{
			User:        byID[m.UserID].Public(),
			SharedGoals: m.SharedGoals,
		})
	}
	return partners, nil
}
