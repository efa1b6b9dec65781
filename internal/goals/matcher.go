package goals

import (
	"github.com/beefriend/beefriend-api/internal/models"
)

// Candidate is one entry of the matching pool.
type Candidate struct {
	UserID    string
	GoalNames []string
}

// Match is a candidate that shares at least one goal with the query.
type Match struct {
	UserID      string
	SharedGoals []string
}

// FindMatches returns the candidates whose goal names intersect query,
// skipping self. Candidate order is preserved; no ranking by overlap.
func FindMatches(query []string, self string, candidates []Candidate) []Match {
	want := make(map[string]struct{}, len(query))
	for _, name := range query {
		want[name] = struct{}{}
	}

	matches := []Match{}
	if len(want) == 0 {
		return matches
	}

	for _, c := range candidates {
		if c.UserID == self {
			continue
		}

		var shared []string
		seen := make(map[string]struct{})
		for _, name := range c.GoalNames {
			if _, ok := want[name]; !ok {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			shared = append(shared, name)
		}

		if len(shared) > 0 {
			matches = append(matches, Match{UserID: c.UserID, SharedGoals: shared})
		}
	}
	return matches
}

// GoalNames lists goal names in order.
func GoalNames(gs []models.Goal) []string {
	names := make([]string, 0, len(gs))
	for _, g := range gs {
		names = append(names, g.GoalName)
	}
	return names
}

// CandidateOf turns a stored user into a matching candidate.
func CandidateOf(u *models.User) Candidate {
	return Candidate{UserID: u.ID, GoalNames: GoalNames(u.Goals)}
}
