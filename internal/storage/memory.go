package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/beefriend/beefriend-api/internal/models"
)

// MemoryStore keeps users in process memory. It backs tests and the
// "memory" backend for local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]*models.User // userID -> user
	byEmail map[string]string       // normalized email -> userID
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]*models.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := normalizeEmail(user.Email)
	if _, exists := s.byEmail[email]; exists {
		return models.ErrConflict
	}
	if _, exists := s.users[user.ID]; exists {
		return models.ErrConflict
	}

	stored := user.Clone()
	stored.Email = email
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	stored.Version = 0
	prepare(stored, stored.CreatedAt)

	s.users[stored.ID] = stored
	s.byEmail[email] = stored.ID
	*user = *stored.Clone()
	return nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, models.ErrNotFound
	}
	return user.Clone(), nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byEmail[normalizeEmail(email)]
	if !exists {
		return nil, models.ErrNotFound
	}
	return s.users[id].Clone(), nil
}

func (s *MemoryStore) GetUserByLineID(ctx context.Context, lineUserID string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.sorted("") {
		if lineUserID != "" && u.LineUserID == lineUserID {
			return u.Clone(), nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *MemoryStore) UpdateUser(ctx context.Context, id string, fn MutateFunc) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.users[id]
	if !exists {
		return nil, models.ErrNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	// identity fields are not editable through a mutation
	next.ID = current.ID
	next.Email = current.Email
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version
	if next.LineUserID != "" && next.LineUserID != current.LineUserID && s.lineIDTaken(id, next.LineUserID) {
		return nil, ErrLineIDTaken
	}
	prepare(next, s.now())

	s.users[id] = next
	return next.Clone(), nil
}

func (s *MemoryStore) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[id]
	if !exists {
		return models.ErrNotFound
	}
	delete(s.byEmail, user.Email)
	delete(s.users, id)
	return nil
}

func (s *MemoryStore) ListUsers(ctx context.Context, excludeID string) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := s.sorted(excludeID)
	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Clone())
	}
	return out, nil
}

func (s *MemoryStore) FindUsersByGoalNames(ctx context.Context, excludeID string, names []string) ([]*models.User, error) {
	want := make(map[string]struct{}, len(names))
	for _, n := range names {
		want[n] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*models.User{}
	for _, u := range s.sorted(excludeID) {
		for _, n := range u.GoalNames {
			if _, ok := want[n]; ok {
				out = append(out, u.Clone())
				break
			}
		}
	}
	return out, nil
}

// lineIDTaken reports whether a user other than id holds lineUserID.
// Callers hold the lock.
func (s *MemoryStore) lineIDTaken(id, lineUserID string) bool {
	for otherID, u := range s.users {
		if otherID != id && u.LineUserID == lineUserID {
			return true
		}
	}
	return false
}

// sorted returns stored users oldest first. Callers hold the lock.
func (s *MemoryStore) sorted(excludeID string) []*models.User {
	users := make([]*models.User, 0, len(s.users))
	for id, u := range s.users {
		if id != excludeID {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users
}
