package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/beefriend/beefriend-api/internal/goals"
	"github.com/beefriend/beefriend-api/internal/models"
	"github.com/beefriend/beefriend-api/internal/storage"
)

// GoalService is the write path for goals and tasks. Every operation is a
// single atomic update of the owning user document.
type GoalService struct {
	store storage.Store
	now   func() time.Time
}

func NewGoalService(store storage.Store) *GoalService {
	return &GoalService{store: store, now: time.Now}
}

func (s *GoalService) GetGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(user.Goals), nil
}

// ReplaceGoals overwrites the whole goal list. Task history of goals that
// are not resubmitted is lost; an empty list clears every goal.
func (s *GoalService) ReplaceGoals(ctx context.Context, userID string, ins []models.GoalInput) ([]models.Goal, error) {
	if err := goals.ValidateGoalInputs(ins); err != nil {
		return nil, err
	}
	built := goals.BuildAll(ins, s.now())
	if err := goals.ValidateGoals(built); err != nil {
		return nil, err
	}

	user, err := s.store.UpdateUser(ctx, userID, func(u *models.User) error {
		u.Goals = cloneGoals(built)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nonNil(user.Goals), nil
}

// UpsertGoals merges submitted goals into the stored list by name and
// keeps the goals that were not submitted.
func (s *GoalService) UpsertGoals(ctx context.Context, userID string, ins []models.GoalInput) ([]models.Goal, error) {
	if err := goals.ValidateGoalInputs(ins); err != nil {
		return nil, err
	}
	now := s.now()
	user, err := s.store.UpdateUser(ctx, userID, func(u *models.User) error {
		merged := goals.Merge(u.Goals, ins, now)
		if err := goals.ValidateGoals(merged); err != nil {
			return err
		}
		u.Goals = merged
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nonNil(user.Goals), nil
}

// RecomputeProgress refreshes and persists the progress of every goal.
func (s *GoalService) RecomputeProgress(ctx context.Context, userID string) ([]models.Goal, error) {
	user, err := s.store.UpdateUser(ctx, userID, func(u *models.User) error {
		goals.RecomputeAll(u.Goals)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return nonNil(user.Goals), nil
}

// AddTask appends an incomplete task to a goal.
func (s *GoalService) AddTask(ctx context.Context, userID, goalName string, in models.TaskInput) (*models.Goal, error) {
	if err := goals.Validate(in); err != nil {
		return nil, err
	}
	task := models.Task{Name: strings.TrimSpace(in.Name)}

	return s.mutateGoal(ctx, userID, goalName, func(g *models.Goal) error {
		if goals.FindTask(*g, task.Name) >= 0 {
			return models.NewValidationError("name", "task already exists")
		}
		g.Tasks = append(g.Tasks, task)
		return nil
	})
}

// SetTaskCompletion marks a task done or not done.
func (s *GoalService) SetTaskCompletion(ctx context.Context, userID, goalName, taskName string, done bool) (*models.Goal, error) {
	return s.mutateGoal(ctx, userID, goalName, func(g *models.Goal) error {
		i := goals.FindTask(*g, taskName)
		if i < 0 {
			return fmt.Errorf("task %q: %w", taskName, models.ErrNotFound)
		}
		g.Tasks[i].IsCompleted = done
		return nil
	})
}

// RemoveTask deletes a task from a goal. Removing the last task keeps the
// goal's current progress.
func (s *GoalService) RemoveTask(ctx context.Context, userID, goalName, taskName string) (*models.Goal, error) {
	return s.mutateGoal(ctx, userID, goalName, func(g *models.Goal) error {
		i := goals.FindTask(*g, taskName)
		if i < 0 {
			return fmt.Errorf("task %q: %w", taskName, models.ErrNotFound)
		}
		g.Tasks = append(g.Tasks[:i], g.Tasks[i+1:]...)
		return nil
	})
}

// mutateGoal edits one goal and recomputes its progress in the same write.
func (s *GoalService) mutateGoal(ctx context.Context, userID, goalName string, fn func(g *models.Goal) error) (*models.Goal, error) {
	var result models.Goal
	_, err := s.store.UpdateUser(ctx, userID, func(u *models.User) error {
		i := goals.Find(u.Goals, goalName)
		if i < 0 {
			return fmt.Errorf("goal %q: %w", goalName, models.ErrNotFound)
		}

		g := u.Goals[i].Clone()
		if err := fn(&g); err != nil {
			return err
		}
		goals.Recompute(&g)
		u.Goals[i] = g
		result = g.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func cloneGoals(gs []models.Goal) []models.Goal {
	out := make([]models.Goal, len(gs))
	for i, g := range gs {
		out[i] = g.Clone()
	}
	return out
}

func nonNil(gs []models.Goal) []models.Goal {
	if gs == nil {
		return []models.Goal{}
	}
	return gs
}
