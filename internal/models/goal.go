package models

import (
	"time"
)

// Task is a checklist item of a goal. Its name identifies it within the goal.
type Task struct {
	Name        string `firestore:"name" bson:"name" json:"name" validate:"required,nonblank,max=1000"`
	IsCompleted bool   `firestore:"isCompleted" bson:"isCompleted" json:"isCompleted"`
}

// Goal is a user objective with a completion window and a derived progress.
type Goal struct {
	GoalName  string    `firestore:"goalName" bson:"goalName" json:"goalName" validate:"required,nonblank,max=100"`
	Progress  int       `firestore:"progress" bson:"progress" json:"progress" validate:"min=0,max=100"`
	StartDate time.Time `firestore:"startDate" bson:"startDate" json:"startDate" validate:"required"`
	EndDate   time.Time `firestore:"endDate" bson:"endDate" json:"endDate" validate:"required,gtefield=StartDate"`
	Tasks     []Task    `firestore:"tasks" bson:"tasks" json:"tasks" validate:"omitempty,unique=Name,dive"`
}

// Clone returns a copy of g that shares no task slice with it.
func (g Goal) Clone() Goal {
	if g.Tasks != nil {
		g.Tasks = append([]Task(nil), g.Tasks...)
	}
	return g
}

// GoalInput is a goal as submitted by a client. Missing fields get defaults:
// progress 0, start now, end a week after start.
type GoalInput struct {
	GoalName  string     `json:"goalName"`
	Progress  *int       `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	// Tasks distinguishes absent (nil) from an explicit empty list.
	Tasks []Task `json:"tasks,omitempty"`
}

// GoalsInput is the body of the goal write endpoints.
type GoalsInput struct {
	Goals []GoalInput `json:"goals"`
}

// TaskInput is the body of an add-task request.
type TaskInput struct {
	Name string `json:"name" validate:"required,nonblank,max=1000"`
}

// TaskStatusInput is the body of a task completion update.
type TaskStatusInput struct {
	IsCompleted bool `json:"isCompleted"`
}

// PartnerMatch is a user sharing at least one goal with the requester.
type PartnerMatch struct {
	User        PublicUser `json:"user"`
	SharedGoals []string   `json:"sharedGoals"`
}
