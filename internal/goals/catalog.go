package goals

import (
	"github.com/beefriend/beefriend-api/internal/models"
)

// Category groups suggested goals.
type Category struct {
	Name  string   `json:"name"`
	Goals []string `json:"goals"`
}

var catalog = []Category{
	{
		Name: "Mental Health",
		Goals: []string{
			"Quit Social Media",
			"Meditation",
			"Improve Sleep Quality",
			"Manage Stress",
			"Journaling Daily",
			"Therapy Session",
		},
	},
	{
		Name: "Physical Health",
		Goals: []string{
			"Fitness Training",
			"Quit Smoking",
			"Weight Loss",
			"Nutrition and Healthy Eating",
			"Increase Daily Steps",
			"Hydration Goals",
		},
	},
	{
		Name: "Social Health",
		Goals: []string{
			"Strengthen Family Bonds",
			"Build New Friendships",
			"Improve Communication Skills",
			"Reconnect with Old Friends",
			"Volunteer Community Service",
			"Plan Regular Social Activities",
		},
	},
}

var starterTasks = map[string][]string{
	"Meditation":            {"5-Minute Mindful Breathing", "10-Minute Bodyweight Circuit"},
	"Weight Loss":           {"Exercise for 30 minutes", "Drink 2 liters of water"},
	"Build New Friendships": {"Join a new club", "Attend a networking event"},
}

// Catalog returns the suggested goals grouped by category.
func Catalog() []Category {
	out := make([]Category, len(catalog))
	for i, c := range catalog {
		out[i] = Category{Name: c.Name, Goals: append([]string(nil), c.Goals...)}
	}
	return out
}

// StarterTasks returns fresh, incomplete starter tasks for a catalog goal,
// or nil when the goal has none.
func StarterTasks(goalName string) []models.Task {
	names, ok := starterTasks[goalName]
	if !ok {
		return nil
	}
	tasks := make([]models.Task, len(names))
	for i, n := range names {
		tasks[i] = models.Task{Name: n}
	}
	return tasks
}
