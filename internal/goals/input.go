package goals

import (
	"strings"
	"time"

	"github.com/beefriend/beefriend-api/internal/models"
)

// DefaultWindow is the length of a goal submitted without an end date.
const DefaultWindow = 7 * 24 * time.Hour

// Build turns a submitted goal into a stored one, filling defaults and
// recomputing progress. A goal submitted without tasks gets the catalog's
// starter tasks when it has any.
func Build(in models.GoalInput, now time.Time) models.Goal {
	g := models.Goal{
		GoalName:  strings.TrimSpace(in.GoalName),
		StartDate: now,
	}
	if in.StartDate != nil {
		g.StartDate = *in.StartDate
	}
	g.EndDate = g.StartDate.Add(DefaultWindow)
	if in.EndDate != nil {
		g.EndDate = *in.EndDate
	}
	if in.Progress != nil {
		g.Progress = *in.Progress
	}

	if in.Tasks != nil {
		g.Tasks = copyTasks(in.Tasks)
	} else {
		g.Tasks = StarterTasks(g.GoalName)
	}

	Recompute(&g)
	return g
}

// BuildAll builds a whole goal list. The result is never nil so an empty
// submission clears the stored list.
func BuildAll(ins []models.GoalInput, now time.Time) []models.Goal {
	out := make([]models.Goal, 0, len(ins))
	for _, in := range ins {
		out = append(out, Build(in, now))
	}
	return out
}

// Merge upserts submitted goals into existing by goal name. Goals that are
// not submitted are kept. For a submitted goal that already exists, every
// omitted field (tasks included) keeps its stored value.
func Merge(existing []models.Goal, ins []models.GoalInput, now time.Time) []models.Goal {
	out := make([]models.Goal, 0, len(existing)+len(ins))
	index := make(map[string]int, len(existing))
	for _, g := range existing {
		index[g.GoalName] = len(out)
		out = append(out, g.Clone())
	}

	for _, in := range ins {
		name := strings.TrimSpace(in.GoalName)
		i, ok := index[name]
		if !ok {
			index[name] = len(out)
			out = append(out, Build(in, now))
			continue
		}

		g := out[i]
		if in.StartDate != nil {
			g.StartDate = *in.StartDate
		}
		if in.EndDate != nil {
			g.EndDate = *in.EndDate
		}
		if in.Progress != nil {
			g.Progress = *in.Progress
		}
		if in.Tasks != nil {
			g.Tasks = copyTasks(in.Tasks)
		}
		Recompute(&g)
		out[i] = g
	}
	return out
}

// Find returns the index of the named goal, or -1.
func Find(gs []models.Goal, name string) int {
	for i, g := range gs {
		if g.GoalName == name {
			return i
		}
	}
	return -1
}

// FindTask returns the index of the named task, or -1.
func FindTask(g models.Goal, name string) int {
	for i, t := range g.Tasks {
		if t.Name == name {
			return i
		}
	}
	return -1
}

func copyTasks(ts []models.Task) []models.Task {
	out := make([]models.Task, len(ts))
	for i, t := range ts {
		out[i] = models.Task{Name: strings.TrimSpace(t.Name), IsCompleted: t.IsCompleted}
	}
	return out
}
