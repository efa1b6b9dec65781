// Package goals holds the pure goal logic: progress, matching, validation
// and the suggested goal catalog. Nothing here touches a store.
package goals

import (
	"math"

	"github.com/beefriend/beefriend-api/internal/models"
)

// Progress returns round(100*completed/total). ok is false for an empty task
// list, in which case the caller keeps whatever progress it had.
func Progress(tasks []models.Task) (percent int, ok bool) {
	if len(tasks) == 0 {
		return 0, false
	}

	completed := 0
	for _, t := range tasks {
		if t.IsCompleted {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(len(tasks)))), true
}

// Recompute refreshes g.Progress from its tasks and reports whether the
// value changed.
func Recompute(g *models.Goal) bool {
	p, ok := Progress(g.Tasks)
	if !ok || p == g.Progress {
		return false
	}
	g.Progress = p
	return true
}

// RecomputeAll applies Recompute to every goal and returns how many changed.
func RecomputeAll(gs []models.Goal) int {
	changed := 0
	for i := range gs {
		if Recompute(&gs[i]) {
			changed++
		}
	}
	return changed
}
