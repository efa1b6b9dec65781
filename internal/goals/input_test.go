package goals

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beefriend/beefriend-api/internal/models"
)

var now = time.Date(2024, 10, 5, 9, 0, 0, 0, time.UTC)

func intPtr(i int) *int { return &i }

func TestBuildDefaults(t *testing.T) {
	g := Build(models.GoalInput{GoalName: " Journaling Daily "}, now)
	assert.Equal(t, "Journaling Daily", g.GoalName)
	assert.Equal(t, 0, g.Progress)
	assert.Equal(t, now, g.StartDate)
	assert.Equal(t, now.Add(7*24*time.Hour), g.EndDate)
	assert.Nil(t, g.Tasks)
}

func TestBuildStarterTasks(t *testing.T) {
	g := Build(models.GoalInput{GoalName: "Weight Loss"}, now)
	require.Len(t, g.Tasks, 2)
	assert.False(t, g.Tasks[0].IsCompleted)

	g = Build(models.GoalInput{GoalName: "Weight Loss", Tasks: []models.Task{}}, now)
	assert.Empty(t, g.Tasks)
}

func TestBuildRecomputesSubmittedProgress(t *testing.T) {
	g := Build(models.GoalInput{
		GoalName: "Hydration Goals",
		Progress: intPtr(90),
		Tasks:    []models.Task{{Name: "Drink water", IsCompleted: true}, {Name: "Walk 10k steps"}},
	}, now)
	assert.Equal(t, 50, g.Progress)

	g = Build(models.GoalInput{GoalName: "Hydration Goals", Progress: intPtr(90)}, now)
	assert.Equal(t, 90, g.Progress)
}

func TestBuildAllNeverNil(t *testing.T) {
	gs := BuildAll(nil, now)
	assert.NotNil(t, gs)
	assert.Empty(t, gs)
}

func TestMergeKeepsStoredTasks(t *testing.T) {
	existing := []models.Goal{
		{GoalName: "Meditation", Progress: 50, StartDate: now, EndDate: now.Add(DefaultWindow),
			Tasks: []models.Task{{Name: "Breathe", IsCompleted: true}, {Name: "Sit"}}},
		{GoalName: "Quit Smoking", StartDate: now, EndDate: now.Add(DefaultWindow)},
	}
	end := now.Add(30 * 24 * time.Hour)

	out := Merge(existing, []models.GoalInput{
		{GoalName: "Meditation", EndDate: &end},
		{GoalName: "Therapy Session"},
	}, now)

	require.Len(t, out, 3)
	assert.Equal(t, "Meditation", out[0].GoalName)
	assert.Len(t, out[0].Tasks, 2)
	assert.Equal(t, 50, out[0].Progress)
	assert.Equal(t, end, out[0].EndDate)
	assert.Equal(t, "Quit Smoking", out[1].GoalName)
	assert.Equal(t, "Therapy Session", out[2].GoalName)

	// existing is left untouched
	assert.Equal(t, now.Add(DefaultWindow), existing[0].EndDate)
}

func TestMergeReplacesTasksWhenGiven(t *testing.T) {
	existing := []models.Goal{{GoalName: "Meditation", Progress: 50,
		Tasks: []models.Task{{Name: "Breathe", IsCompleted: true}, {Name: "Sit"}}}}

	out := Merge(existing, []models.GoalInput{
		{GoalName: "Meditation", Tasks: []models.Task{{Name: "Breathe", IsCompleted: true}}},
	}, now)
	assert.Equal(t, 100, out[0].Progress)
	assert.Len(t, out[0].Tasks, 1)
}

func TestValidateGoals(t *testing.T) {
	good := BuildAll([]models.GoalInput{{GoalName: "Meditation"}, {GoalName: "Weight Loss"}}, now)
	assert.NoError(t, ValidateGoals(good))

	cases := map[string][]models.Goal{
		"goals[0].goalName":      {{GoalName: "", StartDate: now, EndDate: now}},
		"goals[0].progress":      {{GoalName: "a", Progress: 101, StartDate: now, EndDate: now}},
		"goals[0].endDate":       {{GoalName: "a", StartDate: now, EndDate: now.Add(-time.Hour)}},
		"goals":                  {{GoalName: "a", StartDate: now, EndDate: now}, {GoalName: "a", StartDate: now, EndDate: now}},
		"goals[0].tasks":         {{GoalName: "a", StartDate: now, EndDate: now, Tasks: []models.Task{{Name: "x"}, {Name: "x"}}}},
		"goals[0].tasks[0].name": {{GoalName: "a", StartDate: now, EndDate: now, Tasks: []models.Task{{Name: "  "}}}},
	}
	for field, gs := range cases {
		err := ValidateGoals(gs)
		require.Error(t, err, field)
		assert.True(t, errors.Is(err, models.ErrValidation), field)

		var verr *models.ValidationError
		require.True(t, errors.As(err, &verr), field)
		assert.Contains(t, verr.Fields, field)
	}
}

func TestValidateGoalInputs(t *testing.T) {
	assert.NoError(t, ValidateGoalInputs([]models.GoalInput{
		{GoalName: "Meditation", Progress: intPtr(0)},
		{GoalName: "Weight Loss", Progress: intPtr(100)},
		{GoalName: "Quit Smoking"},
	}))

	err := ValidateGoalInputs([]models.GoalInput{{GoalName: "Meditation"}, {GoalName: "Hydration Goals", Progress: intPtr(150)}})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "goals[1].progress")

	err = ValidateGoalInputs([]models.GoalInput{{GoalName: "Meditation", Progress: intPtr(-5)}})
	assert.ErrorIs(t, err, models.ErrValidation)

	err = ValidateGoalInputs([]models.GoalInput{{GoalName: "Meditation"}, {GoalName: " Meditation"}})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must not repeat goalName", verr.Fields["goals"])
}

func TestValidateRegisterInput(t *testing.T) {
	err := Validate(models.RegisterInput{Name: "carol", Email: "not-an-email", Password: "pw"})
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "must be a valid email address", verr.Fields["email"])

	assert.NoError(t, Validate(models.RegisterInput{Name: "carol", Email: "carol@example.com", Password: "pw"}))
}
