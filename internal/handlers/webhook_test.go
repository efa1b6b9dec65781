package handlers

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beefriend/beefriend-api/internal/models"
	"github.com/beefriend/beefriend-api/internal/services"
)

type fakeReplier struct {
	requests []*messaging_api.ReplyMessageRequest
}

func (f *fakeReplier) ReplyMessage(req *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error) {
	f.requests = append(f.requests, req)
	return &messaging_api.ReplyMessageResponse{}, nil
}

// lastText returns the first text message of the latest reply.
func (f *fakeReplier) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.requests)
	req := f.requests[len(f.requests)-1]
	require.NotEmpty(t, req.Messages)
	msg, ok := req.Messages[0].(*messaging_api.TextMessage)
	require.True(t, ok)
	return msg.Text
}

type fakeCompleter struct {
	content string
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content}},
	}}, nil
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		in   string
		want command
	}{
		{"goals", command{kind: cmdGoals}},
		{" LIST ", command{kind: cmdGoals}},
		{"partners", command{kind: cmdPartners}},
		{"Help", command{kind: cmdHelp}},
		{"done Meditation / 5-Minute Mindful Breathing", command{kind: cmdDone, goal: "Meditation", task: "5-Minute Mindful Breathing"}},
		{"undo Weight Loss/Drink 2 liters of water", command{kind: cmdUndo, goal: "Weight Loss", task: "Drink 2 liters of water"}},
		{"done Meditation", command{kind: cmdChat, text: "done Meditation"}},
		{"done / task", command{kind: cmdChat, text: "done / task"}},
		{"done Read/Write / Draft", command{kind: cmdDone, goal: "Read/Write", task: "Draft"}},
		{"goals are hard", command{kind: cmdChat, text: "goals are hard"}},
		{"hello bee", command{kind: cmdChat, text: "hello bee"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseCommand(tc.in), tc.in)
	}
}

func TestGetUserID(t *testing.T) {
	assert.Equal(t, "U1", getUserID(webhook.UserSource{UserId: "U1"}))
	assert.Equal(t, "U2", getUserID(webhook.GroupSource{GroupId: "G", UserId: "U2"}))
	assert.Equal(t, "U3", getUserID(webhook.RoomSource{RoomId: "R", UserId: "U3"}))
	assert.Equal(t, "", getUserID(nil))
}

type webhookFixture struct {
	server  *server
	bot     *fakeReplier
	handler *WebhookHandler
	user    *models.User
}

func newWebhookFixture(t *testing.T, companion *services.Companion) *webhookFixture {
	t.Helper()
	s := newServer()
	ctx := context.Background()

	user, err := s.accounts.Register(ctx, models.RegisterInput{Name: "alice", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	lineID := "U-alice"
	_, err = s.accounts.UpdateProfile(ctx, user.ID, models.ProfileInput{LineUserID: &lineID})
	require.NoError(t, err)
	_, err = s.goals.ReplaceGoals(ctx, user.ID, []models.GoalInput{{GoalName: "Meditation"}})
	require.NoError(t, err)

	bot := &fakeReplier{}
	return &webhookFixture{
		server:  s,
		bot:     bot,
		handler: NewWebhookHandler(bot, "secret", s.accounts, s.goals, s.pairing, companion),
		user:    user,
	}
}

func TestWebhookUnlinkedUser(t *testing.T) {
	f := newWebhookFixture(t, nil)
	require.NoError(t, f.handler.handleText(context.Background(), "token", "U-stranger", "goals"))
	assert.Contains(t, f.bot.lastText(t), "U-stranger")
}

func TestWebhookGoalsAndDone(t *testing.T) {
	f := newWebhookFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.handler.handleText(ctx, "t1", "U-alice", "goals"))
	assert.Contains(t, f.bot.lastText(t), "Meditation (0%)")
	require.Len(t, f.bot.requests[0].Messages, 2)
	flex, ok := f.bot.requests[0].Messages[1].(*messaging_api.FlexMessage)
	require.True(t, ok)
	assert.Equal(t, "Open tasks", flex.AltText)

	require.NoError(t, f.handler.handleText(ctx, "t2", "U-alice", "done Meditation / 5-Minute Mindful Breathing"))
	assert.Contains(t, f.bot.lastText(t), "is at 50%")

	gs, err := f.server.goals.GetGoals(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, gs[0].Tasks[0].IsCompleted)

	require.NoError(t, f.handler.handleText(ctx, "t3", "U-alice", "undo Meditation / 5-Minute Mindful Breathing"))
	assert.Contains(t, f.bot.lastText(t), "is at 0%")

	require.NoError(t, f.handler.handleText(ctx, "t4", "U-alice", "done Meditation / Nope"))
	assert.Contains(t, f.bot.lastText(t), "Could not find task")
}

func TestWebhookLongTaskNames(t *testing.T) {
	f := newWebhookFixture(t, nil)
	ctx := context.Background()
	long := strings.Repeat("x", 1000)
	_, err := f.server.goals.AddTask(ctx, f.user.ID, "Meditation", models.TaskInput{Name: long})
	require.NoError(t, err)

	require.NoError(t, f.handler.handleText(ctx, "t1", "U-alice", "goals"))
	flex := f.bot.requests[0].Messages[1].(*messaging_api.FlexMessage)
	body := flex.Contents.(*messaging_api.FlexBubble).Body
	require.Len(t, body.Contents, 3)

	box := body.Contents[2].(*messaging_api.FlexBox)
	title := box.Contents[0].(*messaging_api.FlexText)
	assert.LessOrEqual(t, utf8.RuneCountInString(title.Text), maxFlexTextRunes)
	action := box.Contents[2].(*messaging_api.FlexButton).Action.(*messaging_api.PostbackAction)
	assert.LessOrEqual(t, len(action.Data), 300)

	// tapping the button completes the long task
	require.NoError(t, f.handler.handlePostback(ctx, "t2", "U-alice", action.Data))
	assert.Contains(t, f.bot.lastText(t), "done!")

	gs, err := f.server.goals.GetGoals(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, gs[0].Tasks[2].IsCompleted)
	assert.Equal(t, long, gs[0].Tasks[2].Name)
}

func TestWebhookPostback(t *testing.T) {
	f := newWebhookFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.handler.handlePostback(ctx, "t1", "U-alice", taskPostback("done", 0, 1)))
	assert.Contains(t, f.bot.lastText(t), "is at 50%")

	gs, err := f.server.goals.GetGoals(ctx, f.user.ID)
	require.NoError(t, err)
	assert.False(t, gs[0].Tasks[0].IsCompleted)
	assert.True(t, gs[0].Tasks[1].IsCompleted)

	require.NoError(t, f.handler.handlePostback(ctx, "t2", "U-alice", taskPostback("done", 3, 0)))
	assert.Contains(t, f.bot.lastText(t), "That task is gone")

	require.NoError(t, f.handler.handlePostback(ctx, "t3", "U-alice", "done Meditation / x"))
	assert.Contains(t, f.bot.lastText(t), "no longer supported")

	require.NoError(t, f.handler.handlePostback(ctx, "t4", "U-stranger", taskPostback("done", 0, 0)))
	assert.Contains(t, f.bot.lastText(t), "not linked")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "密密…", truncate("密密密密", 3))
}

func TestWebhookPartners(t *testing.T) {
	f := newWebhookFixture(t, nil)
	ctx := context.Background()

	require.NoError(t, f.handler.handleText(ctx, "t1", "U-alice", "partners"))
	assert.Equal(t, "No partners share your goals yet.", f.bot.lastText(t))

	bob, err := f.server.accounts.Register(ctx, models.RegisterInput{Name: "bob", Email: "bob@example.com", Password: "pw"})
	require.NoError(t, err)
	_, err = f.server.goals.ReplaceGoals(ctx, bob.ID, []models.GoalInput{{GoalName: "Meditation"}})
	require.NoError(t, err)

	require.NoError(t, f.handler.handleText(ctx, "t2", "U-alice", "partners"))
	assert.Contains(t, f.bot.lastText(t), "1. bob (Meditation)")
}

func TestWebhookChat(t *testing.T) {
	t.Run("without companion", func(t *testing.T) {
		f := newWebhookFixture(t, nil)
		require.NoError(t, f.handler.handleText(context.Background(), "t1", "U-alice", "hello"))
		assert.Empty(t, f.bot.requests)
	})

	t.Run("with companion", func(t *testing.T) {
		companion := services.NewCompanionWithClient(&fakeCompleter{content: "Bzz, hello!"}, "")
		f := newWebhookFixture(t, companion)
		require.NoError(t, f.handler.handleText(context.Background(), "t1", "U-alice", "hello"))
		assert.Equal(t, "Bzz, hello!", f.bot.lastText(t))
	})
}
