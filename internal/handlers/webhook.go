package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/beefriend/beefriend-api/internal/models"
	"github.com/beefriend/beefriend-api/internal/services"
)

// LINE message limits.
const (
	maxButtonsPerMsg = 5
	maxTextLength    = 5000
	maxFlexTextRunes = 100
)

// Replier is the part of the LINE messaging client the webhook uses.
type Replier interface {
	ReplyMessage(replyMessageRequest *messaging_api.ReplyMessageRequest) (*messaging_api.ReplyMessageResponse, error)
}

// WebhookHandler lets a linked LINE account check goals, tick off tasks,
// find partners and talk to the companion.
type WebhookHandler struct {
	bot           Replier
	channelSecret string
	accounts      *services.AccountService
	goals         *services.GoalService
	pairing       *services.PairingService
	companion     *services.Companion
}

func NewWebhookHandler(bot Replier, channelSecret string, accounts *services.AccountService, goalSvc *services.GoalService, pairing *services.PairingService, companion *services.Companion) *WebhookHandler {
	return &WebhookHandler{
		bot:           bot,
		channelSecret: channelSecret,
		accounts:      accounts,
		goals:         goalSvc,
		pairing:       pairing,
		companion:     companion,
	}
}

func getUserID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	default:
		return ""
	}
}

func (h *WebhookHandler) HandleWebhook(c echo.Context) error {
	cb, err := webhook.ParseRequest(h.channelSecret, c.Request())
	if err != nil {
		if err == webhook.ErrInvalidSignature {
			log.Println("Invalid signature")
			return c.NoContent(http.StatusBadRequest)
		}
		log.Printf("Parse request error: %v", err)
		return c.NoContent(http.StatusInternalServerError)
	}

	ctx := c.Request().Context()
	for _, event := range cb.Events {
		switch e := event.(type) {
		case webhook.MessageEvent:
			switch message := e.Message.(type) {
			case webhook.TextMessageContent:
				userID := getUserID(e.Source)
				if err := h.handleText(ctx, e.ReplyToken, userID, message.Text); err != nil {
					log.Printf("Error handling text message: %v", err)
				}
			}
		case webhook.PostbackEvent:
			userID := getUserID(e.Source)
			if err := h.handlePostback(ctx, e.ReplyToken, userID, e.Postback.Data); err != nil {
				log.Printf("Error handling postback: %v", err)
			}
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type commandKind int

const (
	cmdChat commandKind = iota
	cmdGoals
	cmdDone
	cmdUndo
	cmdPartners
	cmdHelp
)

type command struct {
	kind commandKind
	goal string
	task string
	text string
}

// parseCommand recognizes the chat commands. Keywords are case-insensitive;
// task commands take "<goal> / <task>", split at the first " / " when
// present. Anything else is chat.
func parseCommand(text string) command {
	text = strings.TrimSpace(text)
	word, rest, _ := strings.Cut(text, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(word) {
	case "goals", "list":
		if rest == "" {
			return command{kind: cmdGoals}
		}
	case "partners":
		if rest == "" {
			return command{kind: cmdPartners}
		}
	case "help":
		if rest == "" {
			return command{kind: cmdHelp}
		}
	case "done", "undo":
		goal, task, ok := strings.Cut(rest, " / ")
		if !ok {
			goal, task, ok = strings.Cut(rest, "/")
		}
		goal, task = strings.TrimSpace(goal), strings.TrimSpace(task)
		if ok && goal != "" && task != "" {
			kind := cmdDone
			if strings.EqualFold(word, "undo") {
				kind = cmdUndo
			}
			return command{kind: kind, goal: goal, task: task}
		}
	}
	return command{kind: cmdChat, text: text}
}

// linkedUser resolves the account of a LINE user. When there is none it
// replies itself and returns a nil user.
func (h *WebhookHandler) linkedUser(ctx context.Context, replyToken, lineUserID string) (*models.User, error) {
	user, err := h.accounts.GetByLineID(ctx, lineUserID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, h.replyMessage(replyToken, fmt.Sprintf(
			"🐝 This LINE account is not linked yet.\nSet your LINE ID in your BeeFriend profile:\n%s", lineUserID))
	}
	if err != nil {
		log.Printf("Failed to look up LINE user %s: %v", lineUserID, err)
		return nil, h.replyMessage(replyToken, "Something went wrong. Please try again later.")
	}
	return user, nil
}

func (h *WebhookHandler) handleText(ctx context.Context, replyToken, lineUserID, text string) error {
	log.Printf("Received text: '%s'", text)

	user, err := h.linkedUser(ctx, replyToken, lineUserID)
	if user == nil {
		return err
	}

	cmd := parseCommand(text)
	switch cmd.kind {
	case cmdGoals:
		return h.showGoals(replyToken, user)
	case cmdDone, cmdUndo:
		return h.setTask(ctx, replyToken, user, cmd.goal, cmd.task, cmd.kind == cmdDone)
	case cmdPartners:
		return h.showPartners(ctx, replyToken, user)
	case cmdHelp:
		return h.showHelp(replyToken)
	}

	// unrecognized text without a companion gets no reply
	if h.companion == nil || cmd.text == "" {
		return nil
	}
	reply, err := h.companion.Reply(ctx, user, cmd.text)
	if err != nil {
		log.Printf("Companion reply failed for user %s: %v", user.ID, err)
		return h.replyMessage(replyToken, "BeeFriend is buzzing elsewhere right now. Try again soon!")
	}
	return h.replyMessage(replyToken, reply)
}

// taskPostback encodes a task button by position. Names can exceed the
// 300-character postback limit.
func taskPostback(action string, goalIndex, taskIndex int) string {
	return url.Values{
		"action": {action},
		"goal":   {strconv.Itoa(goalIndex)},
		"task":   {strconv.Itoa(taskIndex)},
	}.Encode()
}

func (h *WebhookHandler) handlePostback(ctx context.Context, replyToken, lineUserID, data string) error {
	log.Printf("Received postback: '%s'", data)

	values, err := url.ParseQuery(data)
	if err != nil || values.Get("action") != "done" {
		return h.replyMessage(replyToken, "Sorry, that button is no longer supported.")
	}
	goalIndex, gerr := strconv.Atoi(values.Get("goal"))
	taskIndex, terr := strconv.Atoi(values.Get("task"))
	if gerr != nil || terr != nil {
		return h.replyMessage(replyToken, "Sorry, that button is no longer supported.")
	}

	user, err := h.linkedUser(ctx, replyToken, lineUserID)
	if user == nil {
		return err
	}

	if goalIndex < 0 || goalIndex >= len(user.Goals) || taskIndex < 0 || taskIndex >= len(user.Goals[goalIndex].Tasks) {
		return h.replyMessage(replyToken, "That task is gone. Send \"goals\" for a fresh list.")
	}
	g := user.Goals[goalIndex]
	return h.setTask(ctx, replyToken, user, g.GoalName, g.Tasks[taskIndex].Name, true)
}

func (h *WebhookHandler) showGoals(replyToken string, user *models.User) error {
	if len(user.Goals) == 0 {
		return h.replyMessage(replyToken, "You have no goals yet. Pick some in the BeeFriend app!")
	}

	var lines []string
	for i, g := range user.Goals {
		lines = append(lines, fmt.Sprintf("%d. %s (%d%%)", i+1, g.GoalName, g.Progress))
		for _, t := range g.Tasks {
			mark := "⬜"
			if t.IsCompleted {
				mark = "✅"
			}
			lines = append(lines, fmt.Sprintf("   %s %s", mark, truncate(t.Name, maxFlexTextRunes)))
		}
	}

	_, err := h.bot.ReplyMessage(
		&messaging_api.ReplyMessageRequest{
			ReplyToken: replyToken,
			Messages: []messaging_api.MessageInterface{
				&messaging_api.TextMessage{
					Text: truncate(fmt.Sprintf("📝 Your goals (%d)\n\n%s", len(user.Goals), strings.Join(lines, "\n")), maxTextLength),
				},
				h.createTaskFlexMessage(user.Goals),
			},
		},
	)
	return err
}

// createTaskFlexMessage offers a button per open task.
func (h *WebhookHandler) createTaskFlexMessage(gs []models.Goal) *messaging_api.FlexMessage {
	var contents []messaging_api.FlexComponentInterface

	for gi, g := range gs {
		for ti, t := range g.Tasks {
			if t.IsCompleted || len(contents) >= maxButtonsPerMsg {
				continue
			}

			box := &messaging_api.FlexBox{
				Layout: "vertical",
				Contents: []messaging_api.FlexComponentInterface{
					&messaging_api.FlexText{
						Text:   truncate(t.Name, maxFlexTextRunes),
						Weight: "bold",
						Size:   "md",
						Wrap:   true,
					},
					&messaging_api.FlexText{
						Text:  g.GoalName,
						Size:  "sm",
						Color: "#999999",
					},
					&messaging_api.FlexButton{
						Action: &messaging_api.PostbackAction{
							Label: "Done",
							Data:  taskPostback("done", gi, ti),
						},
						Style: "primary",
						Color: "#F5B700",
					},
				},
				Margin:  "md",
				Spacing: "sm",
			}

			if len(contents) > 0 {
				box.PaddingTop = "md"
			}
			contents = append(contents, box)
		}
	}

	if len(contents) == 0 {
		contents = append(contents, &messaging_api.FlexText{Text: "All tasks done! 🎉", Size: "md"})
	}

	return &messaging_api.FlexMessage{
		AltText: "Open tasks",
		Contents: &messaging_api.FlexBubble{
			Header: &messaging_api.FlexBox{
				Layout: "vertical",
				Contents: []messaging_api.FlexComponentInterface{
					&messaging_api.FlexText{
						Text:   "Open tasks",
						Weight: "bold",
						Size:   "xl",
					},
				},
				PaddingAll: "md",
			},
			Body: &messaging_api.FlexBox{
				Layout:   "vertical",
				Contents: contents,
				Spacing:  "md",
			},
		},
	}
}

func (h *WebhookHandler) setTask(ctx context.Context, replyToken string, user *models.User, goalName, taskName string, done bool) error {
	g, err := h.goals.SetTaskCompletion(ctx, user.ID, goalName, taskName, done)
	if errors.Is(err, models.ErrNotFound) {
		return h.replyMessage(replyToken, fmt.Sprintf("Could not find task \"%s\" in goal \"%s\".", taskName, goalName))
	}
	if err != nil {
		log.Printf("Failed to update task for user %s: %v", user.ID, err)
		return h.replyMessage(replyToken, "Failed to update the task.")
	}

	if done {
		return h.replyMessage(replyToken, fmt.Sprintf("🎉 \"%s\" done! %s is at %d%%.", taskName, g.GoalName, g.Progress))
	}
	return h.replyMessage(replyToken, fmt.Sprintf("↩️ \"%s\" reopened. %s is at %d%%.", taskName, g.GoalName, g.Progress))
}

func (h *WebhookHandler) showPartners(ctx context.Context, replyToken string, user *models.User) error {
	matches, err := h.pairing.FindPartners(ctx, user.ID, nil)
	if err != nil {
		log.Printf("Failed to find partners for user %s: %v", user.ID, err)
		return h.replyMessage(replyToken, "Failed to look for partners.")
	}

	if len(matches) == 0 {
		return h.replyMessage(replyToken, "No partners share your goals yet.")
	}

	var lines []string
	for i, m := range matches {
		lines = append(lines, fmt.Sprintf("%d. %s (%s)", i+1, m.User.Name, strings.Join(m.SharedGoals, ", ")))
	}
	return h.replyMessage(replyToken, fmt.Sprintf("🤝 Partners (%d)\n\n%s", len(matches), strings.Join(lines, "\n")))
}

func (h *WebhookHandler) showHelp(replyToken string) error {
	helpText := `🐝 BeeFriend commands

📋 Show your goals:
・goals

✅ Finish a task:
・done <goal> / <task>
・e.g. done Meditation / 5-Minute Mindful Breathing

↩️ Reopen a task:
・undo <goal> / <task>

🤝 Find partners with the same goals:
・partners

❓ Help:
・help

💬 Anything else is a chat with BeeFriend.`

	return h.replyMessage(replyToken, helpText)
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

func (h *WebhookHandler) replyMessage(replyToken, text string) error {
	log.Printf("Sending reply: '%s'", text)

	message := &messaging_api.TextMessage{
		Text: truncate(text, maxTextLength),
	}

	_, err := h.bot.ReplyMessage(
		&messaging_api.ReplyMessageRequest{
			ReplyToken: replyToken,
			Messages:   []messaging_api.MessageInterface{message},
		},
	)

	if err != nil {
		log.Printf("Failed to send reply message: %v", err)
	}

	return err
}
