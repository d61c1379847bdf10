package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/m3rciful/todobot/internal/bot/helpers"
	"github.com/m3rciful/todobot/internal/domain"
	"github.com/m3rciful/todobot/internal/logger"
	"github.com/m3rciful/todobot/internal/service"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// handleStart registers the sender on first contact and greets them.
func (b *Bot) handleStart(c tele.Context) error {
	sender := c.Sender()
	ctx := helpers.BuildContext(c)

	u, _, err := b.users.GetOrCreate(ctx, sender.ID, displayName(sender))
	if err != nil {
		_ = helpers.SendText(c, msgGenericError)
		return err
	}
	return helpers.SendHTML(c, fmt.Sprintf(msgGreeting, html.EscapeString(u.Username)))
}

// handleTodo creates a todo from the command argument, or opens a session
// and prompts for the text when the command arrives bare.
func (b *Bot) handleTodo(c tele.Context) error {
	sender := c.Sender()
	unlock := b.locks.lock(sender.ID)
	defer unlock()

	ctx := helpers.BuildContext(c)
	if _, _, err := b.users.GetOrCreate(ctx, sender.ID, displayName(sender)); err != nil {
		_ = helpers.SendText(c, msgGenericError)
		return err
	}

	if text := strings.TrimSpace(c.Message().Payload); text != "" {
		return b.createTodo(ctx, c, sender.ID, text)
	}

	if err := b.users.OpenSession(ctx, sender.ID, domain.CommandTodo); err != nil {
		_ = helpers.SendText(c, msgGenericError)
		return err
	}
	return helpers.SendText(c, msgTodoPrompt)
}

// handleTodoText consumes free text as the continuation of an open todo session.
func (b *Bot) handleTodoText(c tele.Context, text string) error {
	return b.createTodo(helpers.BuildContext(c), c, c.Sender().ID, text)
}

func (b *Bot) createTodo(ctx context.Context, c tele.Context, userID int64, text string) error {
	t, err := b.todos.Create(ctx, userID, text)
	if err != nil {
		if errors.Is(err, service.ErrEmptyText) {
			return helpers.SendText(c, msgEmptyTodo)
		}
		_ = helpers.SendText(c, msgGenericError)
		return err
	}
	return helpers.SendHTML(c, fmt.Sprintf(msgTodoCreated,
		html.EscapeString(t.Text), t.DueDate.Format("02 Jan 2006")))
}

// handleGetTodos renders a page of the sender's todos. The optional
// argument selects the page; anything non-numeric is a usage error.
func (b *Bot) handleGetTodos(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	page := 1
	if arg := strings.TrimSpace(c.Message().Payload); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return helpers.SendText(c, msgGetTodosUsage)
		}
		page = n
	}
	return b.renderListing(ctx, c, c.Sender().ID, page)
}

// handleGetUsers lists every known user.
func (b *Bot) handleGetUsers(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	users, err := b.users.List(ctx)
	if err != nil {
		_ = helpers.SendText(c, msgGenericError)
		return err
	}
	if len(users) == 0 {
		return helpers.SendText(c, msgNoUsers)
	}

	var sb strings.Builder
	sb.WriteString("Known users:\n")
	for _, u := range users {
		fmt.Fprintf(&sb, "• %d — %s\n", u.ID, html.EscapeString(u.Username))
	}
	return helpers.SendHTML(c, sb.String())
}

// handlePostUsers inserts or renames a user record from "<id> <username>".
func (b *Bot) handlePostUsers(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	fields := strings.Fields(c.Message().Payload)
	if len(fields) < 2 {
		return helpers.SendText(c, msgPostUsersUsage)
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return helpers.SendText(c, msgPostUsersUsage)
	}
	username := strings.Join(fields[1:], " ")

	u, err := b.users.Insert(ctx, id, username)
	if err != nil {
		_ = helpers.SendText(c, msgGenericError)
		return err
	}
	return helpers.SendHTML(c, fmt.Sprintf(msgUserSaved, u.ID, html.EscapeString(u.Username)))
}

// handleUnknownUser nudges senders the bot has never seen toward /start.
func (b *Bot) handleUnknownUser(c tele.Context) error {
	return helpers.SendText(c, msgUnknownUser)
}

// handleFallbackText answers free text that matched neither a command nor
// an open session.
func (b *Bot) handleFallbackText(c tele.Context) error {
	return helpers.SendText(c, msgFallbackText)
}

// handleDoneTodo completes the todo named in the callback payload and
// rewrites the originating message. A vanished todo produces a transient
// notice for the presser and nothing else.
func (b *Bot) handleDoneTodo(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	id, err := PayloadInt64(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgUnsupportedAction})
	}

	t, err := b.todos.MarkDone(ctx, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			logger.Warn(ctx, "tg", "todo.done.missing", slog.Int64("todo_id", id))
			return c.Respond(&tele.CallbackResponse{Text: msgTodoMissing})
		}
		return err
	}

	if err := helpers.EditHTML(c, renderItem(t)); err != nil {
		logger.Warn(ctx, "tg", "todo.done.edit_failed",
			slog.Int64("todo_id", t.ID),
			slog.String("err", err.Error()),
		)
	}
	return c.Respond(&tele.CallbackResponse{Text: msgDoneAck})
}

// handleListPage re-renders the listing at the requested page, replacing
// the previously rendered one.
func (b *Bot) handleListPage(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	page, err := PayloadInt(c)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgUnsupportedAction})
	}
	if err := b.renderListing(ctx, c, c.Sender().ID, page); err != nil {
		return err
	}
	return c.Respond()
}

func displayName(u *tele.User) string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name != "" {
		return name
	}
	return strconv.FormatInt(u.ID, 10)
}
