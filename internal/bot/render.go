package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"

	"github.com/m3rciful/todobot/internal/bot/helpers"
	"github.com/m3rciful/todobot/internal/domain"
	"github.com/m3rciful/todobot/internal/logger"
	"github.com/m3rciful/todobot/internal/pagination"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// renderListing sends one message per todo on the requested page plus a
// navigation footer, after deleting whatever listing was rendered in the
// chat before. Item messages are sent synchronously because their IDs
// must be tracked for the next re-render.
func (b *Bot) renderListing(ctx context.Context, c tele.Context, userID int64, requested int) error {
	todos, err := b.todos.ListOrdered(ctx, userID)
	if err != nil {
		_ = helpers.SendText(c, msgGenericError)
		return err
	}
	page := pagination.Paginate(todos, requested, b.pageSize)

	chat := c.Chat()
	if chat == nil {
		return nil
	}
	b.deleteRendered(ctx, c, chat.ID)

	if page.Empty() {
		return helpers.SendText(c, msgNoTodos)
	}

	ids := make([]int, 0, len(page.Items)+1)
	for _, t := range page.Items {
		var markup *tele.ReplyMarkup
		if !t.Done() {
			markup = InlineButtons([]InlineBtn{{
				Text:   "✅ Done",
				Unique: cbDoneTodo,
				Data:   strconv.FormatInt(t.ID, 10),
			}})
		}
		msg, err := c.Bot().Send(chat, renderItem(t), &tele.SendOptions{
			ParseMode:   tele.ModeHTML,
			ReplyMarkup: markup,
		})
		if err != nil {
			logger.Warn(ctx, "tg", "render.item.failed",
				slog.Int64("todo_id", t.ID),
				slog.String("err", err.Error()),
			)
			continue
		}
		ids = append(ids, msg.ID)
	}

	var navRow []InlineBtn
	if page.HasPrevious {
		navRow = append(navRow, InlineBtn{
			Text:   "⬅️ Prev",
			Unique: cbListPage,
			Data:   strconv.Itoa(page.Previous),
		})
	}
	if page.HasNext {
		navRow = append(navRow, InlineBtn{
			Text:   "Next ➡️",
			Unique: cbListPage,
			Data:   strconv.Itoa(page.Next),
		})
	}
	var navMarkup *tele.ReplyMarkup
	if len(navRow) > 0 {
		navMarkup = InlineButtonsRows(navRow)
	}

	summary := fmt.Sprintf(msgPageSummary, page.Number, page.TotalPages, page.TotalItems)
	msg, err := c.Bot().Send(chat, summary, &tele.SendOptions{ReplyMarkup: navMarkup})
	if err != nil {
		logger.Warn(ctx, "tg", "render.nav.failed", slog.String("err", err.Error()))
	} else {
		ids = append(ids, msg.ID)
	}

	b.renders.replace(chat.ID, ids)

	logger.Info(ctx, "tg", "todos.rendered",
		slog.Int("page", page.Number),
		slog.Int("pages", page.TotalPages),
		slog.Int("todos_shown", len(page.Items)),
		slog.Int("todos_total", page.TotalItems),
	)
	return nil
}

// deleteRendered removes the previously rendered listing from the chat.
// Failures are expected (messages may be gone already) and only traced.
func (b *Bot) deleteRendered(ctx context.Context, c tele.Context, chatID int64) {
	for _, id := range b.renders.take(chatID) {
		stored := &tele.StoredMessage{MessageID: strconv.Itoa(id), ChatID: chatID}
		if err := c.Bot().Delete(stored); err != nil {
			logger.Debug(ctx, "tg", "render.delete.failed",
				slog.Int("message_id", id),
				slog.String("err", err.Error()),
			)
		}
	}
}

func renderItem(t domain.Todo) string {
	due := t.DueDate.Format("02 Jan 2006")
	if t.Done() {
		return fmt.Sprintf("✅ <s>%s</s>\n📅 %s", html.EscapeString(t.Text), due)
	}
	return fmt.Sprintf("☐ %s\n📅 %s", html.EscapeString(t.Text), due)
}
