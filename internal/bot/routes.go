package bot

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/todobot/internal/bot/helpers"
	"github.com/m3rciful/todobot/internal/bot/middleware"
	"github.com/m3rciful/todobot/internal/domain"
	"github.com/m3rciful/todobot/internal/logger"
	"github.com/m3rciful/todobot/internal/service"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// commandRoutes prepares command handlers wrapped with shared middleware.
func (b *Bot) commandRoutes() []Route {
	adminOpts := middleware.AdminOptions{
		AdminID: b.cfg.Telegram.AdminID,
		OnReject: func(c tele.Context) error {
			return helpers.SendText(c, "This command is restricted.")
		},
	}

	routes := make([]Route, 0, len(b.reg.Commands()))
	for cmd, def := range b.reg.Commands() {
		name := normalizeHandlerName(cmd)
		h := b.withSummary(name, def.Handler)
		h = middleware.RecoverMiddleware(h)
		h = middleware.LoggerMiddleware(h)
		if def.AdminOnly {
			h = middleware.AdminOnlyMiddleware(adminOpts)(h)
		}
		routes = append(routes, Route{Endpoint: cmd, Handler: h})
	}

	logger.TWire.Info("tg.wire",
		slog.String("event", "complete"),
		slog.Int("commands", len(b.reg.Commands())),
		slog.Int("callbacks", len(b.reg.ListCallbacks())),
	)

	return routes
}

// textRoute routes free text: a command lookup first, then the open todo
// session, then the help fallback. Recognized commands always win over a
// pending continuation.
func (b *Bot) textRoute() Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		// Command handlers acquire the per-user lock themselves, so the
		// lookup must dispatch before this route takes it.
		if key, cmd, ok := b.reg.LookupCommand(text); ok && cmd.Handler != nil {
			return handleWithSummary(c, normalizeHandlerName(key), start, func() error {
				return cmd.Handler(c)
			})
		}

		unlock := b.locks.lock(sender.ID)
		defer unlock()

		ctx := helpers.BuildContext(c)
		user, err := b.users.Get(ctx, sender.ID)
		switch {
		case errors.Is(err, service.ErrNotFound):
			return handleWithSummary(c, "text.bootstrap", start, func() error {
				return b.handleUnknownUser(c)
			})
		case err != nil:
			logHandlerSummary(c, "text", start, "", "", err)
			return helpers.SendText(c, msgGenericError)
		}

		if user.Awaiting() && user.ActiveCommand == domain.CommandTodo {
			return handleWithSummary(c, "todo.continuation", start, func() error {
				return b.handleTodoText(c, text)
			})
		}

		return handleWithSummary(c, "text.fallback", start, func() error {
			return b.handleFallbackText(c)
		})
	}

	return Route{
		Endpoint: tele.OnText,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

// callbackRoute dispatches callbacks through the registry. Every press is
// answered exactly once: handlers own the success and not-found responses,
// the route covers unknown keys and unexpected failures. Errors never
// propagate to telebot, so one bad press cannot stall the update loop.
func (b *Bot) callbackRoute() Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key := CallbackKey(c)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		cbHandler, ok := b.reg.GetCallback(key)
		if !ok || cbHandler == nil {
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, func() error {
				return b.reg.CallbackNotFound()(c)
			}, extras...)
		}

		err := handleWithSummary(c, name, start, func() error {
			return cbHandler(c)
		}, extras...)
		if err != nil {
			_ = c.Respond(&tele.CallbackResponse{Text: msgGenericError})
		}
		return nil
	}

	return Route{
		Endpoint: tele.OnCallback,
		Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
	}
}

// withSummary wraps a handler so its outcome is logged as a single summary line.
func (b *Bot) withSummary(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		return handleWithSummary(c, name, start, func() error {
			return h(c)
		})
	}
}

func handleWithSummary(c tele.Context, handlerName string, start time.Time, fn func() error, extras ...slog.Attr) error {
	helpers.WithHandler(c, handlerName)
	err := fn()
	logHandlerSummary(c, handlerName, start, "", "", err, extras...)
	return err
}

func logHandlerSummary(c tele.Context, handlerName string, start time.Time, statusOverride, outcomeOverride string, err error, extras ...slog.Attr) {
	ctx := helpers.WithHandler(c, handlerName)
	msgs, kb := middleware.GetCounters(c)

	status := statusOverride
	if status == "" {
		status = logger.Status(err)
	}
	outcome := outcomeOverride
	if outcome == "" {
		outcome = logger.Status(err)
	}

	duration := logger.RoundMS(time.Since(start)).Milliseconds()
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", handlerName),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Int64("duration_ms", duration),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", handlerName),
		)
	}
	if len(extras) > 0 {
		attrs = append(attrs, extras...)
	}
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, service.ErrEmptyText):
		return "EMPTY_TEXT"
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(strings.ReplaceAll(t.Name(), " ", "_"))
	}
	return "UNKNOWN_ERROR"
}
