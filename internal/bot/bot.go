// Package bot wires the Telegram surface: command registry, routes,
// middleware chain, and the long-running update loop.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m3rciful/todobot/internal/bot/helpers"
	"github.com/m3rciful/todobot/internal/bot/middleware"
	"github.com/m3rciful/todobot/internal/bot/sender"
	"github.com/m3rciful/todobot/internal/config"
	"github.com/m3rciful/todobot/internal/logger"
	"github.com/m3rciful/todobot/internal/service"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Options carries the dependencies a Bot needs.
type Options struct {
	Config *config.Config
	Users  *service.UserService
	Todos  *service.TodoService

	DispatcherOptions sender.Options
}

// Bot owns the Telegram-facing state of the application.
type Bot struct {
	cfg      *config.Config
	users    *service.UserService
	todos    *service.TodoService
	reg      *Registry
	locks    *userLocks
	renders  *renderTracker
	pageSize int

	dispatcherOpts sender.Options
}

// New builds a Bot and registers its commands and callbacks.
func New(opts Options) (*Bot, error) {
	if opts.Config == nil {
		return nil, errors.New("bot: nil config")
	}
	if opts.Users == nil || opts.Todos == nil {
		return nil, errors.New("bot: missing services")
	}

	b := &Bot{
		cfg:            opts.Config,
		users:          opts.Users,
		todos:          opts.Todos,
		reg:            NewRegistry(),
		locks:          newUserLocks(),
		renders:        newRenderTracker(),
		pageSize:       opts.Config.Todos.PageSize,
		dispatcherOpts: opts.DispatcherOptions,
	}

	b.reg.RegisterCommand("/start", Command{
		Handler:     b.handleStart,
		Description: "Start the bot",
	})
	b.reg.RegisterCommand("/todo", Command{
		Handler:     b.handleTodo,
		Description: "Add a new todo",
	})
	b.reg.RegisterCommand("/get_todos", Command{
		Handler:     b.handleGetTodos,
		Description: "List your todos",
	})
	b.reg.RegisterCommand("/get_users", Command{
		Handler:     b.handleGetUsers,
		Description: "List known users",
	})
	b.reg.RegisterCommand("/post_users", Command{
		Handler:     b.handlePostUsers,
		Description: "Insert a user record",
		AdminOnly:   true,
		Hidden:      true,
	})

	if err := b.reg.RegisterCallback(cbDoneTodo, b.handleDoneTodo); err != nil {
		return nil, err
	}
	if err := b.reg.RegisterCallback(cbListPage, b.handleListPage); err != nil {
		return nil, err
	}

	return b, nil
}

// middlewares builds the shared global middleware chain.
func (b *Bot) middlewares() []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}

	interval := time.Duration(b.cfg.RateLimit.IntervalMS) * time.Millisecond
	if interval > 0 {
		ex := make(map[string]struct{}, len(b.cfg.RateLimit.ExcludeUpdates))
		for _, t := range b.cfg.RateLimit.ExcludeUpdates {
			ex[strings.ToLower(t)] = struct{}{}
		}
		mws = append(mws, Middleware{
			Name: "rate_limit",
			Use: middleware.RateLimitMiddleware(middleware.RateLimitOptions{
				Interval: interval,
				Exclude:  ex,
			}),
		})
	}

	mws = append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
	return mws
}

// Run starts the bot and blocks until the context is cancelled or the
// update loop stops on its own.
func (b *Bot) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := b.cfg

	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})

	buildStart := time.Now()
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: BuildHTTPClient(),
		OnError: func(err error, c tele.Context) {
			attrs := []slog.Attr{slog.String("err", logger.SanitizeLimit(err.Error(), 256))}
			if c != nil {
				attrs = append(attrs, slog.Int("update_id", c.Update().ID))
			}
			logger.TG.LogAttrs(logger.Background(), slog.LevelError, "handler error", attrs...)
		},
	})
	if err != nil {
		return fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	buildTook := time.Since(buildStart)

	dispatcher := sender.NewDispatcher(b.dispatcherOpts)
	helpers.SetDispatcher(dispatcher)
	defer func() {
		dispatcher.Close()
		helpers.SetDispatcher(nil)
	}()

	switch p := poller.(type) {
	case *tele.Webhook:
		logger.TG.LogAttrs(ctx, slog.LevelInfo, "webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Duration("duration", logger.RoundMS(buildTook)),
		)
	default:
		timeoutSec := cfg.Telegram.LongPollTimeoutSeconds
		if timeoutSec <= 0 {
			timeoutSec = 10
		}
		logger.TG.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
			slog.Int("timeout_seconds", timeoutSec),
			slog.Duration("duration", logger.RoundMS(buildTook)),
		)

		if strings.EqualFold(cfg.Telegram.RunMode, config.RunModeLongpoll) {
			if err := deleteWebhook(cfg.Telegram.Token); err != nil {
				logger.TG.Warn("failed to delete webhook",
					slog.String("event", "delete_webhook"),
					slog.String("mode", "polling"),
					slog.String("err", err.Error()),
				)
			}
		}
	}

	for _, mw := range b.middlewares() {
		tb.Use(mw.Use)
	}

	routes := b.commandRoutes()
	routes = append(routes, b.textRoute(), b.callbackRoute())
	for _, route := range routes {
		if route.Endpoint == nil || route.Handler == nil {
			continue
		}
		tb.Handle(route.Endpoint, route.Handler)
	}

	InitBotCommands(tb, b.reg)

	runDone := make(chan struct{})
	go func() {
		tb.Start()
		close(runDone)
	}()

	select {
	case <-ctx.Done():
		tb.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

// deleteWebhook drops a previously registered webhook so long polling can
// receive updates.
func deleteWebhook(token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url,
		strings.NewReader("drop_pending_updates=false"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
