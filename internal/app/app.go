// Package app wires configuration, storage, the wizards and the Telegram
// runtime into the studio bot.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dopiumbot/core/bootstrap"
	"github.com/m3rciful/dopiumbot/core/logger"
	coretelegram "github.com/m3rciful/dopiumbot/core/telegram"
	tgsender "github.com/m3rciful/dopiumbot/core/telegram/sender"
	"github.com/m3rciful/dopiumbot/internal/admin"
	"github.com/m3rciful/dopiumbot/internal/booking"
	"github.com/m3rciful/dopiumbot/internal/bot"
	"github.com/m3rciful/dopiumbot/internal/catalog"
	"github.com/m3rciful/dopiumbot/internal/digest"
	"github.com/m3rciful/dopiumbot/internal/flow"
	"github.com/m3rciful/dopiumbot/internal/httpapi"
	"github.com/m3rciful/dopiumbot/internal/membership"
	"github.com/m3rciful/dopiumbot/internal/notify"

	tele "gopkg.in/telebot.v4"
)

// App holds the infrastructure built by Bootstrap.
type App struct {
	cfg     *Config
	db      *sqlx.DB
	store   *booking.Store
	admins  *admin.Repo
	catalog *catalog.Catalog

	// newBot is swapped in tests.
	newBot func() (*tele.Bot, error)

	wg sync.WaitGroup
}

// Bootstrap initialises logging and the database and loads the catalog.
func Bootstrap(ctx context.Context, cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app: nil config")
	}
	res, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:   cfg.CoreConfig(),
		Database: cfg.Database,
		Seeders:  []bootstrap.Seeder{OwnerSeeder(cfg.Telegram.AdminID)},
	})
	if err != nil {
		return nil, err
	}
	return build(cfg, res.DB)
}

func build(cfg *Config, db *sqlx.DB) (*App, error) {
	cat, err := catalog.Load(cfg.Studio.CatalogPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	a := &App{
		cfg:     cfg,
		db:      db,
		store:   booking.NewStore(db),
		admins:  admin.NewRepo(db),
		catalog: cat,
	}
	a.newBot = func() (*tele.Bot, error) { return coretelegram.NewBot(cfg.CoreConfig()) }
	return a, nil
}

// OwnerSeeder makes the configured owner an admin on first start. An owner
// deactivated later through the admin CLI stays deactivated.
func OwnerSeeder(userID int64) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		if userID == 0 {
			return nil
		}
		repo := admin.NewRepo(db)
		_, err := repo.Get(ctx, userID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, admin.ErrNotFound) {
			return err
		}
		return repo.Add(ctx, admin.Admin{UserID: userID, FullName: "owner"})
	})
}

// TelegramRunOptions assembles the bot: wizards, gate, notifiers, admin
// panel, handlers and the background HTTP API and digest.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	core := a.cfg.CoreConfig()
	tb, err := a.newBot()
	if err != nil {
		return coretelegram.RunOptions{}, err
	}
	dispatcher := tgsender.NewDispatcher(tgsender.Options{})
	direct := notify.NewTelegram(tb, dispatcher, a.cfg.Notify.GroupChatID)
	staff := a.staffNotifier(direct)

	var gate flow.Gate
	gateDesc := "off"
	if g := membership.New(tb, a.cfg.Studio.Membership); g.Enabled() {
		gate = g
		gateDesc = g.String()
	}
	mgr := flow.NewManager(flow.Options{
		Gate:          gate,
		Notifier:      staff,
		NotifyTimeout: a.cfg.Notify.Budget(staff.Len()),
	})
	wizards, err := flow.StudioWizards(flow.Deps{Catalog: a.catalog, Store: a.store})
	if err != nil {
		return coretelegram.RunOptions{}, err
	}
	for _, w := range wizards {
		if err := mgr.Register(w); err != nil {
			return coretelegram.RunOptions{}, err
		}
	}

	panel := admin.NewPanel(a.store, direct)
	b, err := bot.New(bot.Options{
		Manager:  mgr,
		Admins:   a.admins,
		Panel:    panel,
		Location: a.cfg.Location(),
	})
	if err != nil {
		return coretelegram.RunOptions{}, err
	}
	reg := coretelegram.NewRegistry()
	if err := b.Register(reg); err != nil {
		return coretelegram.RunOptions{}, err
	}

	return coretelegram.RunOptions{
		Config:      core,
		Registry:    reg,
		Bot:         tb,
		Dispatcher:  dispatcher,
		Middlewares: coretelegram.DefaultMiddlewares(core, b.RateLimited),
		Routes:      b.Routes(reg),
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			logger.Info(ctx, logger.CompApp, "app.wiring",
				slog.String("gate", gateDesc),
				slog.Int("count", staff.Len()),
			)
			return a.startBackground(ctx, panel, staff)
		},
		OnStop: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.wg.Wait()
			return a.Close()
		},
	}, nil
}

// staffNotifier fans new booking notices out to every configured channel.
func (a *App) staffNotifier(direct *notify.Telegram) *notify.Multi {
	var targets []notify.Named
	if direct != nil && a.cfg.Notify.GroupChatID != 0 {
		targets = append(targets, notify.Named{Name: "telegram", Notifier: direct})
	}
	if s := notify.NewSlack(a.cfg.Notify.SlackWebhookURL, a.cfg.Notify.Timeout); s != nil {
		targets = append(targets, notify.Named{Name: "slack", Notifier: s})
	}
	if e := notify.NewEmail(a.cfg.Notify.Email, a.cfg.Notify.Timeout); e != nil {
		targets = append(targets, notify.Named{Name: "email", Notifier: e})
	}
	return notify.NewMulti(targets...)
}

func (a *App) startBackground(ctx context.Context, panel *admin.Panel, staff *notify.Multi) error {
	if a.cfg.Digest.Schedule != "" {
		if staff.Len() == 0 {
			logger.Warn(ctx, logger.CompDigest, "digest.start", slog.String("status", "skip"), slog.String("reason", "no staff channel"))
		} else {
			sched, err := digest.New(a.cfg.Digest.Schedule, a.cfg.Location(), panel, staff)
			if err != nil {
				return err
			}
			a.goRun(ctx, logger.CompDigest, sched.Run)
		}
	}
	if a.cfg.HTTP.Listen != "" {
		a.goRun(ctx, logger.CompHTTP, func(ctx context.Context) error {
			return httpapi.Run(ctx, a.cfg.HTTP, panel)
		})
	}
	return nil
}

func (a *App) goRun(ctx context.Context, comp string, run func(context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := run(ctx); err != nil {
			logger.Error(ctx, comp, comp+".run", logger.Err(err))
		}
	}()
}

// Close releases the database.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}
