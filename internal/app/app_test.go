package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	coredatabase "github.com/m3rciful/dopiumbot/core/database"
	"github.com/m3rciful/dopiumbot/internal/admin"

	tele "gopkg.in/telebot.v4"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaultsAndEnv(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:env")
	t.Setenv("CHANNEL_USERNAME", "dopium_studio")
	path := writeConfig(t, `
telegram:
  token: "123:file"
  admin_id: 42
database:
  path: ":memory:"
studio:
  membership:
    channel_id: "-1001234"
notify:
  group_chat_id: -100777
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:env" {
		t.Fatalf("token = %q, env should win", cfg.Telegram.Token)
	}
	if cfg.Telegram.AdminID != 42 || cfg.Notify.GroupChatID != -100777 {
		t.Fatalf("unexpected telegram/notify: %+v %+v", cfg.Telegram, cfg.Notify)
	}
	if cfg.Studio.Membership.ChannelID != "-1001234" || cfg.Studio.Membership.ChannelUsername != "dopium_studio" {
		t.Fatalf("membership = %+v", cfg.Studio.Membership)
	}
	if cfg.Database.Driver != coredatabase.DriverSQLite || cfg.Telegram.RunMode != "longpoll" {
		t.Fatalf("defaults not applied: %s %s", cfg.Database.Driver, cfg.Telegram.RunMode)
	}
	if cfg.Studio.Timezone != DefaultTimezone || cfg.Location().String() != DefaultTimezone {
		t.Fatalf("timezone = %s / %s", cfg.Studio.Timezone, cfg.Location())
	}
}

func TestLoadRejectsInvalidSections(t *testing.T) {
	cases := map[string]string{
		"http without token": "telegram: {token: x}\nhttp: {listen: \":8080\"}\n",
		"bad timezone":       "telegram: {token: x}\nstudio: {timezone: Mars/Olympus}\n",
		"bad driver":         "telegram: {token: x}\ndatabase: {driver: oracle}\n",
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestLoadDatabaseSkipsTelegramChecks(t *testing.T) {
	db, err := LoadDatabase(writeConfig(t, "database: {path: studio.db}\n"))
	if err != nil {
		t.Fatalf("LoadDatabase: %v", err)
	}
	if db.Driver != coredatabase.DriverSQLite || db.Path != "studio.db" {
		t.Fatalf("db = %+v", db)
	}
}

func openTestDB(t *testing.T) *App {
	t.Helper()
	dbCfg := coredatabase.Config{Driver: coredatabase.DriverSQLite, Path: ":memory:"}
	db, err := coredatabase.Connect(dbCfg)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := coredatabase.RunMigrations(db, dbCfg); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	cfg := &Config{Database: dbCfg}
	cfg.Telegram.Token = "123:test"
	cfg.Telegram.RunMode = "longpoll"
	cfg.Notify.GroupChatID = -100
	a, err := build(cfg, db)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	a.newBot = func() (*tele.Bot, error) {
		return tele.NewBot(tele.Settings{Token: "123:test", Offline: true})
	}
	return a
}

func TestOwnerSeeder(t *testing.T) {
	ctx := context.Background()
	a := openTestDB(t)

	if err := OwnerSeeder(0).Seed(ctx, a.db); err != nil {
		t.Fatalf("seed 0: %v", err)
	}
	if err := OwnerSeeder(99).Seed(ctx, a.db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if ok, _ := a.admins.IsAdmin(ctx, 99); !ok {
		t.Fatalf("owner not seeded")
	}
	if err := a.admins.Remove(ctx, 99); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := OwnerSeeder(99).Seed(ctx, a.db); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if ok, _ := a.admins.IsAdmin(ctx, 99); ok {
		t.Fatalf("reseeding reactivated a removed owner")
	}
	if _, err := a.admins.Get(ctx, 99); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if err := a.admins.Remove(ctx, 1); err == nil {
		t.Fatalf("expected %v", admin.ErrNotFound)
	}
}

func TestTelegramRunOptionsWiresBot(t *testing.T) {
	a := openTestDB(t)
	opts, err := a.TelegramRunOptions()
	if err != nil {
		t.Fatalf("TelegramRunOptions: %v", err)
	}
	defer opts.Dispatcher.Close()

	if opts.Bot == nil || opts.Registry == nil || opts.OnStart == nil || opts.OnStop == nil {
		t.Fatalf("incomplete options: %+v", opts)
	}
	if len(opts.Routes) == 0 || len(opts.Middlewares) == 0 {
		t.Fatalf("routes=%d middlewares=%d", len(opts.Routes), len(opts.Middlewares))
	}
	for _, cmd := range []string{"/start", "/recording", "/cancel", "/admin", "/track"} {
		if _, _, ok := opts.Registry.LookupCommand(cmd); !ok {
			t.Fatalf("command %s not registered", cmd)
		}
	}
	if got := a.staffNotifier(nil).Len(); got != 0 {
		t.Fatalf("staff channels without telegram = %d", got)
	}
}

func TestStaffNotifierSkipsUnconfiguredChannels(t *testing.T) {
	a := &App{cfg: &Config{}}
	a.cfg.Notify.SlackWebhookURL = "https://hooks.slack.com/services/x"
	a.cfg.Notify.Email.APIKey = "re_key"
	staff := a.staffNotifier(nil)
	if staff.Len() != 1 {
		t.Fatalf("channels = %d, want slack only", staff.Len())
	}
}
