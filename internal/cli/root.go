// Package cli is the storyclient command line: one cobra command per user intent, each run
// against a client restored from the configured credential store.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-story-client/client"
	"github.com/jrsteele09/go-story-client/gateway"
	"github.com/jrsteele09/go-story-client/gateway/httpgateway"
	"github.com/jrsteele09/go-story-client/internal/config"
	"github.com/jrsteele09/go-story-client/internal/logging"
	"github.com/jrsteele09/go-story-client/render"
	"github.com/jrsteele09/go-story-client/sessions"
	"github.com/jrsteele09/go-story-client/sessions/redisstore"
	fakestore "github.com/jrsteele09/go-story-client/sessions/repofakes"
	"github.com/jrsteele09/go-story-client/sessions/sqlitestore"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

type App struct {
	ConfigFile string
	ServerURL  string
	DataDir    string
	Store      string
	RedisAddr  string
	Verbose    bool

	config config.Config

	// injected by tests
	gateway gateway.Gateway
	store   sessions.Store
}

type Option func(*App)

// WithGateway replaces the HTTP gateway built from --server.
func WithGateway(gw gateway.Gateway) Option {
	return func(a *App) {
		a.gateway = gw
	}
}

// WithStore replaces the credential store selected by --store.
func WithStore(store sessions.Store) Option {
	return func(a *App) {
		a.store = store
	}
}

func NewRootCmd(options ...Option) *cobra.Command {
	app := &App{config: config.New()}
	for _, opt := range options {
		opt(app)
	}

	cmd := &cobra.Command{
		Use:          "storyclient",
		Short:        "Read, submit and favorite stories from the command line",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # List every story, then only yours
  storyclient stories
  storyclient stories own

  # Log in once; the session is restored on every later run
  storyclient login -u alice -p 'Passw0rd'

  # Star a story
  storyclient favorite <story-id>
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.LoadFile(app.ConfigFile); err != nil {
			return errors.Wrap(err, "loading config file")
		}
		flags := cmd.Flags()
		if !flags.Changed("server") {
			app.ServerURL = app.config.GetServerURL()
		}
		if !flags.Changed("data-dir") {
			app.DataDir = app.config.GetDataFolder()
		}
		if !flags.Changed("store") {
			app.Store = app.config.GetCredentialStore()
		}
		if !flags.Changed("redis-addr") {
			app.RedisAddr = app.config.GetRedisAddr()
		}

		level := app.config.GetLogLevel()
		if app.Verbose {
			level = "debug"
		}
		logging.Setup(cmd.ErrOrStderr(), app.config.GetEnv(), level)
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", "", "Config file (defaults to $STORY_CONFIG)")
	cmd.PersistentFlags().StringVar(&app.ServerURL, "server", app.config.GetServerURL(), "Story service base URL")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", app.config.GetDataFolder(), "Directory for the sqlite credential store")
	cmd.PersistentFlags().StringVar(&app.Store, "store", app.config.GetCredentialStore(), "Credential store (sqlite|redis|memory)")
	cmd.PersistentFlags().StringVar(&app.RedisAddr, "redis-addr", app.config.GetRedisAddr(), "Redis address for --store=redis")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging on stderr")

	cmd.AddCommand(newStoriesCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newSignupCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newProfileCmd(app))
	cmd.AddCommand(newAccountCmd(app))
	cmd.AddCommand(newSubmitCmd(app))
	cmd.AddCommand(newEditCmd(app))
	cmd.AddCommand(newDeleteCmd(app))
	cmd.AddCommand(newFavoriteCmd(app))
	cmd.AddCommand(newRefreshCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// run builds a client, restores the stored session and hands both to fn. Resources opened for the
// run are released afterwards.
func (a *App) run(cmd *cobra.Command, fn func(ctx context.Context, c *client.Client, snap client.Snapshot, p *render.Printer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	gw, err := a.openGateway()
	if err != nil {
		return err
	}
	store, closer, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	c, err := client.New(gw, store)
	if err != nil {
		return err
	}
	snap, err := c.Start(ctx)
	if err != nil {
		return errors.Wrap(err, "starting client")
	}
	return fn(ctx, c, snap, render.New(cmd.OutOrStdout()))
}

func (a *App) openGateway() (gateway.Gateway, error) {
	if a.gateway != nil {
		return a.gateway, nil
	}
	return httpgateway.New(a.ServerURL, httpgateway.WithTimeout(a.config.GetRequestTimeout()))
}

func (a *App) openStore(ctx context.Context) (sessions.Store, io.Closer, error) {
	if a.store != nil {
		return a.store, nil, nil
	}
	switch strings.ToLower(a.Store) {
	case config.StoreSQLite:
		store, err := sqlitestore.Open(ctx, a.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.StoreRedis:
		store, err := redisstore.Dial(ctx, a.RedisAddr, a.config.GetRedisPassword(), redisstore.WithPrefix(a.config.GetRedisPrefix()))
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case config.StoreMemory:
		return fakestore.NewFakeStore(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown credential store %q: expected sqlite, redis or memory", a.Store)
	}
}
