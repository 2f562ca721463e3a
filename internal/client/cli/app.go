package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/workgroup/workgroup-client/internal/client/client"
	"github.com/workgroup/workgroup-client/internal/client/config"
	"github.com/workgroup/workgroup-client/internal/client/services"
	"github.com/workgroup/workgroup-client/internal/client/sessionstore"
	"github.com/workgroup/workgroup-client/internal/logging"
)

type App struct {
	config   *config.Config
	api      client.Client
	store    sessionstore.Store
	sessions services.SessionManager
	log      logging.Logger
	reader   *bufio.Reader
	out      io.Writer

	closeStore func() error
}

// NewApp wires the store, the identity client and the session manager from
// cfg. Restoring the stored session starts immediately in the background.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	log := logging.New(cfg.LogLevel, os.Stderr)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Error(ctx, "error opening session store", "backend", cfg.StoreBackend, "error", err)
		return nil, err
	}

	api, err := client.NewHTTPClient(cfg.APIURL, cfg.RequestTimeout, log)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	return newApp(ctx, cfg, api, store, closeStore, log, os.Stdin, os.Stdout), nil
}

func newApp(ctx context.Context, cfg *config.Config, api client.Client, store sessionstore.Store,
	closeStore func() error, log logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		config:     cfg,
		api:        api,
		store:      store,
		sessions:   services.NewSessionManager(ctx, store, api, log),
		log:        log,
		reader:     bufio.NewReader(in),
		out:        out,
		closeStore: closeStore,
	}
}

// Run waits for the stored session, refreshes it in the background and
// serves the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	fmt.Fprintln(a.out, "Welcome to Work Group (type 'help' for commands)")
	if err := a.sessions.WaitReady(ctx); err != nil {
		return
	}

	if a.isLoggedIn() {
		go a.sessions.RefetchFromRemote(ctx)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) Close() {
	if err := a.api.Close(); err != nil {
		a.log.Warn(context.Background(), "closing identity client", "error", err)
	}
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			a.log.Warn(context.Background(), "closing session store", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	return a.sessions.State() == services.StateAuthenticated
}

func (a *App) getStatus() string {
	s := a.sessions.Session()
	if s == nil {
		return ""
	}
	name := s.Name
	if name == "" {
		name = s.Email
	}
	return fmt.Sprintf("(%s)", name)
}

// report prints a failure the way the user should see it. Context
// cancellation is silent.
func (a *App) report(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(a.out, "Error:", err.Error())
	return err
}
