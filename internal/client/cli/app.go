package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/tripkeeper/internal/client/config"
	"github.com/dmitrijs2005/tripkeeper/internal/client/identity"
	"github.com/dmitrijs2005/tripkeeper/internal/client/syncer"
	"github.com/dmitrijs2005/tripkeeper/internal/client/travel"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/metrics"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	metrics *metrics.Prometheus
	signal  *identity.Signal
	data    *travel.Data
	orch    *syncer.Orchestrator
	closeGW func() error
	scanner *bufio.Scanner
	out     io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdin, os.Stdout, logging.NewTint(os.Stderr))
}

func newApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer, logger logging.Logger) (*App, error) {
	a := &App{
		config:  c,
		logger:  logger,
		metrics: metrics.NewPrometheus("tripkeeper_client"),
		signal:  identity.NewSignal(),
		scanner: bufio.NewScanner(in),
		out:     out,
	}

	var refresh func(context.Context) (string, error)
	if c.DevSecret != "" {
		refresh = a.refreshToken
	}

	gw, closeGW, err := openGateway(ctx, c, a.signal, refresh, a.metrics)
	if err != nil {
		return nil, err
	}
	a.closeGW = closeGW

	a.data = travel.New(gw, a.signal, travel.WithLogger(logger), travel.WithMetrics(a.metrics))
	a.orch = syncer.New(a.data, a.signal, syncer.WithLogger(logger), syncer.WithLoadTimeout(c.LoadTimeout))

	return a, nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) getStatus() string {
	state, uid := a.orch.State()
	if uid == "" {
		return fmt.Sprintf("(%s)", state)
	}
	return fmt.Sprintf("(%s %s)", uid, state)
}

// Run starts synchronization and serves the REPL, or prints the report and
// returns when the configuration asks for it.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	if a.config.MetricsAddr != "" {
		go func() {
			if err := a.metrics.Serve(ctx, a.config.MetricsAddr); err != nil {
				a.logger.Error(ctx, "metrics server", "error", err)
			}
		}()
	}

	a.orch.Start(ctx)
	defer a.orch.Stop()

	if a.config.UserID != "" {
		if err := a.Login(ctx, []string{a.config.UserID, a.config.Email}); err != nil {
			return err
		}
	}

	if a.config.Report {
		if !a.isLoggedIn() {
			return fmt.Errorf("report needs a user id (-i)")
		}
		return a.Report(ctx)
	}

	a.printf("Welcome to tripkeeper (type 'help' for commands)\n")
	runREPL(ctx, a, a.getStatus, a.scanner)
	return nil
}

func (a *App) Close() error {
	if a.closeGW == nil {
		return nil
	}
	err := a.closeGW()
	a.closeGW = nil
	return err
}
