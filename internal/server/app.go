// Package server wires the gateway server: the document store, the optional
// S3 blob store, the gRPC endpoint and the metrics endpoint.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway/s3blob"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway/sqldoc"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/metrics"
	"github.com/dmitrijs2005/tripkeeper/internal/server/config"

	gs "github.com/dmitrijs2005/tripkeeper/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	docs    *sqldoc.Store
	blobs   gs.BlobStore
	metrics *metrics.Prometheus
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewTint(os.Stdout)

	dialect, err := dbx.ParseDialect(c.DatabaseDialect)
	if err != nil {
		return nil, err
	}

	docs, err := sqldoc.Open(ctx, dialect, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{
		config:  c,
		logger:  logger,
		docs:    docs,
		metrics: metrics.NewPrometheus("tripkeeper_server"),
	}

	if c.S3Bucket != "" {
		blobs, err := s3blob.New(ctx, s3blob.Config{
			Region:        c.S3Region,
			Endpoint:      c.S3BaseEndpoint,
			AccessKey:     c.S3RootUser,
			SecretKey:     c.S3RootPassword,
			Bucket:        c.S3Bucket,
			PublicBaseURL: c.S3PublicBaseURL,
			PresignExpiry: c.PresignExpiry,
			UsePathStyle:  c.S3BaseEndpoint != "",
		})
		if err != nil {
			_ = docs.Close()
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		app.blobs = blobs
	} else {
		logger.Warn(ctx, "S3 bucket not configured, blob methods disabled")
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.docs, app.blobs, app.metrics, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context) {
	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := app.metrics.Serve(ctx, app.config.MetricsAddr); err != nil {
		app.logger.Error(ctx, "metrics server", "error", err)
	}
}

// Run serves until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startMetricsServer(ctx)
		}()
	}

	wg.Wait()

	if err := app.docs.Close(); err != nil {
		app.logger.Error(ctx, "close document store", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
