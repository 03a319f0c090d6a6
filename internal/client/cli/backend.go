package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/tripkeeper/internal/client/config"
	"github.com/dmitrijs2005/tripkeeper/internal/dbx"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway/memory"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway/remote"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway/s3blob"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway/sqldoc"
	"github.com/dmitrijs2005/tripkeeper/internal/metrics"
)

func noClose() error { return nil }

// openGateway builds the gateway selected by c.Backend and returns it with
// its close function.
func openGateway(ctx context.Context, c *config.Config, tokens remote.TokenSource, refresh remote.RefreshFunc, rec metrics.Recorder) (gateway.Gateway, func() error, error) {
	switch c.Backend {
	case config.BackendGRPC:
		opts := []remote.Option{remote.WithMetrics(rec)}
		if refresh != nil {
			opts = append(opts, remote.WithRefresh(refresh))
		}
		client, err := remote.New(c.ServerEndpointAddr, tokens, opts...)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil

	case config.BackendMemory:
		return memory.New(), noClose, nil

	case config.BackendSQLite, config.BackendPostgres:
		dialect, err := dbx.ParseDialect(c.Backend)
		if err != nil {
			return nil, nil, err
		}
		docs, err := sqldoc.Open(ctx, dialect, c.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open document store: %w", err)
		}

		var blobs gateway.BlobStore = memory.New()
		if c.S3Bucket != "" {
			s3, err := s3blob.New(ctx, s3blob.Config{
				Region:       c.S3Region,
				Endpoint:     c.S3Endpoint,
				AccessKey:    c.S3AccessKey,
				SecretKey:    c.S3SecretKey,
				Bucket:       c.S3Bucket,
				UsePathStyle: c.S3Endpoint != "",
			})
			if err != nil {
				_ = docs.Close()
				return nil, nil, fmt.Errorf("open blob store: %w", err)
			}
			blobs = s3
		}
		return gateway.Compose(docs, blobs), docs.Close, nil
	}

	return nil, nil, fmt.Errorf("unknown backend %q", c.Backend)
}
