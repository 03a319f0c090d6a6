package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/tripkeeper/internal/docrpc"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/metrics"
)

// BlobStore is a gateway.BlobStore that can also hand out presigned upload
// URLs.
type BlobStore interface {
	gateway.BlobStore
	PresignUpload(ctx context.Context, path, contentType string) (string, error)
}

// GRPCServer serves a document store and an optional blob store over the
// docrpc service.
type GRPCServer struct {
	address   string
	docs      gateway.DocumentStore
	blobs     BlobStore
	logger    logging.Logger
	metrics   metrics.Recorder
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, docs gateway.DocumentStore, blobs BlobStore, m metrics.Recorder, secretKey string) *GRPCServer {
	if m == nil {
		m = metrics.Noop{}
	}
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		docs:      docs,
		blobs:     blobs,
		metrics:   m,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.loggingInterceptor,
		s.metricsInterceptor,
		s.accessTokenInterceptor,
	))
	docrpc.RegisterServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	return srv.Serve(listen)
}
