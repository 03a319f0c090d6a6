package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/docrpc"
	"github.com/dmitrijs2005/tripkeeper/internal/server/auth"
)

type ctxKey string

const (
	UserIDKey ctxKey = "userID"
	EmailKey  ctxKey = "email"
)

// publicMethods skip authentication.
var publicMethods = map[string]bool{
	docrpc.MethodPing: true,
}

func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	claims, err := auth.ParseToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	}

	ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, EmailKey, claims.Email)

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()

	resp, err := handler(ctx, req)

	duration := time.Since(start).Milliseconds()
	if err != nil {
		st := status.Convert(err)
		if st.Code() == codes.Internal || st.Code() == codes.Unknown {
			s.logger.Error(ctx, "RPC error", "method", info.FullMethod, "code", st.Code().String(), "error", st.Message(), "duration_ms", duration)
		} else {
			s.logger.Warn(ctx, "RPC error", "method", info.FullMethod, "code", st.Code().String(), "error", st.Message(), "duration_ms", duration)
		}
		return resp, err
	}

	s.logger.Debug(ctx, "RPC ok", "method", info.FullMethod, "duration_ms", duration)
	return resp, nil
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.metrics.RPC(info.FullMethod, status.Code(err).String(), time.Since(start))
	return resp, err
}
