package grpc

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/docrpc"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, gateway.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorInvalidField), errors.Is(err, common.ErrorInvalidValue):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error(ctx, err.Error())
	return status.Error(codes.Internal, "internal error")
}

func parse(in *structpb.Struct) (docrpc.Request, error) {
	req, err := docrpc.ParseRequest(in)
	if err != nil {
		return docrpc.Request{}, status.Error(codes.InvalidArgument, err.Error())
	}
	return req, nil
}

func needCollection(req docrpc.Request, withID bool) error {
	if req.Collection == "" {
		return status.Error(codes.InvalidArgument, "collection is required")
	}
	if withID && req.ID == "" {
		return status.Error(codes.InvalidArgument, "id is required")
	}
	return nil
}

func (s *GRPCServer) reply(ctx context.Context, resp docrpc.Response) (*structpb.Struct, error) {
	out, err := resp.Struct()
	if err != nil {
		return nil, s.toStatus(ctx, fmt.Errorf("encode response: %w", err))
	}
	return out, nil
}

func (s *GRPCServer) CreateDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := parse(in)
	if err != nil {
		return nil, err
	}
	if err := needCollection(req, false); err != nil {
		return nil, err
	}

	doc, err := s.docs.CreateDocument(ctx, req.Collection, req.Fields)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Document created", "collection", req.Collection, "id", doc.ID, "user_id", UserIDFromContext(ctx))
	return s.reply(ctx, docrpc.Response{Document: doc})
}

func (s *GRPCServer) SetDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := parse(in)
	if err != nil {
		return nil, err
	}
	if err := needCollection(req, true); err != nil {
		return nil, err
	}

	if err := s.docs.SetDocument(ctx, req.Collection, req.ID, req.Fields); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, docrpc.Response{})
}

func (s *GRPCServer) GetDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := parse(in)
	if err != nil {
		return nil, err
	}
	if err := needCollection(req, true); err != nil {
		return nil, err
	}

	doc, err := s.docs.GetDocument(ctx, req.Collection, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, docrpc.Response{Document: doc})
}

func (s *GRPCServer) QueryDocuments(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := parse(in)
	if err != nil {
		return nil, err
	}
	if err := needCollection(req, false); err != nil {
		return nil, err
	}

	docs, err := s.docs.QueryDocuments(ctx, req.Collection, req.Query)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if docs == nil {
		docs = []gateway.Document{}
	}
	return s.reply(ctx, docrpc.Response{Documents: docs})
}

func (s *GRPCServer) UpdateDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := parse(in)
	if err != nil {
		return nil, err
	}
	if err := needCollection(req, true); err != nil {
		return nil, err
	}

	if err := s.docs.UpdateDocument(ctx, req.Collection, req.ID, req.Fields); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, docrpc.Response{})
}

func (s *GRPCServer) DeleteDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := parse(in)
	if err != nil {
		return nil, err
	}
	if err := needCollection(req, true); err != nil {
		return nil, err
	}

	if err := s.docs.DeleteDocument(ctx, req.Collection, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	s.logger.Info(ctx, "Document deleted", "collection", req.Collection, "id", req.ID, "user_id", UserIDFromContext(ctx))
	return s.reply(ctx, docrpc.Response{})
}

func (s *GRPCServer) blobStore() (BlobStore, error) {
	if s.blobs == nil {
		return nil, status.Error(codes.Unimplemented, "blob storage is not configured")
	}
	return s.blobs, nil
}

func (s *GRPCServer) PresignUpload(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	blobs, err := s.blobStore()
	if err != nil {
		return nil, err
	}
	req, err := parse(in)
	if err != nil {
		return nil, err
	}
	if req.Path == "" {
		return nil, status.Error(codes.InvalidArgument, "path is required")
	}

	url, err := blobs.PresignUpload(ctx, req.Path, req.ContentType)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, docrpc.Response{URL: url})
}

func (s *GRPCServer) ResolveBlobURL(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	blobs, err := s.blobStore()
	if err != nil {
		return nil, err
	}
	req, err := parse(in)
	if err != nil {
		return nil, err
	}
	if req.Ref == "" {
		return nil, status.Error(codes.InvalidArgument, "ref is required")
	}

	url, err := blobs.ResolveBlobURL(ctx, req.Ref)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, docrpc.Response{URL: url})
}

func (s *GRPCServer) DeleteBlob(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	blobs, err := s.blobStore()
	if err != nil {
		return nil, err
	}
	req, err := parse(in)
	if err != nil {
		return nil, err
	}
	if req.Ref == "" {
		return nil, status.Error(codes.InvalidArgument, "ref is required")
	}

	if err := blobs.DeleteBlob(ctx, req.Ref); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return s.reply(ctx, docrpc.Response{})
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return s.reply(ctx, docrpc.Response{Status: "OK"})
}

var _ docrpc.Server = (*GRPCServer)(nil)
