// Package docrpc is the gRPC contract between the remote gateway client and
// the gateway server. Messages are structpb.Struct values, so the service
// needs no generated code.
package docrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "tripkeeper.v1.DocumentService"

const (
	MethodCreateDocument = "/" + ServiceName + "/CreateDocument"
	MethodSetDocument    = "/" + ServiceName + "/SetDocument"
	MethodGetDocument    = "/" + ServiceName + "/GetDocument"
	MethodQueryDocuments = "/" + ServiceName + "/QueryDocuments"
	MethodUpdateDocument = "/" + ServiceName + "/UpdateDocument"
	MethodDeleteDocument = "/" + ServiceName + "/DeleteDocument"
	MethodPresignUpload  = "/" + ServiceName + "/PresignUpload"
	MethodResolveBlobURL = "/" + ServiceName + "/ResolveBlobURL"
	MethodDeleteBlob     = "/" + ServiceName + "/DeleteBlob"
	MethodPing           = "/" + ServiceName + "/Ping"
)

// Server is implemented by the gateway server.
type Server interface {
	CreateDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QueryDocuments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PresignUpload(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveBlobURL(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteBlob(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type serverMethod func(Server, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call serverMethod) grpc.MethodDesc {
	full := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(Server), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(Server), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateDocument", Server.CreateDocument),
		unary("SetDocument", Server.SetDocument),
		unary("GetDocument", Server.GetDocument),
		unary("QueryDocuments", Server.QueryDocuments),
		unary("UpdateDocument", Server.UpdateDocument),
		unary("DeleteDocument", Server.DeleteDocument),
		unary("PresignUpload", Server.PresignUpload),
		unary("ResolveBlobURL", Server.ResolveBlobURL),
		unary("DeleteBlob", Server.DeleteBlob),
		unary("Ping", Server.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tripkeeper/v1/document_service.proto",
}

func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client invokes the service over a connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with in and returns the response struct.
func (c *Client) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
