// Package remote implements gateway.Gateway against the gateway server over
// gRPC. Blobs are uploaded straight to storage through presigned URLs.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/docrpc"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
	"github.com/dmitrijs2005/tripkeeper/internal/metrics"
	"github.com/dmitrijs2005/tripkeeper/internal/netx"
)

// TokenSource yields the current access token. identity.Signal satisfies it.
type TokenSource interface {
	Token() string
}

// RefreshFunc obtains a fresh access token after the server reported the
// current one as expired.
type RefreshFunc func(ctx context.Context) (string, error)

type caller interface {
	Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type Client struct {
	conn    *grpc.ClientConn
	rpc     caller
	tokens  TokenSource
	refresh RefreshFunc
	http    *http.Client
	metrics metrics.Recorder
	timeout time.Duration
	dialOps []grpc.DialOption

	// refreshed replaces the source token while the source still reports
	// the one it was refreshed from.
	mu        sync.Mutex
	refreshed string
	staleTok  string
}

type Option func(*Client)

func WithRefresh(fn RefreshFunc) Option      { return func(c *Client) { c.refresh = fn } }
func WithHTTPClient(hc *http.Client) Option  { return func(c *Client) { c.http = hc } }
func WithMetrics(m metrics.Recorder) Option  { return func(c *Client) { c.metrics = m } }
func WithCallTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }
func withCaller(rpc caller) Option           { return func(c *Client) { c.rpc = rpc } }

// WithDialOptions appends options to the ones New dials with.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) { c.dialOps = append(c.dialOps, opts...) }
}

func New(endpoint string, tokens TokenSource, opts ...Option) (*Client, error) {
	c := newClient(tokens, opts...)

	dialOps := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(c.metricsInterceptor, c.accessTokenInterceptor),
	}, c.dialOps...)

	conn, err := grpc.NewClient(endpoint, dialOps...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	c.conn = conn
	if c.rpc == nil {
		c.rpc = docrpc.NewClient(conn)
	}
	return c, nil
}

func newClient(tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		tokens:  tokens,
		http:    http.DefaultClient,
		metrics: metrics.Noop{},
		timeout: 30 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) token() string {
	var tok string
	if c.tokens != nil {
		tok = c.tokens.Token()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.refreshed != "" && tok == c.staleTok {
		return c.refreshed
	}
	return tok
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}
	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the access token and retries once with a
// refreshed token when the server reports it expired.
func (c *Client) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	tok := c.token()
	err := invoker(withAccessToken(ctx, tok), method, req, reply, cc, opts...)
	if err == nil || c.refresh == nil {
		return err
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}

	fresh, rerr := c.refresh(ctx)
	if rerr != nil {
		return err
	}
	c.mu.Lock()
	c.staleTok, c.refreshed = "", fresh
	if c.tokens != nil {
		c.staleTok = c.tokens.Token()
	}
	c.mu.Unlock()

	return invoker(withAccessToken(ctx, fresh), method, req, reply, cc, opts...)
}

func (c *Client) metricsInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	start := time.Now()
	err := invoker(ctx, method, req, reply, cc, opts...)
	c.metrics.RPC(method, status.Code(err).String(), time.Since(start))
	return err
}

func (c *Client) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.NotFound:
		return gateway.ErrNotFound
	case codes.Unauthenticated, codes.PermissionDenied:
		return common.ErrorUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return common.ErrorUnavailable
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorInvalidValue, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}

func (c *Client) invoke(ctx context.Context, method string, req docrpc.Request) (docrpc.Response, error) {
	in, err := req.Struct()
	if err != nil {
		return docrpc.Response{}, fmt.Errorf("encode request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.rpc.Call(ctx, method, in)
	if err != nil {
		return docrpc.Response{}, c.mapError(err)
	}
	resp, err := docrpc.ParseResponse(out)
	if err != nil {
		return docrpc.Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func (c *Client) CreateDocument(ctx context.Context, collection string, fields map[string]any) (gateway.Document, error) {
	resp, err := c.invoke(ctx, docrpc.MethodCreateDocument, docrpc.Request{Collection: collection, Fields: fields})
	if err != nil {
		return gateway.Document{}, err
	}
	return resp.Document, nil
}

func (c *Client) SetDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := c.invoke(ctx, docrpc.MethodSetDocument, docrpc.Request{Collection: collection, ID: id, Fields: fields})
	return err
}

func (c *Client) GetDocument(ctx context.Context, collection, id string) (gateway.Document, error) {
	resp, err := c.invoke(ctx, docrpc.MethodGetDocument, docrpc.Request{Collection: collection, ID: id})
	if err != nil {
		return gateway.Document{}, err
	}
	return resp.Document, nil
}

func (c *Client) QueryDocuments(ctx context.Context, collection string, q gateway.Query) ([]gateway.Document, error) {
	resp, err := c.invoke(ctx, docrpc.MethodQueryDocuments, docrpc.Request{Collection: collection, Query: q})
	if err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *Client) UpdateDocument(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := c.invoke(ctx, docrpc.MethodUpdateDocument, docrpc.Request{Collection: collection, ID: id, Fields: fields})
	return err
}

func (c *Client) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := c.invoke(ctx, docrpc.MethodDeleteDocument, docrpc.Request{Collection: collection, ID: id})
	return err
}

// UploadBlob asks the server for a presigned PUT URL and uploads data to it.
func (c *Client) UploadBlob(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	resp, err := c.invoke(ctx, docrpc.MethodPresignUpload, docrpc.Request{Path: path, ContentType: contentType})
	if err != nil {
		return "", err
	}
	if err := netx.UploadToPresignedURL(ctx, c.http, resp.URL, data, contentType); err != nil {
		return "", err
	}
	return path, nil
}

func (c *Client) ResolveBlobURL(ctx context.Context, ref string) (string, error) {
	resp, err := c.invoke(ctx, docrpc.MethodResolveBlobURL, docrpc.Request{Ref: ref})
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) DeleteBlob(ctx context.Context, ref string) error {
	_, err := c.invoke(ctx, docrpc.MethodDeleteBlob, docrpc.Request{Ref: ref})
	return err
}

func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.invoke(ctx, docrpc.MethodPing, docrpc.Request{})
	if err != nil {
		return err
	}
	if resp.Status != "OK" {
		return common.ErrorUnavailable
	}
	return nil
}

var _ gateway.Gateway = (*Client)(nil)
