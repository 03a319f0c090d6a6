package grpc

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway/memory"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway/remote"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/server/auth"
)

// presigningMemory serves presigned PUTs from an HTTP test server backed by
// the memory gateway's blob map.
type presigningMemory struct {
	*memory.Gateway
	http *httptest.Server
}

func newPresigningMemory(t *testing.T, mem *memory.Gateway) *presigningMemory {
	p := &presigningMemory{Gateway: mem}
	p.http = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		path := strings.TrimPrefix(r.URL.Path, "/")
		if _, err := mem.UploadBlob(r.Context(), path, body, r.Header.Get("Content-Type")); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(p.http.Close)
	return p
}

func (p *presigningMemory) PresignUpload(_ context.Context, path, _ string) (string, error) {
	return p.http.URL + "/" + path, nil
}

type tokenString string

func (s tokenString) Token() string { return string(s) }

func startServer(t *testing.T, mem *memory.Gateway, blobs BlobStore, secret string) *bufconn.Listener {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := NewGRPCServer("", logging.Nop{}, mem, blobs, nil, secret)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Serve(ctx, lis)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return lis
}

func dialRemote(t *testing.T, lis *bufconn.Listener, tok string, opts ...remote.Option) *remote.Client {
	t.Helper()

	opts = append(opts, remote.WithDialOptions(
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
	))
	c, err := remote.New("passthrough:///bufnet", tokenString(tok), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func mintToken(t *testing.T, uid, secret string) string {
	t.Helper()
	tok, err := auth.GenerateToken(uid, uid+"@example.com", []byte(secret), time.Hour)
	require.NoError(t, err)
	return tok
}

func TestRemote_DocumentLifecycle(t *testing.T) {
	mem := memory.New(memory.WithSequentialIDs("srv"))
	lis := startServer(t, mem, nil, "secret")
	c := dialRemote(t, lis, mintToken(t, "u1", "secret"))
	ctx := context.Background()

	doc, err := c.CreateDocument(ctx, "trips", map[string]any{"userId": "u1", "title": "Paris", "createdAt": 100})
	require.NoError(t, err)
	assert.Equal(t, "srv-1", doc.ID)
	_, err = c.CreateDocument(ctx, "trips", map[string]any{"userId": "u1", "title": "Rome", "createdAt": 200})
	require.NoError(t, err)
	_, err = c.CreateDocument(ctx, "trips", map[string]any{"userId": "u2", "title": "Oslo", "createdAt": 300})
	require.NoError(t, err)

	docs, err := c.QueryDocuments(ctx, "trips", gateway.Where("userId", "u1").Ordered("createdAt", gateway.Desc))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Rome", docs[0].Fields["title"])
	assert.Equal(t, "Paris", docs[1].Fields["title"])

	require.NoError(t, c.UpdateDocument(ctx, "trips", "srv-1", map[string]any{"notes": "museum", "title": nil}))
	got, err := c.GetDocument(ctx, "trips", "srv-1")
	require.NoError(t, err)
	assert.Equal(t, "museum", got.Fields["notes"])
	assert.NotContains(t, got.Fields, "title")

	require.NoError(t, c.DeleteDocument(ctx, "trips", "srv-1"))
	_, err = c.GetDocument(ctx, "trips", "srv-1")
	assert.ErrorIs(t, err, gateway.ErrNotFound)
	require.NoError(t, c.DeleteDocument(ctx, "trips", "srv-1"))

	err = c.UpdateDocument(ctx, "trips", "srv-1", map[string]any{"notes": "x"})
	assert.ErrorIs(t, err, gateway.ErrNotFound)

	empty, err := c.QueryDocuments(ctx, "photos", gateway.Where("tripId", "none"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRemote_SetDocument(t *testing.T) {
	mem := memory.New()
	lis := startServer(t, mem, nil, "secret")
	c := dialRemote(t, lis, mintToken(t, "u1", "secret"))
	ctx := context.Background()

	require.NoError(t, c.SetDocument(ctx, "users", "u1", map[string]any{"email": "u1@example.com"}))
	got, err := c.GetDocument(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", got.Fields["email"])
}

func TestRemote_Blobs(t *testing.T) {
	mem := memory.New()
	lis := startServer(t, mem, newPresigningMemory(t, mem), "secret")
	c := dialRemote(t, lis, mintToken(t, "u1", "secret"))
	ctx := context.Background()

	ref, err := c.UploadBlob(ctx, "photos/u1/t1/1_a.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "photos/u1/t1/1_a.jpg", ref)

	data, ok := mem.Blob(ref)
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg"), data)

	url, err := c.ResolveBlobURL(ctx, ref)
	require.NoError(t, err)
	assert.Contains(t, url, ref)

	require.NoError(t, c.DeleteBlob(ctx, ref))
	_, ok = mem.Blob(ref)
	assert.False(t, ok)
}

func TestRemote_BlobsNotConfigured(t *testing.T) {
	lis := startServer(t, memory.New(), nil, "secret")
	c := dialRemote(t, lis, mintToken(t, "u1", "secret"))

	_, err := c.ResolveBlobURL(context.Background(), "a.jpg")
	require.Error(t, err)
}

func TestRemote_Unauthenticated(t *testing.T) {
	lis := startServer(t, memory.New(), nil, "secret")
	c := dialRemote(t, lis, mintToken(t, "u1", "other-secret"))

	_, err := c.QueryDocuments(context.Background(), "trips", gateway.Query{})
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	require.NoError(t, c.Ping(context.Background()))
}

func TestRemote_RefreshesExpiredToken(t *testing.T) {
	lis := startServer(t, memory.New(), nil, "secret")

	expired, err := auth.GenerateToken("u1", "", []byte("secret"), -time.Second)
	require.NoError(t, err)

	refreshed := 0
	c := dialRemote(t, lis, expired, remote.WithRefresh(func(context.Context) (string, error) {
		refreshed++
		return mintToken(t, "u1", "secret"), nil
	}))

	_, err = c.QueryDocuments(context.Background(), "trips", gateway.Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
}

func TestRemote_InvalidFieldIsInvalidArgument(t *testing.T) {
	lis := startServer(t, memory.New(), nil, "secret")
	c := dialRemote(t, lis, mintToken(t, "u1", "secret"))

	_, err := c.CreateDocument(context.Background(), "", map[string]any{"a": 1})
	assert.ErrorIs(t, err, common.ErrorInvalidValue)
}
