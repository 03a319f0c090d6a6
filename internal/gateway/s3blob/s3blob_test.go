package s3blob

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	put       *s3.PutObjectInput
	body      []byte
	deleted   []string
	putErr    error
	deleteErr error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.put = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, f.deleteErr
}

type fakePresign struct {
	expires time.Duration
	err     error
}

func (f *fakePresign) opts(optFns []func(*s3.PresignOptions)) {
	var o s3.PresignOptions
	for _, fn := range optFns {
		fn(&o)
	}
	f.expires = o.Expires
}

func (f *fakePresign) PresignPutObject(_ context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.opts(optFns)
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://s3/put/" + aws.ToString(in.Key), Method: "PUT"}, nil
}

func (f *fakePresign) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.opts(optFns)
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://s3/get/" + aws.ToString(in.Key), Method: "GET"}, nil
}

func TestUploadBlob(t *testing.T) {
	objs := &fakeObjects{}
	s := newStore(objs, &fakePresign{}, Config{Bucket: "trips"})

	ref, err := s.UploadBlob(context.Background(), "photos/u1/t1/1_a.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "photos/u1/t1/1_a.jpg", ref)
	assert.Equal(t, "trips", aws.ToString(objs.put.Bucket))
	assert.Equal(t, "image/jpeg", aws.ToString(objs.put.ContentType))
	assert.Equal(t, []byte("jpeg"), objs.body)

	objs.putErr = errors.New("access denied")
	_, err = s.UploadBlob(context.Background(), "x", nil, "")
	require.Error(t, err)
}

func TestResolveBlobURL(t *testing.T) {
	p := &fakePresign{}
	s := newStore(&fakeObjects{}, p, Config{Bucket: "b", PresignExpiry: time.Hour})

	u, err := s.ResolveBlobURL(context.Background(), "trip-pictures/u1/t1/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://s3/get/trip-pictures/u1/t1/a.jpg", u)
	assert.Equal(t, time.Hour, p.expires)

	public := newStore(&fakeObjects{}, p, Config{Bucket: "b", PublicBaseURL: "https://cdn.example.com/"})
	u, err = public.ResolveBlobURL(context.Background(), "photos/u1/t1/1_my photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/photos/u1/t1/1_my%20photo.jpg", u)
}

func TestPresignUpload(t *testing.T) {
	p := &fakePresign{}
	s := newStore(&fakeObjects{}, p, Config{Bucket: "b"})

	u, err := s.PresignUpload(context.Background(), "photos/a.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "https://s3/put/photos/a.jpg", u)
	assert.Equal(t, 15*time.Minute, p.expires)

	p.err = errors.New("signer failed")
	_, err = s.PresignUpload(context.Background(), "photos/a.jpg", "")
	require.Error(t, err)
}

func TestDeleteBlob_MissingIsNotAnError(t *testing.T) {
	objs := &fakeObjects{deleteErr: &types.NoSuchKey{}}
	s := newStore(objs, &fakePresign{}, Config{Bucket: "b"})

	require.NoError(t, s.DeleteBlob(context.Background(), "gone.jpg"))
	assert.Equal(t, []string{"gone.jpg"}, objs.deleted)

	objs.deleteErr = &types.NotFound{}
	require.NoError(t, s.DeleteBlob(context.Background(), "gone.jpg"))

	objs.deleteErr = errors.New("throttled")
	require.Error(t, s.DeleteBlob(context.Background(), "x.jpg"))
}

func TestNew_UsesConfigLoader(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	var called bool
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		called = true
		return aws.Config{Region: "us-east-1"}, nil
	}
	s, err := New(context.Background(), Config{Region: "us-east-1", Bucket: "b", AccessKey: "k", SecretKey: "s", Endpoint: "http://localhost:9000", UsePathStyle: true})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.True(t, called)

	loadDefaultAWSConfig = func(context.Context, ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no creds")
	}
	_, err = New(context.Background(), Config{})
	require.Error(t, err)
}
