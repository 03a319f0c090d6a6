package travel

import (
	"context"
	"fmt"
)

// uploadBlob stores u at path and returns the resolved URL.
func (b base) uploadBlob(ctx context.Context, path string, u *Upload) (string, error) {
	ref, err := b.gw.UploadBlob(ctx, path, u.Data, u.ContentType)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}
	url, err := b.gw.ResolveBlobURL(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", ref, err)
	}
	return url, nil
}

// discardBlob deletes a blob and only logs a failure.
func (b base) discardBlob(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := b.gw.DeleteBlob(ctx, ref); err != nil {
		b.logger.Warn(ctx, "could not delete blob", "ref", ref, "error", err)
	}
}
