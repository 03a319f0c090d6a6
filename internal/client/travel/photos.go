package travel

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/client/store"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

type Photos struct {
	base
	c     *store.Collection[models.Photo]
	trips *store.Collection[models.Trip]
}

// ForTrip returns the trip's photos, newest first.
func (p *Photos) ForTrip(tripID string) []models.Photo { return p.c.ByParent(tripID) }

func (p *Photos) Get(id string) (models.Photo, bool)  { return p.c.Get(id) }
func (p *Photos) Len() int                            { return p.c.Len() }
func (p *Photos) Snapshot() map[string][]models.Photo { return p.c.Snapshot() }
func (p *Photos) Reset()                              { p.c.Reset() }

func (p *Photos) Subscribe(fn func(store.Event[models.Photo])) func() {
	return p.c.Subscribe(fn)
}

// Create records a photo whose URL already exists. An unknown trip is a
// no-op.
func (p *Photos) Create(ctx context.Context, draft models.PhotoDraft) (*models.Photo, error) {
	uid := p.uid()
	if uid == "" {
		return nil, nil
	}
	tripID, ok := tripKnown(p.trips, p.c, draft.TripID)
	if !ok {
		return nil, nil
	}
	draft.TripID = tripID

	created, err := p.c.Create(ctx, draft.Photo(models.Now()), func(_ context.Context, ph models.Photo) (models.Photo, payload.Doc, error) {
		return ph, ph.Doc(uid, ""), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (p *Photos) Update(ctx context.Context, id string, patch models.PhotoPatch) error {
	if p.uid() == "" {
		return nil
	}
	return p.c.Update(ctx, id, patch, nil)
}

// Delete removes the photo document and then its blob. The blob path is
// read from the remote document first; a failed read aborts the delete.
func (p *Photos) Delete(ctx context.Context, id string) error {
	if p.uid() == "" {
		return nil
	}

	return p.c.Delete(ctx, id, func(ctx context.Context, _ models.Photo) (func(context.Context), error) {
		doc, err := p.gw.GetDocument(ctx, models.CollectionPhotos, id)
		if err != nil && !errors.Is(err, gateway.ErrNotFound) {
			return nil, err
		}
		ref := models.StoragePath(doc)
		return func(ctx context.Context) { p.discardBlob(ctx, ref) }, nil
	})
}

// FetchForTrip replaces the trip's group with its remote photos.
func (p *Photos) FetchForTrip(ctx context.Context, tripID string) ([]models.Photo, error) {
	if p.uid() == "" {
		return nil, nil
	}
	return p.c.FetchByParent(ctx, models.FieldTripID, tripID, &gateway.Order{Field: models.FieldCreatedAt, Dir: gateway.Desc})
}

// Load replaces the cache with every photo owned by uid, newest first.
func (p *Photos) Load(ctx context.Context, uid string) error {
	return p.c.Load(ctx, gateway.Where(models.FieldUserID, uid).Ordered(models.FieldCreatedAt, gateway.Desc))
}

// Progress is reported after each file of UploadMany.
type Progress struct {
	Percent  int
	Uploaded int
	Total    int
}

func photoPath(uid, tripID string, ts int64, name string) string {
	return fmt.Sprintf("photos/%s/%s/%d_%s", uid, tripID, ts, name)
}

// UploadMany uploads files one at a time, creating a photo for each. It
// stops at the first failure and returns the photos created so far with
// the error. A blob whose document could not be written is deleted. An
// unknown trip uploads nothing.
func (p *Photos) UploadMany(ctx context.Context, tripID string, files []Upload, caption, date *string, progress func(Progress)) ([]models.Photo, error) {
	uid := p.uid()
	if uid == "" {
		return nil, nil
	}
	tripID, ok := tripKnown(p.trips, p.c, tripID)
	if !ok {
		return nil, nil
	}

	out := make([]models.Photo, 0, len(files))
	for i := range files {
		f := &files[i]
		ts := models.Now()
		path := photoPath(uid, tripID, ts, f.Name)
		draft := models.PhotoDraft{TripID: tripID, Caption: caption, Date: date}

		var uploaded bool
		created, err := p.c.Create(ctx, draft.Photo(ts), func(ctx context.Context, ph models.Photo) (models.Photo, payload.Doc, error) {
			url, err := p.uploadBlob(ctx, path, f)
			if err != nil {
				return ph, nil, err
			}
			uploaded = true
			ph.URL = url
			return ph, ph.Doc(uid, path), nil
		})
		if err != nil {
			if uploaded {
				p.discardBlob(ctx, path)
			}
			return out, fmt.Errorf("upload photo %s: %w", f.Name, err)
		}
		out = append(out, created)

		if progress != nil {
			n := i + 1
			progress(Progress{
				Percent:  int(math.Round(float64(n) / float64(len(files)) * 100)),
				Uploaded: n,
				Total:    len(files),
			})
		}
	}
	return out, nil
}
