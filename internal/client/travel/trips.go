package travel

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/client/store"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

type Trips struct {
	base
	c        *store.Collection[models.Trip]
	expenses *Expenses
	photos   *Photos
}

func (t *Trips) List() []models.Trip                { return t.c.List() }
func (t *Trips) Get(id string) (models.Trip, bool)  { return t.c.Get(id) }
func (t *Trips) Len() int                           { return t.c.Len() }
func (t *Trips) Snapshot() map[string][]models.Trip { return t.c.Snapshot() }
func (t *Trips) Reset()                             { t.c.Reset() }

func (t *Trips) Subscribe(fn func(store.Event[models.Trip])) func() {
	return t.c.Subscribe(fn)
}

func coverPath(uid, tripID string, ts int64, name string) string {
	return fmt.Sprintf("trip-pictures/%s/%s/%d_%s", uid, tripID, ts, name)
}

// Create adds a trip for the current identity. picture, when given, is
// uploaded as the cover before the document is written; it is stored under
// the trip's temporary id with a timestamp prefix.
func (t *Trips) Create(ctx context.Context, draft models.TripDraft, picture *Upload) (*models.Trip, error) {
	uid := t.uid()
	if uid == "" {
		return nil, nil
	}

	var uploaded string
	created, err := t.c.Create(ctx, draft.Trip(uid, models.Now()), func(ctx context.Context, trip models.Trip) (models.Trip, payload.Doc, error) {
		if picture != nil {
			path := coverPath(uid, trip.ID, models.Now(), picture.Name)
			url, err := t.uploadBlob(ctx, path, picture)
			if err != nil {
				return trip, nil, err
			}
			uploaded = path
			trip.PictureURL = &url
			trip.PicturePath = &path
		}
		return trip, trip.Doc(), nil
	})
	if err != nil {
		t.discardBlob(ctx, uploaded)
		return nil, err
	}
	return &created, nil
}

// Update patches a trip. A new picture replaces the cover; removePicture
// drops it. The previous cover blob is deleted once the update is
// confirmed; a failed update leaves it in place.
func (t *Trips) Update(ctx context.Context, id string, patch models.TripPatch, picture *Upload, removePicture bool) error {
	uid := t.uid()
	if uid == "" {
		return nil
	}

	patch.UpdatedAt = models.Now()
	if removePicture && picture == nil {
		patch.PictureURL = payload.Clear[string]()
		patch.PicturePath = payload.Clear[string]()
	}

	var uploaded, old, stale string
	err := t.c.Update(ctx, id, patch, func(ctx context.Context, before models.Trip) (store.Patch[models.Trip], error) {
		final := patch
		if before.PicturePath != nil {
			old = *before.PicturePath
		}

		switch {
		case picture != nil:
			path := coverPath(uid, id, models.Now(), picture.Name)
			url, err := t.uploadBlob(ctx, path, picture)
			if err != nil {
				return nil, err
			}
			uploaded = path
			final.PictureURL = payload.Some(url)
			final.PicturePath = payload.Some(path)
			if old != path {
				stale = old
			}
		case removePicture:
			stale = old
		}
		return final, nil
	})
	if err != nil {
		if uploaded != "" && uploaded != old {
			t.discardBlob(ctx, uploaded)
		}
		return err
	}

	t.discardBlob(ctx, stale)
	return nil
}

// Delete removes a trip with its expense and photo groups. Remote
// expenses, photos and blobs are deleted after the trip document is gone;
// failures there are only logged.
func (t *Trips) Delete(ctx context.Context, id string) error {
	if t.uid() == "" {
		return nil
	}

	return t.c.Delete(ctx, id, func(_ context.Context, trip models.Trip) (func(context.Context), error) {
		return func(ctx context.Context) {
			t.cascade(ctx, trip)
		}, nil
	})
}

func (t *Trips) cascade(ctx context.Context, trip models.Trip) {
	byTrip := gateway.Where(models.FieldTripID, trip.ID)

	expenses, err := t.gw.QueryDocuments(ctx, models.CollectionExpenses, byTrip)
	if err != nil {
		t.logger.Error(ctx, "could not list expenses of deleted trip", "trip_id", trip.ID, "error", err)
	}
	for _, doc := range expenses {
		if err := t.gw.DeleteDocument(ctx, models.CollectionExpenses, doc.ID); err != nil {
			t.logger.Error(ctx, "could not delete expense of deleted trip", "trip_id", trip.ID, "expense_id", doc.ID, "error", err)
		}
	}

	photos, err := t.gw.QueryDocuments(ctx, models.CollectionPhotos, byTrip)
	if err != nil {
		t.logger.Error(ctx, "could not list photos of deleted trip", "trip_id", trip.ID, "error", err)
	}
	for _, doc := range photos {
		if err := t.gw.DeleteDocument(ctx, models.CollectionPhotos, doc.ID); err != nil {
			t.logger.Error(ctx, "could not delete photo of deleted trip", "trip_id", trip.ID, "photo_id", doc.ID, "error", err)
			continue
		}
		t.discardBlob(ctx, models.StoragePath(doc))
	}

	if trip.PicturePath != nil {
		t.discardBlob(ctx, *trip.PicturePath)
	}
}

// Fetch reads a trip by id, including trips owned by someone else, and
// merges it into the cache. It returns nil when the trip does not exist.
func (t *Trips) Fetch(ctx context.Context, id string) (*models.Trip, error) {
	if t.uid() == "" {
		return nil, nil
	}
	trip, ok, err := t.c.Fetch(ctx, id)
	if err != nil || !ok {
		return nil, err
	}
	return &trip, nil
}

// LoadShared fetches a trip and then, in parallel, its expenses and
// photos. Failures of the two group loads are logged and leave those
// groups as they were.
func (t *Trips) LoadShared(ctx context.Context, id string) (*models.Trip, error) {
	trip, err := t.Fetch(ctx, id)
	if err != nil || trip == nil {
		return trip, err
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if _, err := t.expenses.FetchForTrip(ctx, id); err != nil {
			t.logger.Error(ctx, "could not load shared trip expenses", "trip_id", id, "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := t.photos.FetchForTrip(ctx, id); err != nil {
			t.logger.Error(ctx, "could not load shared trip photos", "trip_id", id, "error", err)
		}
	}()
	wg.Wait()

	return trip, nil
}

// Load replaces the cache with uid's trips, newest first.
func (t *Trips) Load(ctx context.Context, uid string) error {
	return t.c.Load(ctx, gateway.Where(models.FieldUserID, uid).Ordered(models.FieldCreatedAt, gateway.Desc))
}
