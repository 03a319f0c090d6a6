package travel

import (
	"context"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/client/store"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

type Expenses struct {
	base
	c     *store.Collection[models.Expense]
	trips *store.Collection[models.Trip]
}

// ForTrip returns the trip's expenses by date, then by amount descending.
func (e *Expenses) ForTrip(tripID string) []models.Expense { return e.c.ByParent(tripID) }

func (e *Expenses) Get(id string) (models.Expense, bool)  { return e.c.Get(id) }
func (e *Expenses) Len() int                              { return e.c.Len() }
func (e *Expenses) Snapshot() map[string][]models.Expense { return e.c.Snapshot() }
func (e *Expenses) Reset()                                { e.c.Reset() }
func (e *Expenses) HasTrip(tripID string) bool            { return e.c.Has(tripID) }

func (e *Expenses) Subscribe(fn func(store.Event[models.Expense])) func() {
	return e.c.Subscribe(fn)
}

// Create adds an expense to a known trip. An unknown trip is a no-op.
func (e *Expenses) Create(ctx context.Context, draft models.ExpenseDraft) (*models.Expense, error) {
	uid := e.uid()
	if uid == "" {
		return nil, nil
	}
	tripID, ok := tripKnown(e.trips, e.c, draft.TripID)
	if !ok {
		return nil, nil
	}
	draft.TripID = tripID

	created, err := e.c.Create(ctx, draft.Expense(), func(_ context.Context, exp models.Expense) (models.Expense, payload.Doc, error) {
		return exp, exp.Doc(uid), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (e *Expenses) Update(ctx context.Context, id string, patch models.ExpensePatch) error {
	if e.uid() == "" {
		return nil
	}
	return e.c.Update(ctx, id, patch, nil)
}

func (e *Expenses) Delete(ctx context.Context, id string) error {
	if e.uid() == "" {
		return nil
	}
	return e.c.Delete(ctx, id, nil)
}

// FetchForTrip replaces the trip's group with its remote expenses,
// whoever owns them.
func (e *Expenses) FetchForTrip(ctx context.Context, tripID string) ([]models.Expense, error) {
	if e.uid() == "" {
		return nil, nil
	}
	return e.c.FetchByParent(ctx, models.FieldTripID, tripID, nil)
}

// Load replaces the cache with every expense owned by uid.
func (e *Expenses) Load(ctx context.Context, uid string) error {
	return e.c.Load(ctx, gateway.Where(models.FieldUserID, uid))
}
