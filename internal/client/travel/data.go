// Package travel wires the generic optimistic store to the trip, expense
// and photo entities. Data is the root object an application constructs
// once and shares.
package travel

import (
	"github.com/dmitrijs2005/tripkeeper/internal/client/identity"
	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/store"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
	"github.com/dmitrijs2005/tripkeeper/internal/logging"
	"github.com/dmitrijs2005/tripkeeper/internal/metrics"
)

// Data owns every cache of the travel domain.
type Data struct {
	Trips    *Trips
	Expenses *Expenses
	Photos   *Photos
	Profile  *Profile
}

type Option func(*config)

type config struct {
	logger  logging.Logger
	metrics metrics.Recorder
}

func WithLogger(l logging.Logger) Option {
	return func(c *config) { c.logger = l }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(c *config) { c.metrics = m }
}

// New builds the caches on top of gw. Mutations act on behalf of the
// identity held by ident and are no-ops while it is empty.
func New(gw gateway.Gateway, ident *identity.Signal, opts ...Option) *Data {
	cfg := config{logger: logging.Nop{}, metrics: metrics.Noop{}}
	for _, o := range opts {
		o(&cfg)
	}
	storeOpts := []store.Option{store.WithLogger(cfg.logger), store.WithMetrics(cfg.metrics)}

	expenses := store.New(gw, store.Schema[models.Expense]{
		Collection:  models.CollectionExpenses,
		ID:          func(e models.Expense) string { return e.ID },
		WithID:      func(e models.Expense, id string) models.Expense { e.ID = id; return e },
		Parent:      func(e models.Expense) string { return e.TripID },
		WithParent:  func(e models.Expense, tripID string) models.Expense { e.TripID = tripID; return e },
		ParentField: models.FieldTripID,
		Less:        models.ExpenseLess,
		Decode:      models.DecodeExpense,
	}, storeOpts...)

	photos := store.New(gw, store.Schema[models.Photo]{
		Collection:  models.CollectionPhotos,
		ID:          func(p models.Photo) string { return p.ID },
		WithID:      func(p models.Photo, id string) models.Photo { p.ID = id; return p },
		Parent:      func(p models.Photo) string { return p.TripID },
		WithParent:  func(p models.Photo, tripID string) models.Photo { p.TripID = tripID; return p },
		ParentField: models.FieldTripID,
		Prepend:     true,
		Less:        models.PhotoLess,
		Decode:      models.DecodePhoto,
	}, storeOpts...)

	trips := store.New(gw, store.Schema[models.Trip]{
		Collection: models.CollectionTrips,
		ID:         func(t models.Trip) string { return t.ID },
		WithID:     func(t models.Trip, id string) models.Trip { t.ID = id; return t },
		Decode:     models.DecodeTrip,
		Children:   []store.Child{expenses, photos},
	}, storeOpts...)

	base := base{gw: gw, ident: ident, logger: cfg.logger}
	d := &Data{
		Expenses: &Expenses{base: base, c: expenses, trips: trips},
		Photos:   &Photos{base: base, c: photos, trips: trips},
		Profile:  &Profile{base: base},
	}
	d.Trips = &Trips{base: base, c: trips, expenses: d.Expenses, photos: d.Photos}
	return d
}

// Reset clears every cache.
func (d *Data) Reset() {
	d.Trips.Reset()
	d.Expenses.Reset()
	d.Photos.Reset()
	d.Profile.Reset()
}

type base struct {
	gw     gateway.Gateway
	ident  *identity.Signal
	logger logging.Logger
}

// uid returns the current identity's uid, or "" when nobody is signed in.
func (b base) uid() string {
	if id := b.ident.Current(); id != nil {
		return id.UID
	}
	return ""
}

// tripKnown resolves tripID through promotions and reports whether the
// trip is cached or has a group in children.
func tripKnown[E any](trips *store.Collection[models.Trip], children *store.Collection[E], tripID string) (string, bool) {
	id := children.Resolve(tripID)
	if _, ok := trips.Get(id); ok {
		return id, true
	}
	return id, children.Has(id)
}

// Upload is a file to store as a blob.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}
