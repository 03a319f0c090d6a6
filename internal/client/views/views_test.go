package views

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/tripkeeper/internal/client/identity"
	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/travel"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway/memory"
)

func ptr[T any](v T) *T { return &v }

func TestIsOwner(t *testing.T) {
	trip := models.Trip{UserID: "u1"}
	assert.True(t, IsOwner(trip, &identity.Identity{UID: "u1"}))
	assert.False(t, IsOwner(trip, &identity.Identity{UID: "u2"}))
	assert.False(t, IsOwner(trip, nil))
	assert.False(t, IsOwner(models.Trip{}, &identity.Identity{}))
}

func TestTripSpending(t *testing.T) {
	ctx := context.Background()
	sig := identity.NewSignal()
	sig.Set(&identity.Identity{UID: "u1"})
	d := travel.New(memory.New(), sig)

	trip, err := d.Trips.Create(ctx, models.TripDraft{Title: "Tokyo", Currency: models.EUR, Budget: ptr(1000.0)}, nil)
	require.NoError(t, err)

	drafts := []models.ExpenseDraft{
		{TripID: trip.ID, Amount: 100, Currency: models.EUR, Category: models.CategoryFood, Date: ptr("2025-05-02")},
		{TripID: trip.ID, Amount: 10000, Currency: models.JPY, ExchangeRate: ptr(0.006), Category: models.CategoryTransport, Date: ptr("2025-05-01")},
		{TripID: trip.ID, Amount: 50, Currency: models.EUR, Category: models.CategoryFood, Date: ptr("2025-05-02")},
	}
	for _, dr := range drafts {
		_, err := d.Expenses.Create(ctx, dr)
		require.NoError(t, err)
	}

	s := TripSpending(d, trip.ID)
	assert.InDelta(t, 210.0, s.Total, 1e-9)
	assert.InDelta(t, 150.0, s.ByCategory[models.CategoryFood], 1e-9)
	assert.InDelta(t, 60.0, s.ByCategory[models.CategoryTransport], 1e-9)
	require.NotNil(t, s.Remaining)
	assert.InDelta(t, 790.0, *s.Remaining, 1e-9)

	list := Expenses(d, trip.ID)
	require.Len(t, list, 3)
	assert.Equal(t, []float64{10000, 100, 50}, []float64{list[0].Amount, list[1].Amount, list[2].Amount})

	assert.Nil(t, TripSpending(d, "unknown").Remaining)
	assert.Empty(t, Photos(d, trip.ID))
}
