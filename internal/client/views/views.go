// Package views derives read-only projections from the travel caches. They
// are recomputed on every call.
package views

import (
	"github.com/dmitrijs2005/tripkeeper/internal/client/identity"
	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/travel"
)

// IsOwner reports whether the current identity owns the trip.
func IsOwner(trip models.Trip, id *identity.Identity) bool {
	return id != nil && trip.UserID != "" && trip.UserID == id.UID
}

// Expenses is the trip's expense list by date, then amount descending.
func Expenses(d *travel.Data, tripID string) []models.Expense {
	return d.Expenses.ForTrip(tripID)
}

// Photos is the trip's photo list, newest first.
func Photos(d *travel.Data, tripID string) []models.Photo {
	return d.Photos.ForTrip(tripID)
}

// InTripCurrency converts an expense amount with its exchange rate. A
// missing rate counts as 1.
func InTripCurrency(e models.Expense) float64 {
	if e.ExchangeRate == nil {
		return e.Amount
	}
	return e.Amount * *e.ExchangeRate
}

// Spending summarizes a trip's expenses in the trip currency.
type Spending struct {
	Total      float64
	ByCategory map[models.Category]float64
	// Remaining is nil when the trip has no budget.
	Remaining *float64
}

// TripSpending totals the cached expenses of a trip.
func TripSpending(d *travel.Data, tripID string) Spending {
	s := Spending{ByCategory: make(map[models.Category]float64)}
	for _, e := range d.Expenses.ForTrip(tripID) {
		v := InTripCurrency(e)
		s.Total += v
		s.ByCategory[e.Category] += v
	}
	if trip, ok := d.Trips.Get(tripID); ok && trip.Budget != nil {
		r := *trip.Budget - s.Total
		s.Remaining = &r
	}
	return s
}
