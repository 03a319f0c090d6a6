// Package models defines the travel entities kept in the client cache and
// their wire documents.
package models

import (
	"time"
)

// Collection names in the remote document store.
const (
	CollectionTrips    = "trips"
	CollectionExpenses = "expenses"
	CollectionPhotos   = "photos"
	CollectionUsers    = "users"
)

// Wire field names used in queries.
const (
	FieldUserID    = "userId"
	FieldTripID    = "tripId"
	FieldCreatedAt = "createdAt"
)

// Category classifies an expense.
type Category string

const (
	CategoryTransport     Category = "transport"
	CategoryAccommodation Category = "accommodation"
	CategoryFood          Category = "food"
	CategorySightseeing   Category = "sightseeing"
	CategoryShopping      Category = "shopping"
	CategoryOther         Category = "other"
)

var Categories = []Category{
	CategoryTransport,
	CategoryAccommodation,
	CategoryFood,
	CategorySightseeing,
	CategoryShopping,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

// Currency is an ISO 4217 code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
	AUD Currency = "AUD"
	CAD Currency = "CAD"
	CHF Currency = "CHF"
	CNY Currency = "CNY"
	SEK Currency = "SEK"
	NZD Currency = "NZD"
	BRL Currency = "BRL"
)

var Currencies = []Currency{USD, EUR, GBP, JPY, AUD, CAD, CHF, CNY, SEK, NZD, BRL}

// Known reports whether c is one of the supported currencies.
func (c Currency) Known() bool {
	for _, v := range Currencies {
		if v == c {
			return true
		}
	}
	return false
}

// Now returns the current time as Unix milliseconds.
var Now = func() int64 { return time.Now().UnixMilli() }

// ParseDate turns an ISO-8601 date or timestamp into Unix milliseconds.
// ok is false for empty or unparseable input.
func ParseDate(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), true
		}
	}
	return 0, false
}
