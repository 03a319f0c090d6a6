package models

import (
	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

type Trip struct {
	ID          string   `json:"id"`
	UserID      string   `json:"userId"`
	Title       string   `json:"title"`
	Destination string   `json:"destination"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Budget      *float64 `json:"budget,omitempty"`
	Currency    Currency `json:"currency"`
	Notes       *string  `json:"notes,omitempty"`
	PictureURL  *string  `json:"pictureUrl,omitempty"`
	// PicturePath is the blob ref of the cover picture.
	PicturePath *string `json:"picturePath,omitempty"`
	CreatedAt   int64   `json:"createdAt"`
	UpdatedAt   int64   `json:"updatedAt"`
}

// TripDraft is what a caller supplies to create a trip.
type TripDraft struct {
	Title       string
	Destination string
	StartDate   string
	EndDate     string
	Budget      *float64
	Currency    Currency
	Notes       *string
	PictureURL  *string
}

// Trip builds the provisional entity for uid at time now.
func (d TripDraft) Trip(uid string, now int64) Trip {
	return Trip{
		UserID:      uid,
		Title:       d.Title,
		Destination: d.Destination,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Budget:      d.Budget,
		Currency:    d.Currency,
		Notes:       d.Notes,
		PictureURL:  d.PictureURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Doc is the create payload for t. Unset optional fields are omitted.
func (t Trip) Doc() payload.Doc {
	d := payload.New().
		Set("userId", t.UserID).
		Set("title", t.Title).
		Set("destination", t.Destination).
		Set("startDate", t.StartDate).
		Set("endDate", t.EndDate).
		Set("currency", string(t.Currency)).
		Set("createdAt", t.CreatedAt).
		Set("updatedAt", t.UpdatedAt)
	payload.PutPtr(d, "budget", t.Budget)
	payload.PutPtr(d, "notes", t.Notes)
	payload.PutPtr(d, "pictureUrl", t.PictureURL)
	payload.PutPtr(d, "picturePath", t.PicturePath)
	return d
}

func DecodeTrip(doc gateway.Document) (Trip, error) {
	var t Trip
	err := doc.Decode(&t)
	return t, err
}

// TripPatch is a partial trip update. UpdatedAt is stamped by the store.
type TripPatch struct {
	Title       payload.Opt[string]
	Destination payload.Opt[string]
	StartDate   payload.Opt[string]
	EndDate     payload.Opt[string]
	Budget      payload.Opt[float64]
	Currency    payload.Opt[Currency]
	Notes       payload.Opt[string]
	PictureURL  payload.Opt[string]
	PicturePath payload.Opt[string]
	UpdatedAt   int64
}

func (p TripPatch) Apply(t Trip) Trip {
	if v, ok := p.Title.Get(); ok {
		t.Title = v
	}
	if v, ok := p.Destination.Get(); ok {
		t.Destination = v
	}
	if v, ok := p.StartDate.Get(); ok {
		t.StartDate = v
	}
	if v, ok := p.EndDate.Get(); ok {
		t.EndDate = v
	}
	if v, ok := p.Currency.Get(); ok {
		t.Currency = v
	}
	t.Budget = p.Budget.Apply(t.Budget)
	t.Notes = p.Notes.Apply(t.Notes)
	t.PictureURL = p.PictureURL.Apply(t.PictureURL)
	t.PicturePath = p.PicturePath.Apply(t.PicturePath)
	if p.UpdatedAt != 0 {
		t.UpdatedAt = p.UpdatedAt
	}
	return t
}

func (p TripPatch) Fields() payload.Doc {
	d := payload.New()
	if p.UpdatedAt != 0 {
		d.Set("updatedAt", p.UpdatedAt)
	}
	payload.Put(d, "title", p.Title)
	payload.Put(d, "destination", p.Destination)
	payload.Put(d, "startDate", p.StartDate)
	payload.Put(d, "endDate", p.EndDate)
	payload.Put(d, "currency", p.Currency)
	payload.Put(d, "budget", p.Budget)
	payload.Put(d, "notes", p.Notes)
	payload.Put(d, "pictureUrl", p.PictureURL)
	payload.Put(d, "picturePath", p.PicturePath)
	return d
}
