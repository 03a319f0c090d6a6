package models

import (
	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

// Photo is the client-facing photo. The blob storage path lives only on
// the remote document.
type Photo struct {
	ID        string  `json:"id"`
	TripID    string  `json:"tripId"`
	URL       string  `json:"url"`
	Caption   *string `json:"caption,omitempty"`
	Date      *string `json:"date,omitempty"`
	CreatedAt int64   `json:"createdAt"`
}

type PhotoDraft struct {
	TripID  string
	URL     string
	Caption *string
	Date    *string
}

func (d PhotoDraft) Photo(now int64) Photo {
	return Photo{
		TripID:    d.TripID,
		URL:       d.URL,
		Caption:   d.Caption,
		Date:      d.Date,
		CreatedAt: now,
	}
}

// Doc is the create payload for p owned by uid. storagePath is written
// only when the photo's blob was uploaded by this client.
func (p Photo) Doc(uid, storagePath string) payload.Doc {
	d := payload.New().
		Set("tripId", p.TripID).
		Set("userId", uid).
		Set("url", p.URL).
		Set("createdAt", p.CreatedAt)
	payload.PutPtr(d, "caption", p.Caption)
	payload.PutPtr(d, "date", p.Date)
	if storagePath != "" {
		d.Set("storagePath", storagePath)
	}
	return d
}

// PhotoLess orders newest first.
func PhotoLess(a, b Photo) bool {
	return a.CreatedAt > b.CreatedAt
}

func DecodePhoto(doc gateway.Document) (Photo, error) {
	var p Photo
	err := doc.Decode(&p)
	return p, err
}

// StoragePath reads the blob path from a photo document.
func StoragePath(doc gateway.Document) string {
	s, _ := doc.Fields["storagePath"].(string)
	return s
}

type PhotoPatch struct {
	URL     payload.Opt[string]
	Caption payload.Opt[string]
	Date    payload.Opt[string]
}

func (p PhotoPatch) Apply(ph Photo) Photo {
	if v, ok := p.URL.Get(); ok {
		ph.URL = v
	}
	ph.Caption = p.Caption.Apply(ph.Caption)
	ph.Date = p.Date.Apply(ph.Date)
	return ph
}

func (p PhotoPatch) Fields() payload.Doc {
	d := payload.New()
	payload.Put(d, "url", p.URL)
	payload.Put(d, "caption", p.Caption)
	payload.Put(d, "date", p.Date)
	return d
}
