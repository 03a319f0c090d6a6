package models

import (
	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

// UserProfile is stored in the users collection under the owner's uid.
type UserProfile struct {
	UID       string  `json:"uid"`
	Email     string  `json:"email"`
	Name      *string `json:"name,omitempty"`
	BirthDate *string `json:"birthDate,omitempty"`
	CreatedAt int64   `json:"createdAt"`
	UpdatedAt int64   `json:"updatedAt"`
}

// NewProfile is the profile written on first access.
func NewProfile(uid, email string, now int64) UserProfile {
	return UserProfile{UID: uid, Email: email, CreatedAt: now, UpdatedAt: now}
}

func (p UserProfile) Doc() payload.Doc {
	d := payload.New().
		Set("email", p.Email).
		Set("createdAt", p.CreatedAt).
		Set("updatedAt", p.UpdatedAt)
	payload.PutPtr(d, "name", p.Name)
	payload.PutPtr(d, "birthDate", p.BirthDate)
	return d
}

// DecodeProfile reads a users document; email falls back to the identity's.
func DecodeProfile(doc gateway.Document, email string) (UserProfile, error) {
	var p UserProfile
	if err := doc.Decode(&p); err != nil {
		return UserProfile{}, err
	}
	p.UID = doc.ID
	if email != "" {
		p.Email = email
	}
	return p, nil
}

type ProfilePatch struct {
	Name      payload.Opt[string]
	BirthDate payload.Opt[string]
	UpdatedAt int64
}

func (p ProfilePatch) Apply(u UserProfile) UserProfile {
	u.Name = p.Name.Apply(u.Name)
	u.BirthDate = p.BirthDate.Apply(u.BirthDate)
	if p.UpdatedAt != 0 {
		u.UpdatedAt = p.UpdatedAt
	}
	return u
}

func (p ProfilePatch) Fields() payload.Doc {
	d := payload.New()
	if p.UpdatedAt != 0 {
		d.Set("updatedAt", p.UpdatedAt)
	}
	payload.Put(d, "name", p.Name)
	payload.Put(d, "birthDate", p.BirthDate)
	return d
}
