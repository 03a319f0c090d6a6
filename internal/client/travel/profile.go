package travel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

// Profile caches the current identity's user profile.
type Profile struct {
	base
	mu      sync.RWMutex
	current *models.UserProfile
}

// Current returns the cached profile or nil.
func (p *Profile) Current() *models.UserProfile {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	cp := *p.current
	return &cp
}

func (p *Profile) Reset() {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
}

func (p *Profile) set(u models.UserProfile) {
	p.mu.Lock()
	p.current = &u
	p.mu.Unlock()
}

// Fetch loads the profile, creating it on first access.
func (p *Profile) Fetch(ctx context.Context) (*models.UserProfile, error) {
	id := p.ident.Current()
	if id == nil {
		return nil, nil
	}

	doc, err := p.gw.GetDocument(ctx, models.CollectionUsers, id.UID)
	switch {
	case err == nil:
		u, err := models.DecodeProfile(doc, id.Email)
		if err != nil {
			return nil, err
		}
		p.set(u)
		return &u, nil
	case errors.Is(err, gateway.ErrNotFound):
		u := models.NewProfile(id.UID, id.Email, models.Now())
		if err := p.gw.SetDocument(ctx, models.CollectionUsers, id.UID, u.Doc()); err != nil {
			return nil, fmt.Errorf("create profile: %w", err)
		}
		p.set(u)
		return &u, nil
	default:
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
}

// Update writes the patch remotely and then to the cached profile.
func (p *Profile) Update(ctx context.Context, patch models.ProfilePatch) error {
	uid := p.uid()
	if uid == "" {
		return nil
	}

	patch.UpdatedAt = models.Now()
	if err := p.gw.UpdateDocument(ctx, models.CollectionUsers, uid, patch.Fields()); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	p.mu.Lock()
	if p.current != nil && p.current.UID == uid {
		u := patch.Apply(*p.current)
		p.current = &u
	}
	p.mu.Unlock()
	return nil
}
