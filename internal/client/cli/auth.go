package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/client/identity"
	"github.com/dmitrijs2005/tripkeeper/internal/server/auth"
)

const devTokenValidity = time.Hour

func (a *App) isLoggedIn() bool {
	return a.signal.Current() != nil
}

// tokenFor mints a development token when a signing secret is configured
// and falls back to the configured token otherwise.
func (a *App) tokenFor(uid, email string) (string, error) {
	if a.config.DevSecret != "" {
		return auth.GenerateToken(uid, email, []byte(a.config.DevSecret), devTokenValidity)
	}
	return a.config.Token, nil
}

// refreshToken runs inside gateway calls, possibly while the orchestrator
// is loading, so it must not touch the identity signal.
func (a *App) refreshToken(ctx context.Context) (string, error) {
	id := a.signal.Current()
	if id == nil {
		return "", errors.New("not signed in")
	}
	return a.tokenFor(id.UID, id.Email)
}

// Login signs in as the uid and email given as arguments or prompted for.
// Setting the identity loads the user's data.
func (a *App) Login(ctx context.Context, args []string) error {
	var uid, email string
	if len(args) > 0 {
		uid = args[0]
	}
	if len(args) > 1 {
		email = args[1]
	}

	var err error
	if uid == "" {
		if uid, err = GetSimpleText(a.scanner, "User ID", a.out); err != nil {
			return err
		}
		if email, err = GetSimpleText(a.scanner, "Email", a.out); err != nil {
			return err
		}
	}
	if uid == "" {
		return errors.New("user id is required")
	}

	tok, err := a.tokenFor(uid, email)
	if err != nil {
		return err
	}

	a.signal.Set(&identity.Identity{UID: uid, Email: email, Token: tok})
	a.printf("Signed in as %s: %d trip(s)\n", uid, a.data.Trips.Len())
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.signal.Clear()
	a.printf("Signed out\n")
	return nil
}
