package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/tripkeeper/internal/client/views"
)

// Report prints a summary of everything loaded for the signed-in user.
func (a *App) Report(ctx context.Context) error {
	id := a.signal.Current()
	if id == nil {
		return errors.New("not signed in")
	}
	state, _ := a.orch.State()
	a.printf("User %s <%s>, %s\n", id.UID, id.Email, state)

	if p := a.data.Profile.Current(); p != nil && p.Name != nil {
		a.printf("Name: %s\n", *p.Name)
	}

	trips := a.data.Trips.List()
	a.printf("Trips: %d, expenses: %d, photos: %d\n", len(trips), a.data.Expenses.Len(), a.data.Photos.Len())
	for _, t := range trips {
		s := views.TripSpending(a.data, t.ID)
		line := "  %s %-24s %d expense(s), %d photo(s), spent %.2f %s"
		args := []any{t.ID, t.Title, len(views.Expenses(a.data, t.ID)), len(views.Photos(a.data, t.ID)), s.Total, t.Currency}
		if s.Remaining != nil {
			line += ", remaining %.2f"
			args = append(args, *s.Remaining)
		}
		a.printf(line+"\n", args...)
	}
	return nil
}
