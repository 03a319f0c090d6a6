package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
	"github.com/dmitrijs2005/tripkeeper/internal/client/travel"
	"github.com/dmitrijs2005/tripkeeper/internal/client/views"
	"github.com/dmitrijs2005/tripkeeper/internal/filex"
)

var errUsage = errors.New("missing argument")

// loadFileFn is a test seam for reading uploads from disk.
var loadFileFn = filex.Load

func readUpload(path string) (*travel.Upload, error) {
	f, err := loadFileFn(path)
	if err != nil {
		return nil, err
	}
	return &travel.Upload{Name: f.Name, ContentType: f.ContentType, Data: f.Data}, nil
}

func (a *App) trip(args []string) (models.Trip, error) {
	if len(args) == 0 {
		return models.Trip{}, fmt.Errorf("%w: trip id", errUsage)
	}
	trip, ok := a.data.Trips.Get(args[0])
	if !ok {
		return models.Trip{}, fmt.Errorf("trip %s not found", args[0])
	}
	return trip, nil
}

func (a *App) ownTrip(args []string) (models.Trip, error) {
	trip, err := a.trip(args)
	if err != nil {
		return trip, err
	}
	if !views.IsOwner(trip, a.signal.Current()) {
		return trip, fmt.Errorf("trip %s is shared with you and read-only", trip.ID)
	}
	return trip, nil
}

func (a *App) ListTrips(ctx context.Context) error {
	trips := a.data.Trips.List()
	if len(trips) == 0 {
		a.printf("No trips\n")
		return nil
	}
	for _, t := range trips {
		a.printf("%s  %s (%s) %s..%s %s\n", t.ID, t.Title, t.Destination, t.StartDate, t.EndDate, t.Currency)
	}
	return nil
}

func (a *App) ShowTrip(ctx context.Context, args []string) error {
	trip, err := a.trip(args)
	if err != nil {
		return err
	}
	a.printTrip(trip)
	return nil
}

// OpenShared loads a trip by id, with its expenses and photos, regardless
// of who owns it.
func (a *App) OpenShared(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: trip id", errUsage)
	}
	trip, err := a.data.Trips.LoadShared(ctx, args[0])
	if err != nil {
		return err
	}
	if trip == nil {
		return fmt.Errorf("trip %s not found", args[0])
	}
	a.printTrip(*trip)
	return nil
}

func (a *App) printTrip(t models.Trip) {
	owner := "yours"
	if !views.IsOwner(t, a.signal.Current()) {
		owner = "shared, read-only"
	}
	a.printf("%s (%s)\n  %s, %s..%s, %s\n", t.Title, owner, t.Destination, t.StartDate, t.EndDate, t.Currency)
	if t.Notes != nil {
		a.printf("  notes: %s\n", *t.Notes)
	}
	if t.PictureURL != nil {
		a.printf("  cover: %s\n", *t.PictureURL)
	}

	s := views.TripSpending(a.data, t.ID)
	a.printf("  spent: %.2f %s\n", s.Total, t.Currency)
	if t.Budget != nil && s.Remaining != nil {
		a.printf("  budget: %.2f, remaining: %.2f\n", *t.Budget, *s.Remaining)
	}
	if len(s.ByCategory) > 0 {
		cats := make([]string, 0, len(s.ByCategory))
		for c, v := range s.ByCategory {
			cats = append(cats, fmt.Sprintf("%s %.2f", c, v))
		}
		sort.Strings(cats)
		a.printf("  by category: %s\n", strings.Join(cats, ", "))
	}

	expenses := views.Expenses(a.data, t.ID)
	a.printf("  expenses (%d):\n", len(expenses))
	for _, e := range expenses {
		date := "-"
		if e.Date != nil {
			date = *e.Date
		}
		a.printf("    %s %s %-13s %10.2f %s %s\n", e.ID, date, e.Category, e.Amount, e.Currency, e.Description)
	}

	photos := views.Photos(a.data, t.ID)
	a.printf("  photos (%d):\n", len(photos))
	for _, p := range photos {
		caption := ""
		if p.Caption != nil {
			caption = *p.Caption
		}
		a.printf("    %s %s %s\n", p.ID, p.URL, caption)
	}
}

func (a *App) AddTrip(ctx context.Context) error {
	var d models.TripDraft
	var err error

	if d.Title, err = GetSimpleText(a.scanner, "Title", a.out); err != nil {
		return err
	}
	if d.Destination, err = GetSimpleText(a.scanner, "Destination", a.out); err != nil {
		return err
	}
	if d.StartDate, err = a.getDate("Start date (YYYY-MM-DD)"); err != nil {
		return err
	}
	if d.EndDate, err = a.getDate("End date (YYYY-MM-DD)"); err != nil {
		return err
	}
	if d.Currency, err = a.getCurrency(""); err != nil {
		return err
	}
	if d.Budget, err = GetAmount(a.scanner, "Budget", a.out, true); err != nil {
		return err
	}
	if d.Notes, err = GetOptionalText(a.scanner, "Notes", a.out); err != nil {
		return err
	}
	picture, err := GetOptionalText(a.scanner, "Cover picture file", a.out)
	if err != nil {
		return err
	}

	if d.Title == "" {
		return errors.New("title is required")
	}

	var upload *travel.Upload
	if picture != nil {
		if upload, err = readUpload(*picture); err != nil {
			return err
		}
	}

	trip, err := a.data.Trips.Create(ctx, d, upload)
	if err != nil {
		return err
	}
	a.printf("Trip created: %s\n", trip.ID)
	return nil
}

// EditNotes replaces a trip's notes. An empty answer removes them.
func (a *App) EditNotes(ctx context.Context, args []string) error {
	trip, err := a.ownTrip(args)
	if err != nil {
		return err
	}
	notes, err := GetSimpleText(a.scanner, "Notes (empty to remove)", a.out)
	if err != nil {
		return err
	}

	patch := models.TripPatch{Notes: payload.Some(notes)}
	if notes == "" {
		patch.Notes = payload.Clear[string]()
	}
	if err := a.data.Trips.Update(ctx, trip.ID, patch, nil, false); err != nil {
		return err
	}
	a.printf("Notes updated\n")
	return nil
}

func (a *App) DeleteTrip(ctx context.Context, args []string) error {
	trip, err := a.ownTrip(args)
	if err != nil {
		return err
	}
	if err := a.data.Trips.Delete(ctx, trip.ID); err != nil {
		return err
	}
	a.printf("Trip deleted: %s\n", trip.ID)
	return nil
}

func (a *App) getDate(prompt string) (string, error) {
	s, err := GetSimpleText(a.scanner, prompt, a.out)
	if err != nil {
		return "", err
	}
	if _, ok := models.ParseDate(s); !ok {
		return "", fmt.Errorf("%q is not a date", s)
	}
	return s, nil
}

// getCurrency reads a currency code; an empty answer picks def when set.
func (a *App) getCurrency(def models.Currency) (models.Currency, error) {
	prompt := "Currency"
	if def != "" {
		prompt += fmt.Sprintf(" (default %s)", def)
	}
	s, err := GetSimpleText(a.scanner, prompt, a.out)
	if err != nil {
		return "", err
	}
	c := models.Currency(strings.ToUpper(s))
	if c == "" {
		c = def
	}
	if !c.Known() {
		return "", fmt.Errorf("unknown currency %q", s)
	}
	return c, nil
}
