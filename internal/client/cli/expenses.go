package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/travel"
	"github.com/dmitrijs2005/tripkeeper/internal/client/views"
)

func (a *App) AddExpense(ctx context.Context, args []string) error {
	trip, err := a.ownTrip(args)
	if err != nil {
		return err
	}

	d := models.ExpenseDraft{TripID: trip.ID}
	if d.Description, err = GetSimpleText(a.scanner, "Description", a.out); err != nil {
		return err
	}
	amount, err := GetAmount(a.scanner, "Amount", a.out, false)
	if err != nil {
		return err
	}
	d.Amount = *amount
	if d.Currency, err = a.getCurrency(trip.Currency); err != nil {
		return err
	}
	if d.Currency != trip.Currency {
		prompt := fmt.Sprintf("Exchange rate to %s", trip.Currency)
		if d.ExchangeRate, err = GetAmount(a.scanner, prompt, a.out, true); err != nil {
			return err
		}
	}
	if d.Date, err = GetOptionalText(a.scanner, "Date (YYYY-MM-DD)", a.out); err != nil {
		return err
	}
	if d.Date != nil {
		if _, ok := models.ParseDate(*d.Date); !ok {
			return fmt.Errorf("%q is not a date", *d.Date)
		}
	}

	names := make([]string, len(models.Categories))
	for i, c := range models.Categories {
		names[i] = string(c)
	}
	cat, err := GetSimpleText(a.scanner, "Category ("+strings.Join(names, ", ")+")", a.out)
	if err != nil {
		return err
	}
	d.Category = models.Category(strings.ToLower(cat))
	if !d.Category.Valid() {
		return fmt.Errorf("unknown category %q", cat)
	}
	if d.PaidBy, err = GetOptionalText(a.scanner, "Paid by", a.out); err != nil {
		return err
	}

	if d.Description == "" {
		return errors.New("description is required")
	}

	e, err := a.data.Expenses.Create(ctx, d)
	if err != nil {
		return err
	}
	a.printf("Expense created: %s (%.2f %s)\n", e.ID, views.InTripCurrency(*e), trip.Currency)
	return nil
}

func (a *App) DeleteExpense(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: expense id", errUsage)
	}
	e, ok := a.data.Expenses.Get(args[0])
	if !ok {
		return fmt.Errorf("expense %s not found", args[0])
	}
	if _, err := a.ownTrip([]string{e.TripID}); err != nil {
		return err
	}
	if err := a.data.Expenses.Delete(ctx, e.ID); err != nil {
		return err
	}
	a.printf("Expense deleted: %s\n", e.ID)
	return nil
}

// AddPhotos uploads the files named after the trip id, reporting progress
// after each one.
func (a *App) AddPhotos(ctx context.Context, args []string) error {
	trip, err := a.ownTrip(args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: photo files", errUsage)
	}

	files := make([]travel.Upload, 0, len(args)-1)
	for _, path := range args[1:] {
		u, err := readUpload(path)
		if err != nil {
			return err
		}
		files = append(files, *u)
	}

	caption, err := GetOptionalText(a.scanner, "Caption", a.out)
	if err != nil {
		return err
	}

	photos, err := a.data.Photos.UploadMany(ctx, trip.ID, files, caption, nil, func(p travel.Progress) {
		a.printf("Uploaded %d/%d (%d%%)\n", p.Uploaded, p.Total, p.Percent)
	})
	if err != nil {
		return fmt.Errorf("uploaded %d of %d: %w", len(photos), len(files), err)
	}
	return nil
}

func (a *App) DeletePhoto(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: photo id", errUsage)
	}
	p, ok := a.data.Photos.Get(args[0])
	if !ok {
		return fmt.Errorf("photo %s not found", args[0])
	}
	if _, err := a.ownTrip([]string{p.TripID}); err != nil {
		return err
	}
	if err := a.data.Photos.Delete(ctx, p.ID); err != nil {
		return err
	}
	a.printf("Photo deleted: %s\n", p.ID)
	return nil
}
