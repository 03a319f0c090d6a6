package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tripkeeper/internal/client/models"
	"github.com/dmitrijs2005/tripkeeper/internal/client/payload"
)

// Profile prints the profile, or updates it with "name <value>" or
// "birthdate <YYYY-MM-DD>". A missing value clears the field.
func (a *App) Profile(ctx context.Context, args []string) error {
	if len(args) == 0 {
		p := a.data.Profile.Current()
		if p == nil {
			a.printf("No profile loaded\n")
			return nil
		}
		a.printf("%s <%s>\n", p.UID, p.Email)
		if p.Name != nil {
			a.printf("  name: %s\n", *p.Name)
		}
		if p.BirthDate != nil {
			a.printf("  birth date: %s\n", *p.BirthDate)
		}
		return nil
	}

	value := payload.Clear[string]()
	if len(args) > 1 {
		value = payload.Some(strings.Join(args[1:], " "))
	}

	var patch models.ProfilePatch
	switch args[0] {
	case "name":
		patch.Name = value
	case "birthdate":
		if v, ok := value.Get(); ok {
			if _, ok := models.ParseDate(v); !ok {
				return fmt.Errorf("%q is not a date", v)
			}
		}
		patch.BirthDate = value
	default:
		return fmt.Errorf("unknown profile field %q", args[0])
	}

	if err := a.data.Profile.Update(ctx, patch); err != nil {
		return err
	}
	a.printf("Profile updated\n")
	return nil
}
