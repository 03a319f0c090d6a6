package store

import (
	"errors"

	"github.com/dmitrijs2005/tripkeeper/internal/gateway"
)

func isNotFound(err error) bool {
	return errors.Is(err, gateway.ErrNotFound)
}
