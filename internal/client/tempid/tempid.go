// Package tempid allocates local identities for entities that have not been
// confirmed by the remote store yet.
package tempid

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/tripkeeper/internal/common"
)

const Prefix = "temp-"

var now = time.Now

// Allocate returns temp-<unix millis>-<7 random base36 chars>.
func Allocate() string {
	return fmt.Sprintf("%s%d-%s", Prefix, now().UnixMilli(), common.RandBase36(7))
}

// IsTemporary reports whether id was produced by Allocate.
func IsTemporary(id string) bool {
	return strings.HasPrefix(id, Prefix)
}
