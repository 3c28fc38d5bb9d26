package xid

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// New returns a prefixed identifier such as "sale-1a2b3c4d5e6f".
func New(prefix string) string {
	id, err := uuid.NewRandom()
	if err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	compact := strings.ReplaceAll(id.String(), "-", "")
	return fmt.Sprintf("%s-%s", prefix, compact[:12])
}

// Valid reports whether id carries the given prefix and a non-empty suffix.
func Valid(prefix string, id string) bool {
	rest, ok := strings.CutPrefix(id, prefix+"-")
	return ok && rest != ""
}
