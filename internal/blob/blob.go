// Package blob stores uploaded media and resolves references to fetchable
// locators. Events and history rows carry references only.
package blob

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Store persists media bytes.
type Store interface {
	// Put stores data and returns an opaque reference.
	Put(ctx context.Context, data []byte, ext string) (string, error)
	// URLFor turns a reference into a locator a client can fetch.
	URLFor(ref string) (string, error)
	// Delete removes the object behind ref. Deleting a missing object is not an error.
	Delete(ctx context.Context, ref string) error
}

func newObjectName(ext string) string {
	return fmt.Sprintf("%s.%s", strings.ReplaceAll(uuid.NewString(), "-", ""), ext)
}
