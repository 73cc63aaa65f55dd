// Package docstore defines the document store contract the order core is
// built on: flat JSON-like documents keyed by collection and id, with
// realtime snapshot subscriptions.
package docstore

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned by Get, Update, and Delete when no document exists
// under the given collection and id. Callers treat it as recoverable.
var ErrNotFound = errors.New("document not found")

// Document is a flat map of fields, the unit of storage.
type Document map[string]any

// Clone returns a shallow copy with nested []any slices copied one level
// deep, enough to keep stored line arrays from aliasing caller memory.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if arr, ok := v.([]any); ok {
			cp := make([]any, len(arr))
			copy(cp, arr)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

// Query selects and orders documents of a collection. A zero FilterField
// matches everything.
type Query struct {
	FilterField string
	FilterValue string
	OrderBy     string
	Descending  bool
}

// Subscription is a realtime feed of full result snapshots for one query.
// The channel delivers the current matching document list after every
// relevant mutation; stale snapshots are coalesced so slow consumers only
// see the latest state. Stop releases the subscription and closes C.
type Subscription struct {
	C    <-chan []Document
	Stop func()
}

// Store is the persistence contract: point writes, point reads, filtered
// ordered queries, and snapshot subscriptions.
type Store interface {
	Set(ctx context.Context, collection, id string, doc Document) error
	Update(ctx context.Context, collection, id string, fields Document) error
	Delete(ctx context.Context, collection, id string) error
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Subscribe(ctx context.Context, collection string, q Query) (*Subscription, error)
}
