// Package remote defines the narrow contract the storefront needs from the
// hosted document database: CRUD on named collections and live queries that
// push the full result set on every change.
package remote

import (
	"context"
	"errors"
)

const (
	CollectionBakeries  = "bakeries"
	CollectionMenuItems = "menuItems"
	CollectionOrders    = "orders"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrClosed   = errors.New("store closed")
)

// Document is one stored record. ID is assigned by the store and is not part
// of Fields.
type Document struct {
	ID     string
	Fields map[string]any
}

// Query selects documents of one collection whose fields equal every entry of
// Where, sorted ascending by OrderBy when set.
type Query struct {
	Collection string
	Where      map[string]any
	OrderBy    string
}

// SnapshotFunc receives the full current result of a live query, or the error
// that interrupted it.
type SnapshotFunc func(docs []Document, err error)

// Subscription is the handle of a live query. Cancel blocks until the delivery
// goroutine has stopped; no SnapshotFunc call starts after it returns. Cancel
// must not be called from inside the SnapshotFunc.
type Subscription interface {
	Cancel()
}

type Store interface {
	Get(ctx context.Context, q Query) ([]Document, error)
	Add(ctx context.Context, collection string, fields map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Subscribe(ctx context.Context, q Query, fn SnapshotFunc) (Subscription, error)
}
