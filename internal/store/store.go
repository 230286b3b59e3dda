// Package store defines the remote data store contract used by services and
// client mirrors, with a gorm implementation and an in-process change broker.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by First when no row matches.
var ErrNotFound = errors.New("store: record not found")

// Cond is a single column predicate. Op is one of =, <>, <, <=, >, >=, IN, LIKE.
type Cond struct {
	Column string
	Op     string
	Value  any
}

// Eq builds an equality predicate.
func Eq(column string, value any) Cond { return Cond{Column: column, Op: "=", Value: value} }

// In builds a membership predicate.
func In(column string, values any) Cond { return Cond{Column: column, Op: "IN", Value: values} }

// Scope restricts rows to one owner. With IncludeShared, rows whose owner
// column is NULL are visible too.
type Scope struct {
	Column        string
	OwnerID       string
	IncludeShared bool
}

// Query filters, orders and pages a table read or delete.
// A zero Query matches every row.
type Query struct {
	Where  []Cond
	Scope  *Scope
	Order  string
	Limit  int
	Offset int
}

// EventType is the kind of change delivered to subscribers.
type EventType string

const (
	EventInsert EventType = "insert"
	EventUpdate EventType = "update"
	EventDelete EventType = "delete"
)

// Event describes one committed row change. Old is nil on insert and New is
// nil on delete; both hold pointers to copies of the row.
type Event struct {
	Type  EventType `json:"type"`
	Table string    `json:"table"`
	Old   any       `json:"old,omitempty"`
	New   any       `json:"new,omitempty"`
}

// Listener receives change events.
type Listener func(Event)

// Store is the remote data store contract.
type Store interface {
	// Find loads every row matching q into dest, a pointer to a slice.
	Find(ctx context.Context, dest any, q Query) error
	// First loads exactly one row into dest or returns ErrNotFound.
	First(ctx context.Context, dest any, q Query) error
	// Count counts rows of model matching q.
	Count(ctx context.Context, model any, q Query) (int64, error)
	// Upsert inserts or replaces rows by primary key. rows is a pointer to a
	// struct or to a slice of structs.
	Upsert(ctx context.Context, rows any) error
	// Insert inserts rows and fails if any primary key already exists.
	Insert(ctx context.Context, rows any) error
	// Delete removes the rows of model matching q and reports how many.
	Delete(ctx context.Context, model any, q Query) (int64, error)
	// Subscribe registers l for changes to table until cancel is called.
	Subscribe(table string, l Listener) (cancel func())
	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
