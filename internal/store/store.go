// Package store is the replicated roster document store: per-record writes,
// bounded batched writes, one-shot listing and full-snapshot subscriptions.
package store

import (
	"context"
	"errors"

	"infinite-experiment/poolroster/internal/models/entities"
)

// Collection names a document collection.
type Collection string

const (
	Guests  Collection = "guests"
	History Collection = "history_logs"
)

// MaxBatchOps is the largest number of operations a single BatchWrite accepts.
const MaxBatchOps = 300

var (
	ErrNotFound      = errors.New("document not found")
	ErrBatchTooLarge = errors.New("batch exceeds maximum operation count")
)

// Fields is a partial update keyed by column name, applied with merge
// semantics: columns not named are left untouched.
type Fields map[string]any

// Guest columns writable through Update.
const (
	FieldIsChecked    = "is_checked"
	FieldIsNewArrival = "is_new_arrival"
	FieldName         = "name"
	FieldRoom         = "room"
)

type OpKind int

const (
	OpCreate OpKind = iota
	OpDelete
)

// Op is one operation inside a batched write.
type Op[T any] struct {
	Kind OpKind
	ID   string
	Doc  T
}

func CreateOp[T any](doc T) Op[T] {
	return Op[T]{Kind: OpCreate, Doc: doc}
}

func DeleteOp[T any](id string) Op[T] {
	return Op[T]{Kind: OpDelete, ID: id}
}

// Unsubscribe stops a subscription. Calling it more than once is safe.
type Unsubscribe func()

// DocumentStore is the contract the roster core needs from the store.
//
// Subscribe delivers the full current collection on every change,
// asynchronously and out-of-band with local writes: a write returns before
// any subscriber sees its effect. A snapshot the store already holds is
// delivered before Subscribe returns.
type DocumentStore[T any] interface {
	Create(ctx context.Context, doc T) (T, error)
	Update(ctx context.Context, id string, fields Fields) error
	Delete(ctx context.Context, id string) error
	BatchWrite(ctx context.Context, ops []Op[T]) error
	Subscribe(onSnapshot func([]T), onError func(error)) Unsubscribe
	ListOnce(ctx context.Context) ([]T, error)
}

type GuestStore = DocumentStore[entities.Guest]

type HistoryStore = DocumentStore[entities.HistoryLogEntry]

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || size > MaxBatchOps {
		size = MaxBatchOps
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
