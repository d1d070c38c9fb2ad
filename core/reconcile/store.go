package reconcile

import "context"

// Store is the keyed record store the engine reconciles into.
type Store interface {
	// WithinTx runs fn inside one commit scope. If fn returns an error, or the
	// commit fails, nothing fn did is kept and the error is returned.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Summary reports how many records an owner has from source and when the
	// newest one was created.
	Summary(ctx context.Context, ownerID, source string) (Summary, error)
}

// Tx is the set of operations available inside a commit scope.
type Tx interface {
	// FindByNaturalKey returns the record for key, or nil if there is none.
	FindByNaturalKey(ctx context.Context, key NaturalKey) (*Record, error)
	// Insert stores a new record and fills its generated fields.
	Insert(ctx context.Context, r *Record) error
	// Update overwrites a stored record.
	Update(ctx context.Context, r *Record) error
}
