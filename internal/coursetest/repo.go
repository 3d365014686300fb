package coursetest

import "context"

// TestRepo persists tests. Lookups return an error wrapping ErrNotFound when
// nothing matches; writes wrap ErrConflict on uniqueness violations.
type TestRepo interface {
	// LockPart serializes ordinal changes within one part for the rest of
	// the transaction.
	LockPart(ctx context.Context, partID string) error
	Count(ctx context.Context, partID string) (int, error)
	FindByTitle(ctx context.Context, partID, title string) (Test, error)
	FindByPartAndSequence(ctx context.Context, partID string, seq int) (Test, error)
	Get(ctx context.Context, id string) (Test, error)
	ListByPart(ctx context.Context, partID string) ([]Test, error)
	// ListAfter returns the tests of a part with a sequence number greater
	// than seq, ascending.
	ListAfter(ctx context.Context, partID string, seq int) ([]Test, error)

	Insert(ctx context.Context, t Test) error
	Update(ctx context.Context, t Test) error
	SetSequenceNumber(ctx context.Context, id string, seq int) error
	Delete(ctx context.Context, id string) error
}

type AttemptRepo interface {
	Count(ctx context.Context, userID, testID string) (int, error)
	// HasPassed reports whether any CORRECT attempt exists for the pair.
	HasPassed(ctx context.Context, userID, testID string) (bool, error)
	Insert(ctx context.Context, a TestAttempt) error
	List(ctx context.Context, userID, testID string) ([]TestAttempt, error)
}

type PartResolver interface {
	FindPart(ctx context.Context, id string) (Part, error)
}

type UserResolver interface {
	FindUser(ctx context.Context, id string) (User, error)
}

// RewardLedger receives point requests. Only the request is initiated here;
// processing it belongs to the points module.
type RewardLedger interface {
	AddPointRequest(ctx context.Context, user User) error
}

// Tx is one unit of work. Everything it hands out shares the same underlying
// transaction, so a failure anywhere rolls back every step.
type Tx interface {
	Tests() TestRepo
	Attempts() AttemptRepo
	Parts() PartResolver
	Users() UserResolver
	Rewards() RewardLedger
}

type Store interface {
	// WithTx runs fn in a transaction, committing when it returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(Tx) error) error
}
