package coursetest

import (
	"context"
	"fmt"
)

// Ledger appends grading attempts per (user, test).
type Ledger struct {
	Attempts AttemptRepo
}

// NextAttemptNumber returns 1 + the number of attempts already stored for
// the pair.
func (l Ledger) NextAttemptNumber(ctx context.Context, userID, testID string) (int, error) {
	n, err := l.Attempts.Count(ctx, userID, testID)
	if err != nil {
		return 0, fmt.Errorf("next attempt number: %w", err)
	}
	return n + 1, nil
}

// AlreadyPassed reports whether the user has a CORRECT attempt on the test.
func (l Ledger) AlreadyPassed(ctx context.Context, userID, testID string) (bool, error) {
	ok, err := l.Attempts.HasPassed(ctx, userID, testID)
	if err != nil {
		return false, fmt.Errorf("already passed: %w", err)
	}
	return ok, nil
}

// RecordIfNotDuplicate stores a with the next attempt number, but only when
// the pair already holds a passed attempt. The TestNumber of a is ignored.
// It reports whether a row was written.
//
// The gate keeps the behavior of the existing points workflow: a user's
// first correct answer is not written here.
func (l Ledger) RecordIfNotDuplicate(ctx context.Context, a TestAttempt) (bool, error) {
	passed, err := l.AlreadyPassed(ctx, a.UserID, a.TestID)
	if err != nil {
		return false, err
	}
	if !passed {
		return false, nil
	}
	next, err := l.NextAttemptNumber(ctx, a.UserID, a.TestID)
	if err != nil {
		return false, err
	}
	a.TestNumber = next
	if err := l.Attempts.Insert(ctx, a); err != nil {
		return false, fmt.Errorf("record attempt: %w", err)
	}
	return true, nil
}
