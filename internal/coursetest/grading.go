package coursetest

import (
	"context"
	"fmt"
	"strings"
)

// CheckTest grades chosen against the test's correct alternative, ignoring
// case. On a match the attempt goes to the Ledger (which may decline to
// store it) and a point request is issued for the user, all in the same
// transaction. Wrong answers write nothing.
//
// The returned bool is the comparison result whether or not an attempt row
// was written.
func (s *Service) CheckTest(ctx context.Context, userID, testID, chosen string) (bool, error) {
	var correct bool
	err := s.store.WithTx(ctx, func(tx Tx) error {
		t, err := tx.Tests().Get(ctx, testID)
		if err != nil {
			return fmt.Errorf("check test %q: %w", testID, err)
		}
		user, err := tx.Users().FindUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("check test %q: user %q: %w", testID, userID, err)
		}

		correct = matchAlternative(t.CorrectAlternative, chosen)
		if !correct {
			return nil
		}

		attempt := TestAttempt{
			UserID:     user.ID,
			TestID:     t.ID,
			TestResult: ResultCorrect,
			CreatedAt:  s.now().Unix(),
		}
		if _, err := (Ledger{Attempts: tx.Attempts()}).RecordIfNotDuplicate(ctx, attempt); err != nil {
			return fmt.Errorf("check test %q: %w", testID, err)
		}
		if err := tx.Rewards().AddPointRequest(ctx, user); err != nil {
			return fmt.Errorf("check test %q: point request: %w", testID, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return correct, nil
}

// Attempts lists a user's attempts on a test by attempt number.
func (s *Service) Attempts(ctx context.Context, userID, testID string) ([]TestAttempt, error) {
	var out []TestAttempt
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Attempts().List(ctx, userID, testID)
		return err
	})
	return out, err
}

func matchAlternative(correct, chosen string) bool {
	return strings.ToUpper(correct) == strings.ToUpper(chosen)
}
