package coursetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedPart fills a memory store with n tests in part p, ordinals 1..n.
func seedPart(t *testing.T, n int) *MemoryStore {
	t.Helper()
	m := NewMemoryStore()
	m.PutPart(Part{ID: "p"})
	require.NoError(t, m.WithTx(context.Background(), func(tx Tx) error {
		for i := 1; i <= n; i++ {
			if err := tx.Tests().Insert(context.Background(), Test{ID: string(rune('a' + i - 1)), PartID: "p", Title: string(rune('A' + i - 1)), SequenceNumber: i}); err != nil {
				return err
			}
		}
		return nil
	}))
	return m
}

func TestSequencer_Allocate(t *testing.T) {
	m := seedPart(t, 3)
	ctx := context.Background()
	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		next, err := Sequencer{Tests: tx.Tests()}.Allocate(ctx, "p")
		require.NoError(t, err)
		assert.Equal(t, 4, next)
		return nil
	}))

	m.PutPart(Part{ID: "empty"})
	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		next, err := Sequencer{Tests: tx.Tests()}.Allocate(ctx, "empty")
		require.NoError(t, err)
		assert.Equal(t, 1, next)
		return nil
	}))

	err := m.WithTx(ctx, func(tx Tx) error {
		_, err := Sequencer{Tests: tx.Tests()}.Allocate(ctx, "unknown")
		return err
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSequencer_CompactShortCircuitsOnLast(t *testing.T) {
	m := seedPart(t, 3)
	ctx := context.Background()
	p := &probe{}
	require.NoError(t, probeStore{m, p}.WithTx(ctx, func(tx Tx) error {
		if err := tx.Tests().Delete(ctx, "c"); err != nil {
			return err
		}
		return Sequencer{Tests: tx.Tests()}.Compact(ctx, "p", 3, 3)
	}))
	assert.Zero(t, p.seqWrites)
}

func TestSequencer_CompactShiftsTail(t *testing.T) {
	m := seedPart(t, 4)
	ctx := context.Background()
	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		if err := tx.Tests().Delete(ctx, "a"); err != nil {
			return err
		}
		return Sequencer{Tests: tx.Tests()}.Compact(ctx, "p", 1, 4)
	}))

	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		tests, err := tx.Tests().ListByPart(ctx, "p")
		require.NoError(t, err)
		var got []string
		for _, tt := range tests {
			got = append(got, tt.ID)
			assert.Equal(t, len(got), tt.SequenceNumber)
		}
		assert.Equal(t, []string{"b", "c", "d"}, got)
		return nil
	}))
}

func TestLedger_NextAttemptNumberAndGate(t *testing.T) {
	m := seedPart(t, 1)
	m.PutUser(User{ID: "u"})
	ctx := context.Background()

	require.NoError(t, m.WithTx(ctx, func(tx Tx) error {
		l := Ledger{Attempts: tx.Attempts()}

		next, err := l.NextAttemptNumber(ctx, "u", "a")
		require.NoError(t, err)
		assert.Equal(t, 1, next)

		recorded, err := l.RecordIfNotDuplicate(ctx, TestAttempt{UserID: "u", TestID: "a", TestResult: ResultCorrect})
		require.NoError(t, err)
		assert.False(t, recorded)

		// a WRONG attempt does not open the gate
		require.NoError(t, tx.Attempts().Insert(ctx, TestAttempt{UserID: "u", TestID: "a", TestNumber: 1, TestResult: ResultWrong}))
		passed, err := l.AlreadyPassed(ctx, "u", "a")
		require.NoError(t, err)
		assert.False(t, passed)

		require.NoError(t, tx.Attempts().Insert(ctx, TestAttempt{UserID: "u", TestID: "a", TestNumber: 2, TestResult: ResultCorrect}))
		recorded, err = l.RecordIfNotDuplicate(ctx, TestAttempt{UserID: "u", TestID: "a", TestNumber: 99, TestResult: ResultCorrect})
		require.NoError(t, err)
		assert.True(t, recorded)

		attempts, err := tx.Attempts().List(ctx, "u", "a")
		require.NoError(t, err)
		require.Len(t, attempts, 3)
		assert.Equal(t, 3, attempts[2].TestNumber)
		return nil
	}))
}
