package coursetest

import (
	"context"
	"fmt"
)

// Sequencer keeps the sequence numbers of a part dense. It must be used with
// a TestRepo bound to the same transaction as the insert or delete it
// accompanies, otherwise a part can briefly show a gap or a duplicate.
type Sequencer struct {
	Tests TestRepo
}

// Allocate locks the part and returns the ordinal for a new test in it.
func (s Sequencer) Allocate(ctx context.Context, partID string) (int, error) {
	if err := s.Tests.LockPart(ctx, partID); err != nil {
		return 0, fmt.Errorf("allocate sequence: %w", err)
	}
	n, err := s.Tests.Count(ctx, partID)
	if err != nil {
		return 0, fmt.Errorf("allocate sequence: %w", err)
	}
	return n + 1, nil
}

// Compact closes the gap left by removing the test at removed. prevMax is the
// number of tests the part held before the removal; removing the last ordinal
// leaves nothing to shift.
func (s Sequencer) Compact(ctx context.Context, partID string, removed, prevMax int) error {
	if removed >= prevMax {
		return nil
	}
	after, err := s.Tests.ListAfter(ctx, partID, removed)
	if err != nil {
		return fmt.Errorf("compact sequence: %w", err)
	}
	// ascending, so each target ordinal is already free
	for _, t := range after {
		if err := s.Tests.SetSequenceNumber(ctx, t.ID, t.SequenceNumber-1); err != nil {
			return fmt.Errorf("compact sequence: %w", err)
		}
	}
	return nil
}
