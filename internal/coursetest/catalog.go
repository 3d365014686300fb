package coursetest

import (
	"context"
	"errors"
	"fmt"
)

// Create adds a test at the end of its part. The title must be unique
// within the part.
func (s *Service) Create(ctx context.Context, in NewTest) (Test, error) {
	var created Test
	err := s.store.WithTx(ctx, func(tx Tx) error {
		part, err := tx.Parts().FindPart(ctx, in.PartID)
		if err != nil {
			return fmt.Errorf("create test: part %q: %w", in.PartID, err)
		}
		tests := tx.Tests()

		_, err = tests.FindByTitle(ctx, part.ID, in.Title)
		switch {
		case err == nil:
			return fmt.Errorf("create test: there is already a test titled %q in part %q: %w", in.Title, part.ID, ErrConflict)
		case !errors.Is(err, ErrNotFound):
			return fmt.Errorf("create test: %w", err)
		}

		seq, err := Sequencer{Tests: tests}.Allocate(ctx, part.ID)
		if err != nil {
			return err
		}
		now := s.now().Unix()
		t := Test{
			ID:                 s.newID(),
			PartID:             part.ID,
			Title:              in.Title,
			Question:           in.Question,
			Alternatives:       in.Alternatives,
			CorrectAlternative: in.CorrectAlternative,
			SequenceNumber:     seq,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := tests.Insert(ctx, t); err != nil {
			return fmt.Errorf("create test: %w", err)
		}
		created = t
		return nil
	})
	return created, err
}

// Update merges the given fields into a test. Moving a test to another part
// resolves that part first; the sequence number is kept as is.
func (s *Service) Update(ctx context.Context, id string, in TestUpdate) (Test, error) {
	var updated Test
	err := s.store.WithTx(ctx, func(tx Tx) error {
		t, err := tx.Tests().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("update test %q: %w", id, err)
		}
		if in.PartID != nil && *in.PartID != t.PartID {
			part, err := tx.Parts().FindPart(ctx, *in.PartID)
			if err != nil {
				return fmt.Errorf("update test %q: part %q: %w", id, *in.PartID, err)
			}
			t.PartID = part.ID
		}
		if in.Title != nil {
			t.Title = *in.Title
		}
		if in.Question != nil {
			t.Question = *in.Question
		}
		if in.Alternatives != nil {
			t.Alternatives = in.Alternatives
		}
		if in.CorrectAlternative != nil {
			t.CorrectAlternative = *in.CorrectAlternative
		}
		t.UpdatedAt = s.now().Unix()

		if err := tx.Tests().Update(ctx, t); err != nil {
			return fmt.Errorf("update test %q: %w", id, err)
		}
		updated = t
		return nil
	})
	return updated, err
}

func (s *Service) Get(ctx context.Context, id string) (Test, error) {
	var t Test
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		t, err = tx.Tests().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("get test %q: %w", id, err)
		}
		return nil
	})
	return t, err
}

// Delete removes a test and shifts every later test of its part down by one.
// Callers are expected to have checked that the test exists; a missing test
// yields ErrNotFound and nothing is written.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.WithTx(ctx, func(tx Tx) error {
		tests := tx.Tests()
		t, err := tests.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("delete test %q: %w", id, err)
		}
		if err := tests.LockPart(ctx, t.PartID); err != nil {
			return fmt.Errorf("delete test %q: %w", id, err)
		}
		count, err := tests.Count(ctx, t.PartID)
		if err != nil {
			return fmt.Errorf("delete test %q: %w", id, err)
		}
		if err := tests.Delete(ctx, id); err != nil {
			return fmt.Errorf("delete test %q: %w", id, err)
		}
		return Sequencer{Tests: tests}.Compact(ctx, t.PartID, t.SequenceNumber, count)
	})
}

// ListByPart returns the tests of a part ordered by sequence number.
func (s *Service) ListByPart(ctx context.Context, partID string) ([]Test, error) {
	var out []Test
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		out, err = tx.Tests().ListByPart(ctx, partID)
		return err
	})
	return out, err
}

func (s *Service) CountByPart(ctx context.Context, partID string) (int, error) {
	var n int
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		n, err = tx.Tests().Count(ctx, partID)
		return err
	})
	return n, err
}

func (s *Service) FindByPartAndSequence(ctx context.Context, partID string, seq int) (Test, error) {
	var t Test
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		t, err = tx.Tests().FindByPartAndSequence(ctx, partID, seq)
		if err != nil {
			return fmt.Errorf("test %d of part %q: %w", seq, partID, err)
		}
		return nil
	})
	return t, err
}

// TestIDByPartAndSequence is FindByPartAndSequence for callers that only
// navigate by id.
func (s *Service) TestIDByPartAndSequence(ctx context.Context, partID string, seq int) (string, error) {
	t, err := s.FindByPartAndSequence(ctx, partID, seq)
	if err != nil {
		return "", err
	}
	return t.ID, nil
}
