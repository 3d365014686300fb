package coursetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-coursetests/internal/rewards"
)

func TestSQLStore_OrdinalBackstop(t *testing.T) {
	f := sqliteFixture(t)
	f.addPart(t, "p1")
	svc := newTestService(f.store)
	ctx := context.Background()
	existing := mustCreate(t, svc, "p1", "a", "A")

	err := f.store.WithTx(ctx, func(tx Tx) error {
		return tx.Tests().Insert(ctx, Test{ID: "dup", PartID: "p1", Title: "b", CorrectAlternative: "A", SequenceNumber: existing.SequenceNumber})
	})
	assert.ErrorIs(t, err, ErrConflict)

	err = f.store.WithTx(ctx, func(tx Tx) error {
		return tx.Tests().Insert(ctx, Test{ID: "orphan", PartID: "p-missing", Title: "b", CorrectAlternative: "A", SequenceNumber: 1})
	})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLStore_AttemptNumberBackstop(t *testing.T) {
	f := sqliteFixture(t)
	_, test := seedGrading(t, f)
	ctx := context.Background()

	insert := func() error {
		return f.store.WithTx(ctx, func(tx Tx) error {
			return tx.Attempts().Insert(ctx, TestAttempt{UserID: "u1", TestID: test.ID, TestNumber: 1, TestResult: ResultCorrect})
		})
	}
	require.NoError(t, insert())
	assert.ErrorIs(t, insert(), ErrConflict)
}

func TestSQLStore_PointRequestRow(t *testing.T) {
	d := openSQLite(t)
	store := NewSQLStore(d, 25)
	_, err := d.SQL.Exec(`INSERT INTO parts (id,title) VALUES ('p1','Part'); INSERT INTO users (id,name) VALUES ('u1','Ada');`)
	require.NoError(t, err)

	svc := newTestService(store)
	test := mustCreate(t, svc, "p1", "Pointers", "B")
	ok, err := svc.CheckTest(context.Background(), "u1", test.ID, "b")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := (&rewards.SQLStore{DB: d.SQL}).FindByUser(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, rewards.OriginTest, got[0].Origin)
	assert.Equal(t, rewards.StatusNew, got[0].Status)
	assert.Equal(t, 25, got[0].PointsToAdd)
}

func TestSQLStore_ConcurrentCreatesStayDense(t *testing.T) {
	f := sqliteFixture(t)
	f.addPart(t, "p1")
	svc := newTestService(f.store)

	const n = 12
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(context.Background(), NewTest{PartID: "p1", Title: fmt.Sprintf("t%d", i), CorrectAlternative: "A"})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Len(t, ordinals(t, svc, "p1"), n)
}

func TestSQLStore_DeleteCascadesAttempts(t *testing.T) {
	f := sqliteFixture(t)
	svc, test := seedGrading(t, f)
	ctx := context.Background()
	require.NoError(t, f.store.WithTx(ctx, func(tx Tx) error {
		return tx.Attempts().Insert(ctx, TestAttempt{UserID: "u1", TestID: test.ID, TestNumber: 1, TestResult: ResultCorrect})
	}))

	require.NoError(t, svc.Delete(ctx, test.ID))
	attempts, err := svc.Attempts(ctx, "u1", test.ID)
	require.NoError(t, err)
	assert.Empty(t, attempts)
}
