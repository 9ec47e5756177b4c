package batch

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	id     uint64
	status string
	tag    string
}

type fakeStore struct {
	rows    map[uint64]*record
	touched map[uint64]int
	failing map[uint64]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[uint64]*record{}, touched: map[uint64]int{}, failing: map[uint64]bool{}}
}

func (s *fakeStore) add(id uint64, status, tag string) {
	s.rows[id] = &record{id: id, status: status, tag: tag}
}

func (s *fakeStore) fetch(status string, tags map[string]bool) FetchFunc {
	return func(ctx context.Context, cur Cursor) (Page, error) {
		ids := make([]uint64, 0)
		for id, r := range s.rows {
			if r.status == status && tags[r.tag] && id > cur.After {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		if len(ids) > cur.Size {
			ids = ids[:cur.Size]
		}
		return Page{IDs: ids, HasMore: HasMore(len(ids), cur.Size)}, nil
	}
}

func (s *fakeStore) setStatus(from, to string) MutateFunc {
	return func(ctx context.Context, id uint64) (bool, error) {
		s.touched[id]++
		if s.failing[id] {
			return false, errors.New("update failed")
		}
		r, ok := s.rows[id]
		if !ok || r.status != from {
			return false, nil
		}
		r.status = to
		return true, nil
	}
}

var targetTags = map[string]bool{"expired": true, "withdrawn": true}

func seed(s *fakeStore, n int) {
	for i := 1; i <= n; i++ {
		tag := "expired"
		switch i % 4 {
		case 1:
			tag = "withdrawn"
		case 2:
			tag = "active"
		}
		s.add(uint64(i), "publish", tag)
	}
}

func TestRunReportsContinuation(t *testing.T) {
	s := newFakeStore()
	seed(s, 20)
	r := Runner{Fetch: s.fetch("publish", targetTags), Mutate: s.setStatus("publish", "draft")}

	res, err := r.Run(context.Background(), Cursor{Page: 1, Size: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Processed)
	assert.True(t, res.HasMore)
	require.NotNil(t, res.Next)
	assert.Equal(t, 2, *res.Next)
	assert.Equal(t, uint64(7), res.Cursor)
}

func TestRunLastPartialPage(t *testing.T) {
	s := newFakeStore()
	seed(s, 4)
	r := Runner{Fetch: s.fetch("publish", targetTags), Mutate: s.setStatus("publish", "draft")}

	res, err := r.Run(context.Background(), Cursor{Page: 3, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.False(t, res.HasMore)
	assert.Nil(t, res.Next)
	assert.Equal(t, 3, res.Page)
}

func TestDrainMatchesUnboundedPass(t *testing.T) {
	paged := newFakeStore()
	seed(paged, 103)
	once := newFakeStore()
	seed(once, 103)

	r := Runner{Fetch: paged.fetch("publish", targetTags), Mutate: paged.setStatus("publish", "draft")}
	totals, err := Drain(context.Background(), Cursor{Page: 1, Size: 10}, r.Run, 0, nil)
	require.NoError(t, err)

	u := Runner{Fetch: once.fetch("publish", targetTags), Mutate: once.setStatus("publish", "draft")}
	all, err := u.Run(context.Background(), Cursor{Page: 1, Size: 1000})
	require.NoError(t, err)

	assert.Equal(t, all.Processed, totals.Processed)
	for id, n := range paged.touched {
		assert.Equal(t, 1, n, "id %d processed more than once", id)
	}
	assert.Equal(t, len(once.touched), len(paged.touched))
	for id, r := range paged.rows {
		assert.Equal(t, once.rows[id].status, r.status)
		if r.tag == "active" {
			assert.Equal(t, "publish", r.status, "out-of-filter listing touched")
		}
	}
}

func TestDrainSkipsFailuresWithoutLooping(t *testing.T) {
	s := newFakeStore()
	seed(s, 30)
	s.failing[1] = true
	s.failing[4] = true

	r := Runner{Fetch: s.fetch("publish", targetTags), Mutate: s.setStatus("publish", "draft")}
	var failed []uint64
	r.OnError = func(id uint64, err error) { failed = append(failed, id) }

	totals, err := Drain(context.Background(), Cursor{Size: 4}, r.Run, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 4}, failed)
	assert.Equal(t, totals.Attempted-2, totals.Processed)
	assert.Equal(t, "publish", s.rows[1].status)
	for id, n := range s.touched {
		assert.Equal(t, 1, n, "id %d retried", id)
	}
}

func TestDrainStopsOnStepError(t *testing.T) {
	boom := errors.New("db down")
	calls := 0
	step := func(ctx context.Context, cur Cursor) (Result, error) {
		calls++
		if calls == 2 {
			return Result{}, boom
		}
		return Result{Page: cur.Page, HasMore: true, Processed: 1, Attempted: 1, Cursor: cur.After + 1}, nil
	}
	totals, err := Drain(context.Background(), Cursor{}, step, 0, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, totals.Batches)
}

func TestDrainDetectsNoProgress(t *testing.T) {
	step := func(ctx context.Context, cur Cursor) (Result, error) {
		return Result{Page: cur.Page, HasMore: true, Cursor: cur.After}, nil
	}
	_, err := Drain(context.Background(), Cursor{After: 9}, step, 0, nil)
	assert.ErrorIs(t, err, ErrNoProgress)
}

func TestRunCancelledContextKeepsHasMore(t *testing.T) {
	s := newFakeStore()
	seed(s, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := Runner{Fetch: s.fetch("publish", targetTags), Mutate: s.setStatus("publish", "draft")}
	res, err := r.Run(ctx, Cursor{Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.True(t, res.HasMore)
}
