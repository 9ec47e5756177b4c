package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	"propertytools_backend/internals/helpers/batch"
)

type listing struct {
	status string
	slug   string
	terms  []uint64
}

type fakeStore struct {
	mu        sync.Mutex
	rows      map[uint64]*listing
	failing   map[uint64]bool
	recounted []uint64
	fetchErr  error
	seenSlugs []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[uint64]*listing{}, failing: map[uint64]bool{}}
}

func (f *fakeStore) FetchCandidates(ctx context.Context, status string, slugs []string, cur batch.Cursor) (batch.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seenSlugs = slugs
	if f.fetchErr != nil {
		return batch.Page{}, f.fetchErr
	}
	want := map[string]bool{}
	for _, s := range slugs {
		want[s] = true
	}
	ids := make([]uint64, 0)
	for id, l := range f.rows {
		if l.status == status && want[l.slug] && id > cur.After {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if len(ids) > cur.Size {
		ids = ids[:cur.Size]
	}
	return batch.Page{IDs: ids, HasMore: batch.HasMore(len(ids), cur.Size)}, nil
}

func (f *fakeStore) MarkDraft(ctx context.Context, id uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[id] {
		return false, errors.New("locked")
	}
	l, ok := f.rows[id]
	if !ok || l.status != constants.PostStatusPublish {
		return false, nil
	}
	l.status = constants.PostStatusDraft
	return true, nil
}

func (f *fakeStore) DeleteListing(ctx context.Context, id uint64) ([]uint64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[id] {
		return nil, false, errors.New("locked")
	}
	l, ok := f.rows[id]
	if !ok || l.status != constants.PostStatusDraft {
		return nil, false, nil
	}
	delete(f.rows, id)
	return l.terms, true, nil
}

func (f *fakeStore) RecountTerms(ctx context.Context, ids []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recounted = append(f.recounted, ids...)
	return nil
}

func newService(store Store) *StatusService {
	conf := configs.DefaultToolsConfig()
	conf.DraftBatchSize = 3
	conf.DeleteBatchSize = 2
	return NewStatusService(store, conf)
}

func TestDraftBatchUsesDefaultVocabulary(t *testing.T) {
	f := newFakeStore()
	f.rows[1] = &listing{status: "publish", slug: "expired"}
	f.rows[2] = &listing{status: "publish", slug: "active"}
	f.rows[3] = &listing{status: "publish", slug: "sold-other"}

	res, err := newService(f).DraftBatch(context.Background(), Request{})
	require.NoError(t, err)

	assert.Equal(t, configs.DefaultStatusSlugs, f.seenSlugs)
	assert.Equal(t, 2, res.Processed)
	assert.False(t, res.HasMore)
	assert.Nil(t, res.Next)
	assert.Equal(t, 1, res.Page)
	assert.Equal(t, "publish", f.rows[2].status)
}

func TestDraftBatchFullPageReportsNext(t *testing.T) {
	f := newFakeStore()
	for i := uint64(1); i <= 7; i++ {
		f.rows[i] = &listing{status: "publish", slug: "withdrawn"}
	}
	svc := newService(f)

	res, err := svc.DraftBatch(context.Background(), Request{Page: 1, Slugs: []string{"withdrawn"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.True(t, res.HasMore)
	require.NotNil(t, res.Next)
	assert.Equal(t, 2, *res.Next)

	res, err = svc.DraftBatch(context.Background(), Request{Page: *res.Next, Cursor: res.Cursor, Slugs: []string{"withdrawn"}})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Processed)
	assert.Equal(t, uint64(6), res.Cursor)
}

func TestDraftBatchEmptyReturnsNoMore(t *testing.T) {
	res, err := newService(newFakeStore()).DraftBatch(context.Background(), Request{Page: 4})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Processed)
	assert.False(t, res.HasMore)
	assert.Equal(t, 4, res.Page)
}

func TestDraftBatchFailuresOnlyLowerCount(t *testing.T) {
	f := newFakeStore()
	for i := uint64(1); i <= 3; i++ {
		f.rows[i] = &listing{status: "publish", slug: "expired"}
	}
	f.failing[2] = true

	res, err := newService(f).DraftBatch(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.Equal(t, 3, res.Attempted)
}

func TestDraftBatchFetchErrorSurfaces(t *testing.T) {
	f := newFakeStore()
	f.fetchErr = errors.New("db down")
	_, err := newService(f).DraftBatch(context.Background(), Request{})
	assert.Error(t, err)
}

func TestLimitIsCapped(t *testing.T) {
	f := newFakeStore()
	svc := newService(f)
	svc.Conf.MaxBatchSize = 5
	cur := svc.cursor(Request{Limit: 50}, 3)
	assert.Equal(t, 5, cur.Size)
}

func TestDeleteBatchRecountsTouchedTerms(t *testing.T) {
	f := newFakeStore()
	f.rows[10] = &listing{status: "draft", slug: "expired", terms: []uint64{5, 6}}
	f.rows[11] = &listing{status: "draft", slug: "cancelled", terms: []uint64{5}}
	f.rows[12] = &listing{status: "publish", slug: "expired", terms: []uint64{7}}

	res, err := newService(f).DeleteBatch(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Processed)
	assert.True(t, res.HasMore)

	sort.Slice(f.recounted, func(i, j int) bool { return f.recounted[i] < f.recounted[j] })
	assert.Equal(t, []uint64{5, 6}, f.recounted)
	assert.Contains(t, f.rows, uint64(12))
}

func TestDrainDeleteRemovesEveryCandidateOnce(t *testing.T) {
	f := newFakeStore()
	for i := uint64(1); i <= 9; i++ {
		slug := "expired"
		if i%3 == 0 {
			slug = "active"
		}
		f.rows[i] = &listing{status: "draft", slug: slug}
	}

	var pages []int
	totals, err := newService(f).DrainDelete(context.Background(), Request{}, 0, func(r batch.Result) {
		pages = append(pages, r.Page)
	})
	require.NoError(t, err)
	assert.Equal(t, 6, totals.Processed)
	assert.Len(t, f.rows, 3)
	assert.Equal(t, []int{1, 2, 3, 4}, pages)
}

func TestFetchCandidatesSplitByStatus(t *testing.T) {
	f := newFakeStore()
	f.rows[1] = &listing{status: "publish", slug: "expired"}
	f.rows[2] = &listing{status: "draft", slug: "expired"}
	f.rows[3] = &listing{status: "draft", slug: "sold-other"}
	svc := newService(f)
	cur := batch.Cursor{Page: 1, Size: 10}

	page, err := svc.FetchDraftCandidates(context.Background(), nil, cur)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, page.IDs)
	assert.False(t, page.HasMore)
	assert.Equal(t, configs.DefaultStatusSlugs, f.seenSlugs)

	page, err = svc.FetchDeleteCandidates(context.Background(), []string{"expired"}, cur)
	require.NoError(t, err)
	assert.Equal(t, []uint64{2}, page.IDs)
	assert.Equal(t, []string{"expired"}, f.seenSlugs)
}
