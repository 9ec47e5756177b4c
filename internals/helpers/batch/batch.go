// Package batch implements the paged "fetch page, mutate page, report
// continuation" loop shared by the listing status tools. It knows nothing
// about the store behind it: callers plug in a FetchFunc and a MutateFunc.
package batch

import (
	"context"
	"errors"
	"time"
)

// ErrNoProgress is returned by Drain when a step reports more work but its
// cursor did not advance.
var ErrNoProgress = errors.New("batch: cursor did not advance")

// Cursor identifies one batch. Page is a 1-based counter reported back to the
// caller; After is the keyset position (last ID already seen); Size is the
// batch size.
type Cursor struct {
	Page  int
	Size  int
	After uint64
}

// Page is one fetched window of candidate IDs, ascending.
type Page struct {
	IDs     []uint64
	HasMore bool
}

// Result describes a finished batch and how to continue.
type Result struct {
	Processed int
	Attempted int
	Page      int
	HasMore   bool
	Next      *int
	Cursor    uint64
}

// FetchFunc returns at most cur.Size candidate IDs greater than cur.After.
type FetchFunc func(ctx context.Context, cur Cursor) (Page, error)

// MutateFunc applies the change to one ID. ok=false or a non-nil error both
// mean the row was not changed.
type MutateFunc func(ctx context.Context, id uint64) (ok bool, err error)

// HasMore is the cheap continuation test: a full page means there may be more.
func HasMore(n, size int) bool {
	return size > 0 && n == size
}

// Runner runs single batches.
type Runner struct {
	Fetch   FetchFunc
	Mutate  MutateFunc
	OnError func(id uint64, err error)
}

// Normalize fills defaults for a cursor.
func (c Cursor) Normalize(defaultSize int) Cursor {
	if c.Page < 1 {
		c.Page = 1
	}
	if c.Size <= 0 {
		c.Size = defaultSize
	}
	if c.Size <= 0 {
		c.Size = 1
	}
	return c
}

// Run fetches one page and mutates every ID in it. Per-row failures only
// lower Processed. A cancelled context stops the loop early; the result then
// still reports HasMore so the caller can resume from Cursor.
func (r Runner) Run(ctx context.Context, cur Cursor) (Result, error) {
	cur = cur.Normalize(1)
	res := Result{Page: cur.Page, Cursor: cur.After}

	page, err := r.Fetch(ctx, cur)
	if err != nil {
		return res, err
	}

	res.HasMore = page.HasMore
	for _, id := range page.IDs {
		if ctx.Err() != nil {
			res.HasMore = true
			break
		}
		res.Attempted++
		if id > res.Cursor {
			res.Cursor = id
		}
		ok, err := r.Mutate(ctx, id)
		if err != nil {
			if r.OnError != nil {
				r.OnError(id, err)
			}
			continue
		}
		if ok {
			res.Processed++
		}
	}

	if res.HasMore {
		next := res.Page + 1
		res.Next = &next
	}
	return res, nil
}

// StepFunc runs one batch at the given cursor.
type StepFunc func(ctx context.Context, cur Cursor) (Result, error)

// Totals aggregates a Drain run.
type Totals struct {
	Batches   int
	Processed int
	Attempted int
	Cursor    uint64
}

// Drain calls step repeatedly, waiting delay between batches, until a batch
// reports HasMore=false, the context ends, or a step fails. onBatch (optional)
// sees every result.
func Drain(ctx context.Context, start Cursor, step StepFunc, delay time.Duration, onBatch func(Result)) (Totals, error) {
	cur := start.Normalize(1)
	var t Totals

	for {
		res, err := step(ctx, cur)
		if err != nil {
			return t, err
		}
		t.Batches++
		t.Processed += res.Processed
		t.Attempted += res.Attempted
		t.Cursor = res.Cursor
		if onBatch != nil {
			onBatch(res)
		}

		if !res.HasMore {
			return t, nil
		}
		if res.Cursor <= cur.After && res.Attempted == 0 {
			return t, ErrNoProgress
		}

		cur = Cursor{Page: res.Page + 1, Size: cur.Size, After: res.Cursor}

		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return t, ctx.Err()
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return t, ctx.Err()
		}
	}
}
