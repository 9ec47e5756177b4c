// internals/features/properties/statuses/service/status_service.go
package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	"propertytools_backend/internals/helpers/batch"
	"propertytools_backend/internals/metrics"
)

// Store is the persistence the status batches need.
type Store interface {
	FetchCandidates(ctx context.Context, status string, slugs []string, cur batch.Cursor) (batch.Page, error)
	MarkDraft(ctx context.Context, id uint64) (bool, error)
	DeleteListing(ctx context.Context, id uint64) (termTaxonomyIDs []uint64, deleted bool, err error)
	RecountTerms(ctx context.Context, termTaxonomyIDs []uint64) error
}

// Request is one batch call. Zero values fall back to configured defaults.
type Request struct {
	Page   int
	Cursor uint64
	Limit  int
	Slugs  []string
}

type StatusService struct {
	Store Store
	Conf  configs.ToolsConfig
	Log   *zap.Logger
}

func NewStatusService(store Store, conf configs.ToolsConfig) *StatusService {
	return &StatusService{Store: store, Conf: conf, Log: configs.Logger}
}

func (s *StatusService) slugs(in []string) []string {
	if len(in) == 0 {
		return s.Conf.StatusSlugs
	}
	return in
}

func (s *StatusService) cursor(req Request, def int) batch.Cursor {
	size := req.Limit
	if size <= 0 {
		size = def
	}
	if s.Conf.MaxBatchSize > 0 && size > s.Conf.MaxBatchSize {
		size = s.Conf.MaxBatchSize
	}
	return batch.Cursor{Page: req.Page, Size: size, After: req.Cursor}.Normalize(def)
}

// FetchDraftCandidates lists published listings carrying a closed-out status tag.
func (s *StatusService) FetchDraftCandidates(ctx context.Context, slugs []string, cur batch.Cursor) (batch.Page, error) {
	return s.Store.FetchCandidates(ctx, constants.PostStatusPublish, s.slugs(slugs), cur)
}

// FetchDeleteCandidates lists draft listings carrying a closed-out status tag.
func (s *StatusService) FetchDeleteCandidates(ctx context.Context, slugs []string, cur batch.Cursor) (batch.Page, error) {
	return s.Store.FetchCandidates(ctx, constants.PostStatusDraft, s.slugs(slugs), cur)
}

// DraftBatch moves one batch of candidates from publish to draft.
func (s *StatusService) DraftBatch(ctx context.Context, req Request) (batch.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Conf.BatchTimeoutDuration())
	defer cancel()

	started := time.Now()
	r := batch.Runner{
		Fetch: func(ctx context.Context, cur batch.Cursor) (batch.Page, error) {
			return s.FetchDraftCandidates(ctx, req.Slugs, cur)
		},
		Mutate: s.Store.MarkDraft,
		OnError: func(id uint64, err error) {
			s.Log.Warn("[STATUS] draft failed", zap.Uint64("post_id", id), zap.Error(err))
		},
	}

	res, err := r.Run(ctx, s.cursor(req, s.Conf.DraftBatchSize))
	if err != nil {
		return res, err
	}
	metrics.ObserveBatch("draft", started, res.Processed, res.Attempted)
	s.Log.Info("[STATUS] draft batch",
		zap.Int("page", res.Page), zap.Int("changed", res.Processed),
		zap.Bool("has_more", res.HasMore), zap.Uint64("cursor", res.Cursor))
	return res, nil
}

// DeleteBatch permanently deletes one batch of draft candidates, then
// recounts the status terms they were linked to.
func (s *StatusService) DeleteBatch(ctx context.Context, req Request) (batch.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Conf.BatchTimeoutDuration())
	defer cancel()

	started := time.Now()
	touched := make(map[uint64]struct{})

	r := batch.Runner{
		Fetch: func(ctx context.Context, cur batch.Cursor) (batch.Page, error) {
			return s.FetchDeleteCandidates(ctx, req.Slugs, cur)
		},
		Mutate: func(ctx context.Context, id uint64) (bool, error) {
			terms, ok, err := s.Store.DeleteListing(ctx, id)
			for _, tt := range terms {
				touched[tt] = struct{}{}
			}
			return ok, err
		},
		OnError: func(id uint64, err error) {
			s.Log.Warn("[STATUS] delete failed", zap.Uint64("post_id", id), zap.Error(err))
		},
	}

	res, err := r.Run(ctx, s.cursor(req, s.Conf.DeleteBatchSize))
	if err != nil {
		return res, err
	}

	if len(touched) > 0 {
		ids := make([]uint64, 0, len(touched))
		for id := range touched {
			ids = append(ids, id)
		}
		// the batch context may be spent by now
		rctx, rcancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		if err := s.Store.RecountTerms(rctx, ids); err != nil {
			s.Log.Warn("[STATUS] term recount failed", zap.Error(err))
		}
		rcancel()
	}

	metrics.ObserveBatch("delete", started, res.Processed, res.Attempted)
	s.Log.Info("[STATUS] delete batch",
		zap.Int("page", res.Page), zap.Int("deleted", res.Processed),
		zap.Bool("has_more", res.HasMore), zap.Uint64("cursor", res.Cursor))
	return res, nil
}

// DrainDraft repeats DraftBatch until no candidates remain.
func (s *StatusService) DrainDraft(ctx context.Context, req Request, delay time.Duration, onBatch func(batch.Result)) (batch.Totals, error) {
	step := func(ctx context.Context, cur batch.Cursor) (batch.Result, error) {
		return s.DraftBatch(ctx, Request{Page: cur.Page, Cursor: cur.After, Limit: cur.Size, Slugs: req.Slugs})
	}
	return batch.Drain(ctx, s.cursor(req, s.Conf.DraftBatchSize), step, delay, onBatch)
}

// DrainDelete repeats DeleteBatch until no candidates remain.
func (s *StatusService) DrainDelete(ctx context.Context, req Request, delay time.Duration, onBatch func(batch.Result)) (batch.Totals, error) {
	step := func(ctx context.Context, cur batch.Cursor) (batch.Result, error) {
		return s.DeleteBatch(ctx, Request{Page: cur.Page, Cursor: cur.After, Limit: cur.Size, Slugs: req.Slugs})
	}
	return batch.Drain(ctx, s.cursor(req, s.Conf.DeleteBatchSize), step, delay, onBatch)
}
