// internals/features/properties/media/service/media_service.go
package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	mediaRepo "propertytools_backend/internals/features/properties/media/repository"
	"propertytools_backend/internals/helpers/idscan"
	helperOSS "propertytools_backend/internals/helpers/oss"
	"propertytools_backend/internals/metrics"
)

type Store interface {
	ParentedAttachmentIDs(ctx context.Context) ([]uint64, error)
	MetaValues(ctx context.Context, keys []string) ([]string, error)
	ImageAttachments(ctx context.Context, strict bool) ([]mediaRepo.Attachment, error)
	AttachmentFiles(ctx context.Context, ids []uint64) (map[uint64]*mediaRepo.AttachmentFile, error)
	DeleteAttachment(ctx context.Context, id uint64) (bool, error)
}

type MediaService struct {
	Store Store
	Files helperOSS.MediaStore
	Conf  configs.ToolsConfig
	Log   *zap.Logger
}

func NewMediaService(store Store, files helperOSS.MediaStore, conf configs.ToolsConfig) *MediaService {
	if files == nil {
		files = helperOSS.NopMediaStore{}
	}
	return &MediaService{Store: store, Files: files, Conf: conf, Log: configs.Logger}
}

// CollectReferencedAttachmentIDs unions attachments with a parent, featured
// images, and IDs found in the configured gallery/document meta values.
func (s *MediaService) CollectReferencedAttachmentIDs(ctx context.Context) (idscan.Set, error) {
	var (
		parented []uint64
		thumbs   []string
		gallery  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := s.Store.ParentedAttachmentIDs(gctx)
		parented = ids
		return err
	})
	g.Go(func() error {
		vals, err := s.Store.MetaValues(gctx, []string{constants.MetaThumbnailID})
		thumbs = vals
		return err
	})
	g.Go(func() error {
		vals, err := s.Store.MetaValues(gctx, s.Conf.MediaMetaKeys)
		gallery = vals
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("collect referenced attachments: %w", err)
	}

	refs := idscan.NewSet(parented...)
	for _, v := range thumbs {
		refs.AddAll(idscan.Extract(v))
	}
	for _, v := range gallery {
		refs.AddAll(idscan.Extract(v))
	}
	return refs, nil
}

// FindOrphans lists image attachments nothing references, by ID.
func (s *MediaService) FindOrphans(ctx context.Context) ([]mediaRepo.Attachment, error) {
	refs, err := s.CollectReferencedAttachmentIDs(ctx)
	if err != nil {
		return nil, err
	}
	images, err := s.Store.ImageAttachments(ctx, s.Conf.OrphansStrict)
	if err != nil {
		return nil, err
	}

	orphans := make([]mediaRepo.Attachment, 0)
	for _, a := range images {
		if !refs.Has(a.ID) {
			orphans = append(orphans, a)
		}
	}
	return orphans, nil
}

// DeleteReport summarizes a permanent orphan deletion.
type DeleteReport struct {
	Deleted      int      `json:"deleted"`
	FilesRemoved int      `json:"files_removed"`
	Failed       []uint64 `json:"failed"`
}

// DeleteOrphans permanently deletes the given attachments and their stored
// files. Rows that are not attachments are skipped.
func (s *MediaService) DeleteOrphans(ctx context.Context, ids []uint64) (DeleteReport, error) {
	rep := DeleteReport{Failed: make([]uint64, 0)}
	if len(ids) == 0 {
		return rep, nil
	}

	files, err := s.Store.AttachmentFiles(ctx, ids)
	if err != nil {
		return rep, err
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		ok, err := s.Store.DeleteAttachment(ctx, id)
		if err != nil {
			s.Log.Warn("[MEDIA] delete attachment failed", zap.Uint64("attachment_id", id), zap.Error(err))
			rep.Failed = append(rep.Failed, id)
			continue
		}
		if !ok {
			continue
		}
		rep.Deleted++

		f := files[id]
		if f == nil {
			continue
		}
		keys := StoredFiles(f.AttachedFile, f.Metadata)
		n, err := s.Files.Remove(ctx, keys)
		rep.FilesRemoved += n
		metrics.AddOrphanFile(err == nil)
		if err != nil {
			s.Log.Warn("[MEDIA] file removal incomplete",
				zap.Uint64("attachment_id", id), zap.String("store", s.Files.Name()), zap.Error(err))
		}
	}

	metrics.AddOrphansDeleted(rep.Deleted)
	s.Log.Info("[MEDIA] orphans deleted",
		zap.Int("deleted", rep.Deleted), zap.Int("files", rep.FilesRemoved), zap.Int("failed", len(rep.Failed)))
	return rep, nil
}

// PurgeOrphans recomputes the orphan set and deletes all of it in one pass.
func (s *MediaService) PurgeOrphans(ctx context.Context) (DeleteReport, error) {
	orphans, err := s.FindOrphans(ctx)
	if err != nil {
		return DeleteReport{Failed: make([]uint64, 0)}, err
	}
	ids := make([]uint64, 0, len(orphans))
	for _, o := range orphans {
		ids = append(ids, o.ID)
	}
	return s.DeleteOrphans(ctx, ids)
}
