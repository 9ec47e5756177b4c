// internals/features/properties/media/repository/media_repository.go
package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"propertytools_backend/internals/constants"
	wpModel "propertytools_backend/internals/features/wordpress/model"
)

// Attachment is the part of an attachment row the orphan tools show.
type Attachment struct {
	ID         uint64 `gorm:"column:ID"`
	PostTitle  string `gorm:"column:post_title"`
	GUID       string `gorm:"column:guid"`
	PostParent uint64 `gorm:"column:post_parent"`
	PostAuthor uint64 `gorm:"column:post_author"`
}

// AttachmentFile holds the stored-file meta of one attachment.
type AttachmentFile struct {
	ID           uint64
	AttachedFile string
	Metadata     string
}

type MediaRepository struct {
	DB     *gorm.DB
	Tables wpModel.Tables
}

func NewMediaRepository(db *gorm.DB, t wpModel.Tables) *MediaRepository {
	return &MediaRepository{DB: db, Tables: t}
}

// ParentedAttachmentIDs returns attachments that still point at a parent post.
func (r *MediaRepository) ParentedAttachmentIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	if err := r.DB.WithContext(ctx).
		Table(r.Tables.Posts()).
		Where("post_type = ? AND post_parent <> 0", constants.PostTypeAttachment).
		Pluck("ID", &ids).Error; err != nil {
		return nil, fmt.Errorf("parented attachments: %w", err)
	}
	return ids, nil
}

// MetaValues returns every non-empty meta_value stored under the given keys.
func (r *MediaRepository) MetaValues(ctx context.Context, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var values []string
	if err := r.DB.WithContext(ctx).
		Table(r.Tables.PostMeta()).
		Where("meta_key IN ? AND meta_value IS NOT NULL AND meta_value <> ''", keys).
		Pluck("meta_value", &values).Error; err != nil {
		return nil, fmt.Errorf("meta values %v: %w", keys, err)
	}
	return values, nil
}

// ImageAttachments lists image attachments by ID. Strict limits the list
// to rows with neither parent nor author.
func (r *MediaRepository) ImageAttachments(ctx context.Context, strict bool) ([]Attachment, error) {
	q := r.DB.WithContext(ctx).
		Table(r.Tables.Posts()).
		Select("ID, post_title, guid, post_parent, post_author").
		Where("post_type = ? AND post_mime_type LIKE ?", constants.PostTypeAttachment, "image/%")
	if strict {
		q = q.Where("post_parent = 0 AND post_author = 0")
	}

	var rows []Attachment
	if err := q.Order("ID ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("image attachments: %w", err)
	}
	return rows, nil
}

// AttachmentFiles loads _wp_attached_file and _wp_attachment_metadata for ids.
func (r *MediaRepository) AttachmentFiles(ctx context.Context, ids []uint64) (map[uint64]*AttachmentFile, error) {
	out := make(map[uint64]*AttachmentFile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var rows []wpModel.PostMetaModel
	if err := r.DB.WithContext(ctx).
		Table(r.Tables.PostMeta()).
		Where("post_id IN ? AND meta_key IN ?", ids, []string{constants.MetaAttachedFile, constants.MetaAttachmentMetadata}).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("attachment files: %w", err)
	}

	for _, m := range rows {
		f, ok := out[m.PostID]
		if !ok {
			f = &AttachmentFile{ID: m.PostID}
			out[m.PostID] = f
		}
		if m.MetaValue == nil {
			continue
		}
		switch m.MetaKey {
		case constants.MetaAttachedFile:
			f.AttachedFile = *m.MetaValue
		case constants.MetaAttachmentMetadata:
			f.Metadata = *m.MetaValue
		}
	}
	return out, nil
}

// DeleteAttachment removes one attachment row with its meta, term links and
// any thumbnail references to it. Non-attachment IDs are ignored.
func (r *MediaRepository) DeleteAttachment(ctx context.Context, id uint64) (bool, error) {
	t := r.Tables
	deleted := false

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []uint64
		if err := tx.Table(t.Posts()).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("ID = ? AND post_type = ?", id, constants.PostTypeAttachment).
			Pluck("ID", &found).Error; err != nil {
			return err
		}
		if len(found) == 0 {
			return nil
		}

		if err := tx.Exec(`DELETE FROM `+t.PostMeta()+` WHERE meta_key = ? AND meta_value = ?`,
			constants.MetaThumbnailID, fmt.Sprint(id)).Error; err != nil {
			return err
		}
		for _, stmt := range []string{
			`DELETE FROM ` + t.TermRelationships() + ` WHERE object_id = ?`,
			`DELETE FROM ` + t.PostMeta() + ` WHERE post_id = ?`,
			`DELETE FROM ` + t.Posts() + ` WHERE ID = ? AND post_type = 'attachment'`,
		} {
			if err := tx.Exec(stmt, id).Error; err != nil {
				return err
			}
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete attachment %d: %w", id, err)
	}
	return deleted, nil
}
