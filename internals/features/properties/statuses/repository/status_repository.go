// internals/features/properties/statuses/repository/status_repository.go
package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"propertytools_backend/internals/constants"
	wpModel "propertytools_backend/internals/features/wordpress/model"
	"propertytools_backend/internals/helpers/batch"
	"propertytools_backend/internals/helpers/dbtime"
)

type StatusRepository struct {
	DB     *gorm.DB
	Tables wpModel.Tables
	Loc    *time.Location
	Now    func() time.Time
}

func NewStatusRepository(db *gorm.DB, t wpModel.Tables, loc *time.Location) *StatusRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &StatusRepository{DB: db, Tables: t, Loc: loc, Now: time.Now}
}

// FetchCandidates returns listing IDs in the given status tagged with one of
// the es_status slugs, keyset-paged on ID. No COUNT is issued.
func (r *StatusRepository) FetchCandidates(ctx context.Context, status string, slugs []string, cur batch.Cursor) (batch.Page, error) {
	if len(slugs) == 0 || cur.Size <= 0 {
		return batch.Page{}, nil
	}

	t := r.Tables
	q := fmt.Sprintf(`
		SELECT DISTINCT p.ID
		FROM %s p
		JOIN %s tr ON tr.object_id = p.ID
		JOIN %s tt ON tt.term_taxonomy_id = tr.term_taxonomy_id
		JOIN %s t ON t.term_id = tt.term_id
		WHERE p.post_type = ?
		  AND p.post_status = ?
		  AND tt.taxonomy = ?
		  AND t.slug IN ?
		  AND p.ID > ?
		ORDER BY p.ID ASC
		LIMIT ?`,
		t.Posts(), t.TermRelationships(), t.TermTaxonomy(), t.Terms())

	ids := make([]uint64, 0, cur.Size)
	if err := r.DB.WithContext(ctx).
		Raw(q, constants.PostTypeProperty, status, constants.TaxonomyListingStatus, slugs, cur.After, cur.Size).
		Scan(&ids).Error; err != nil {
		return batch.Page{}, fmt.Errorf("fetch %s candidates: %w", status, err)
	}
	return batch.Page{IDs: ids, HasMore: batch.HasMore(len(ids), cur.Size)}, nil
}

// MarkDraft moves one published listing to draft. Only post_status and the
// modified stamps change; rows no longer published are left alone.
func (r *StatusRepository) MarkDraft(ctx context.Context, id uint64) (bool, error) {
	local, gmt := dbtime.Stamps(r.Now(), r.Loc)
	res := r.DB.WithContext(ctx).
		Table(r.Tables.Posts()).
		Where("ID = ? AND post_type = ? AND post_status = ?", id, constants.PostTypeProperty, constants.PostStatusPublish).
		Updates(map[string]any{
			"post_status":       constants.PostStatusDraft,
			"post_modified":     local,
			"post_modified_gmt": gmt,
		})
	if res.Error != nil {
		return false, fmt.Errorf("draft listing %d: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DeleteListing hard-deletes one draft listing in its own transaction.
// Attached media is detached (parent and author cleared), never deleted.
// It returns the term_taxonomy IDs the listing was linked to so the caller
// can recount them once per batch.
func (r *StatusRepository) DeleteListing(ctx context.Context, id uint64) ([]uint64, bool, error) {
	t := r.Tables
	var termIDs []uint64
	deleted := false

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var found []uint64
		if err := tx.Table(t.Posts()).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("ID = ? AND post_type = ? AND post_status = ?", id, constants.PostTypeProperty, constants.PostStatusDraft).
			Pluck("ID", &found).Error; err != nil {
			return err
		}
		if len(found) == 0 {
			return nil
		}

		if err := tx.Table(t.TermRelationships()).
			Where("object_id = ?", id).
			Pluck("term_taxonomy_id", &termIDs).Error; err != nil {
			return err
		}

		if err := tx.Table(t.Posts()).
			Where("post_parent = ? AND post_type = ?", id, constants.PostTypeAttachment).
			Updates(map[string]any{"post_parent": 0, "post_author": 0}).Error; err != nil {
			return err
		}

		var revisions []uint64
		if err := tx.Table(t.Posts()).
			Where("post_parent = ? AND post_type = ?", id, constants.PostTypeRevision).
			Pluck("ID", &revisions).Error; err != nil {
			return err
		}
		if len(revisions) > 0 {
			if err := tx.Exec(`DELETE FROM `+t.PostMeta()+` WHERE post_id IN ?`, revisions).Error; err != nil {
				return err
			}
			if err := tx.Exec(`DELETE FROM `+t.Posts()+` WHERE ID IN ?`, revisions).Error; err != nil {
				return err
			}
		}

		for _, stmt := range []string{
			`DELETE FROM ` + t.TermRelationships() + ` WHERE object_id = ?`,
			`DELETE FROM ` + t.PostMeta() + ` WHERE post_id = ?`,
			`DELETE FROM ` + t.Posts() + ` WHERE ID = ?`,
		} {
			if err := tx.Exec(stmt, id).Error; err != nil {
				return err
			}
		}
		deleted = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("delete listing %d: %w", id, err)
	}
	return termIDs, deleted, nil
}

// RecountTerms recomputes term_taxonomy.count from published objects.
func (r *StatusRepository) RecountTerms(ctx context.Context, termTaxonomyIDs []uint64) error {
	if len(termTaxonomyIDs) == 0 {
		return nil
	}
	t := r.Tables
	q := fmt.Sprintf(`
		UPDATE %s tt
		SET tt.count = (
			SELECT COUNT(*)
			FROM %s tr
			JOIN %s p ON p.ID = tr.object_id
			WHERE tr.term_taxonomy_id = tt.term_taxonomy_id
			  AND p.post_status = ?
		)
		WHERE tt.term_taxonomy_id IN ?`,
		t.TermTaxonomy(), t.TermRelationships(), t.Posts())

	if err := r.DB.WithContext(ctx).Exec(q, constants.PostStatusPublish, termTaxonomyIDs).Error; err != nil {
		return fmt.Errorf("recount terms: %w", err)
	}
	return nil
}
