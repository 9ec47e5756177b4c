// internals/features/properties/notifications/repository/listing_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"propertytools_backend/internals/constants"
	notifModel "propertytools_backend/internals/features/properties/notifications/model"
	wpModel "propertytools_backend/internals/features/wordpress/model"
	"propertytools_backend/internals/helpers/dbtime"
)

var ErrNotFound = errors.New("post not found")

type ListingRepository struct {
	DB     *gorm.DB
	Tables wpModel.Tables
	Loc    *time.Location
}

func NewListingRepository(db *gorm.DB, t wpModel.Tables, loc *time.Location) *ListingRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &ListingRepository{DB: db, Tables: t, Loc: loc}
}

// CanonicalNames returns titles of published posts of postType plus their
// alternate legal names, ordered by title.
func (r *ListingRepository) CanonicalNames(ctx context.Context, postType string) ([]string, error) {
	t := r.Tables
	q := fmt.Sprintf(`
		SELECT name FROM (
			SELECT p.post_title AS name, p.post_title AS sort_key
			FROM %[1]s p
			WHERE p.post_type = ? AND p.post_status = ?
			UNION ALL
			SELECT pm.meta_value AS name, p.post_title AS sort_key
			FROM %[2]s pm
			JOIN %[1]s p ON p.ID = pm.post_id
			WHERE p.post_type = ? AND p.post_status = ?
			  AND pm.meta_key = ? AND pm.meta_value IS NOT NULL AND pm.meta_value <> ''
		) names
		ORDER BY sort_key ASC`, t.Posts(), t.PostMeta())

	var names []string
	if err := r.DB.WithContext(ctx).Raw(q,
		postType, constants.PostStatusPublish,
		postType, constants.PostStatusPublish, constants.MetaAlternateTitle,
	).Scan(&names).Error; err != nil {
		return nil, fmt.Errorf("canonical names %s: %w", postType, err)
	}
	return names, nil
}

// Listing loads the fields a change entry is built from.
func (r *ListingRepository) Listing(ctx context.Context, id uint64) (notifModel.Listing, error) {
	t := r.Tables
	db := r.DB.WithContext(ctx)

	var post wpModel.PostModel
	err := db.Table(t.Posts()).
		Select("ID, post_title, post_type, post_status").
		Where("ID = ?", id).
		Take(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notifModel.Listing{}, ErrNotFound
	}
	if err != nil {
		return notifModel.Listing{}, fmt.Errorf("load post %d: %w", id, err)
	}

	out := notifModel.Listing{ID: post.ID, Title: post.PostTitle, PostType: post.PostType, PostStatus: post.PostStatus}

	var metas []wpModel.PostMetaModel
	if err := db.Table(t.PostMeta()).
		Where("post_id = ? AND meta_key IN ?", id, []string{constants.MetaBuilder, constants.MetaSubdivision}).
		Order("meta_id ASC").
		Find(&metas).Error; err != nil {
		return out, fmt.Errorf("load meta %d: %w", id, err)
	}
	for _, m := range metas {
		if m.MetaValue == nil {
			continue
		}
		// first value wins, like a single get_post_meta read
		switch {
		case m.MetaKey == constants.MetaBuilder && out.BuilderRaw == "":
			out.BuilderRaw = *m.MetaValue
		case m.MetaKey == constants.MetaSubdivision && out.SubdivisionRaw == "":
			out.SubdivisionRaw = *m.MetaValue
		}
	}

	label, err := r.StatusLabel(ctx, id)
	if err != nil {
		return out, err
	}
	out.StatusLabel = label
	return out, nil
}

// StatusLabel joins the es_status term names of a post, or N/A.
func (r *ListingRepository) StatusLabel(ctx context.Context, id uint64) (string, error) {
	t := r.Tables
	var names []string
	if err := r.DB.WithContext(ctx).
		Table(t.TermRelationships()+" tr").
		Joins("JOIN "+t.TermTaxonomy()+" tt ON tt.term_taxonomy_id = tr.term_taxonomy_id").
		Joins("JOIN "+t.Terms()+" t ON t.term_id = tt.term_id").
		Where("tr.object_id = ? AND tt.taxonomy = ?", id, constants.TaxonomyListingStatus).
		Order("t.name ASC").
		Pluck("t.name", &names).Error; err != nil {
		return "", fmt.Errorf("status label %d: %w", id, err)
	}
	if len(names) == 0 {
		return constants.NotAvailable, nil
	}
	return strings.Join(names, ", "), nil
}

// RecentUnnotified lists properties created since `since` that have not been
// included in a new-listing digest yet. It compares the local post_date
// because drafts and pending posts carry a zero post_date_gmt.
func (r *ListingRepository) RecentUnnotified(ctx context.Context, since time.Time) ([]uint64, error) {
	t := r.Tables
	var ids []uint64
	if err := r.DB.WithContext(ctx).
		Table(t.Posts()+" p").
		Where("p.post_type = ?", constants.PostTypeProperty).
		Where("p.post_status NOT IN ?", []string{constants.PostStatusTrash, constants.PostStatusAutoDraft}).
		Where("p.post_date > ?", dbtime.WallClock(since, r.Loc)).
		Where("NOT EXISTS (SELECT 1 FROM "+t.PostMeta()+" pm WHERE pm.post_id = p.ID AND pm.meta_key = ?)", constants.MetaNotificationSent).
		Order("p.ID ASC").
		Pluck("p.ID", &ids).Error; err != nil {
		return nil, fmt.Errorf("recent unnotified: %w", err)
	}
	return ids, nil
}

// MarkNotified sets the notified marker once.
func (r *ListingRepository) MarkNotified(ctx context.Context, id uint64) error {
	t := r.Tables
	q := fmt.Sprintf(`
		INSERT INTO %[1]s (post_id, meta_key, meta_value)
		SELECT ?, ?, 'yes' FROM DUAL
		WHERE NOT EXISTS (SELECT 1 FROM %[1]s WHERE post_id = ? AND meta_key = ?)`, t.PostMeta())
	if err := r.DB.WithContext(ctx).Exec(q, id, constants.MetaNotificationSent, id, constants.MetaNotificationSent).Error; err != nil {
		return fmt.Errorf("mark notified %d: %w", id, err)
	}
	return nil
}

// ModifiedSince lists posts and properties modified after the watermark,
// oldest first. A zero post_date_gmt (drafts) is filled from post_date.
func (r *ListingRepository) ModifiedSince(ctx context.Context, since time.Time, limit int) ([]notifModel.ChangedPost, error) {
	var rows []notifModel.ChangedPost
	if err := r.DB.WithContext(ctx).
		Table(r.Tables.Posts()).
		Select("ID, post_type, post_date, post_date_gmt, post_modified_gmt").
		Where("post_type IN ?", []string{constants.PostTypePost, constants.PostTypeProperty}).
		Where("post_status NOT IN ?", []string{constants.PostStatusAutoDraft, "inherit"}).
		Where("post_modified_gmt > ?", since.UTC()).
		Order("post_modified_gmt ASC, ID ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("modified since: %w", err)
	}
	for i := range rows {
		if rows[i].PostDateGMT.IsZero() {
			rows[i].PostDateGMT = dbtime.FromWallClock(rows[i].PostDate, r.Loc).UTC()
		}
	}
	return rows, nil
}

// AdminEmails returns the addresses of administrator accounts.
func (r *ListingRepository) AdminEmails(ctx context.Context) ([]string, error) {
	t := r.Tables
	var users []wpModel.UserModel
	if err := r.DB.WithContext(ctx).
		Table(t.Users()+" u").
		Select("u.ID, u.user_login, u.user_email").
		Joins("JOIN "+t.UserMeta()+" um ON um.user_id = u.ID").
		Where("um.meta_key = ? AND um.meta_value LIKE ?", t.CapabilitiesMetaKey(), `%"`+constants.RoleAdministrator+`"%`).
		Order("u.ID ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("admin emails: %w", err)
	}
	emails := make([]string, 0, len(users))
	for _, u := range users {
		if u.UserEmail != "" {
			emails = append(emails, u.UserEmail)
		}
	}
	return emails, nil
}
