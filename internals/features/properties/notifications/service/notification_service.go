// internals/features/properties/notifications/service/notification_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	notifModel "propertytools_backend/internals/features/properties/notifications/model"
	"propertytools_backend/internals/metrics"
)

// Change sources
const (
	SourceUpdate = "update"
	SourceImport = "import"
)

// pollLimit caps one change-poller pass; the watermark carries the rest over.
const pollLimit = 500

var ErrUnknownSource = errors.New("unknown change source")

type ListingStore interface {
	CanonicalNames(ctx context.Context, postType string) ([]string, error)
	Listing(ctx context.Context, id uint64) (notifModel.Listing, error)
	RecentUnnotified(ctx context.Context, since time.Time) ([]uint64, error)
	MarkNotified(ctx context.Context, id uint64) error
	ModifiedSince(ctx context.Context, since time.Time, limit int) ([]notifModel.ChangedPost, error)
	AdminEmails(ctx context.Context) ([]string, error)
}

type QueueStore interface {
	Append(ctx context.Context, e notifModel.Entry, ttl time.Duration) (int, error)
	Take(ctx context.Context) ([]notifModel.Entry, error)
	Peek(ctx context.Context) ([]notifModel.Entry, time.Time, error)
}

type OptionStore interface {
	Get(ctx context.Context, name string) (string, bool, error)
	Set(ctx context.Context, name, value string, autoload bool) error
}

type NotificationService struct {
	Listings ListingStore
	Queue    QueueStore
	Options  OptionStore
	Mailer   Mailer
	Canon    *CanonicalCache
	Conf     configs.ToolsConfig
	Log      *zap.Logger
	Now      func() time.Time
}

func NewNotificationService(l ListingStore, q QueueStore, o OptionStore, m Mailer, conf configs.ToolsConfig) *NotificationService {
	return &NotificationService{
		Listings: l,
		Queue:    q,
		Options:  o,
		Mailer:   m,
		Canon:    NewCanonicalCache(conf.CanonicalTTLDuration(), l.CanonicalNames),
		Conf:     conf,
		Log:      configs.Logger,
		Now:      time.Now,
	}
}

// RunSummary is the result of one combined digest run.
type RunSummary struct {
	Checked int `json:"checked"`
	Flushed int `json:"flushed"`
}

// BuildEntry validates a listing's builder and subdivision against the
// canonical lists.
func (s *NotificationService) BuildEntry(ctx context.Context, l notifModel.Listing, action string) (notifModel.Entry, error) {
	builders, err := s.Canon.Names(ctx, constants.PostTypeBuilder)
	if err != nil {
		return notifModel.Entry{}, fmt.Errorf("builder names: %w", err)
	}
	subdivisions, err := s.Canon.Names(ctx, constants.PostTypeSubdivision)
	if err != nil {
		return notifModel.Entry{}, fmt.Errorf("subdivision names: %w", err)
	}

	e := notifModel.Entry{
		PostID:         l.ID,
		Address:        l.Title,
		BuilderRaw:     notifModel.OrNA(strings.TrimSpace(l.BuilderRaw)),
		Builder:        ValidateAgainstCanonicalList(l.BuilderRaw, builders),
		SubdivisionRaw: notifModel.OrNA(strings.TrimSpace(l.SubdivisionRaw)),
		Subdivision:    ValidateAgainstCanonicalList(l.SubdivisionRaw, subdivisions),
		Status:         notifModel.OrNA(l.StatusLabel),
		Action:         action,
		QueuedAt:       s.Now().UTC(),
	}
	e.Match = e.Builder != constants.NotAvailable && e.Subdivision != constants.NotAvailable
	return e, nil
}

// EnqueueChange queues a change entry for postID. queued is false when the
// post type or source does not qualify.
func (s *NotificationService) EnqueueChange(ctx context.Context, postID uint64, isNew bool, source string) (queued bool, length int, err error) {
	if source == "" {
		source = SourceUpdate
	}
	if source != SourceUpdate && source != SourceImport {
		return false, 0, ErrUnknownSource
	}

	l, err := s.Listings.Listing(ctx, postID)
	if err != nil {
		return false, 0, err
	}

	var action string
	switch source {
	case SourceImport:
		if l.PostType != constants.PostTypeProperty || !isNew {
			return false, 0, nil
		}
		action = notifModel.ActionReimport
	default:
		if l.PostType != constants.PostTypeProperty && l.PostType != constants.PostTypePost {
			return false, 0, nil
		}
		action = notifModel.ActionUpdated
		if isNew {
			action = notifModel.ActionCreated
		}
	}

	e, err := s.BuildEntry(ctx, l, action)
	if err != nil {
		return false, 0, err
	}
	n, err := s.Queue.Append(ctx, e, s.Conf.QueueTTLDuration())
	if err != nil {
		return false, 0, err
	}
	metrics.AddQueueAppend(action)
	s.Log.Debug("[NOTIFY] queued change",
		zap.Uint64("post_id", postID), zap.String("action", action), zap.Int("queue_len", n))
	return true, n, nil
}

// FlushDigest takes the queue and mails it. It returns the number of entries
// taken; the queue is cleared even when nobody receives the digest.
func (s *NotificationService) FlushDigest(ctx context.Context) (int, error) {
	entries, err := s.Queue.Take(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	site, err := s.SiteLabel(ctx)
	if err != nil {
		return len(entries), err
	}
	subject := fmt.Sprintf("%s, Post/Property Digest: %d changes detected", site, len(entries))
	if err := s.sendDigest(ctx, "changes", subject, IntroChanges, entries, false); err != nil {
		return len(entries), err
	}
	return len(entries), nil
}

// CheckRecentUnnotified mails a digest of properties created in the last 24
// hours that were never reported, marking each as reported.
func (s *NotificationService) CheckRecentUnnotified(ctx context.Context) (int, error) {
	ids, err := s.Listings.RecentUnnotified(ctx, s.Now().Add(-24*time.Hour))
	if err != nil {
		return 0, err
	}

	rows := make([]notifModel.Entry, 0, len(ids))
	for _, id := range ids {
		l, err := s.Listings.Listing(ctx, id)
		if err != nil {
			s.Log.Warn("[NOTIFY] skip listing", zap.Uint64("post_id", id), zap.Error(err))
			continue
		}
		e, err := s.BuildEntry(ctx, l, notifModel.ActionCreated)
		if err != nil {
			return len(rows), err
		}
		if err := s.Listings.MarkNotified(ctx, id); err != nil {
			s.Log.Warn("[NOTIFY] mark notified failed", zap.Uint64("post_id", id), zap.Error(err))
			continue
		}
		rows = append(rows, e)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	site, err := s.SiteLabel(ctx)
	if err != nil {
		return len(rows), err
	}
	subject := fmt.Sprintf("%s, Property Digest: %d new properties added", site, len(rows))
	return len(rows), s.sendDigest(ctx, "new", subject, IntroNew, rows, false)
}

// RunAllDigests runs the new-listing checker, then flushes the queue.
func (s *NotificationService) RunAllDigests(ctx context.Context) (RunSummary, error) {
	var sum RunSummary
	var err error
	if sum.Checked, err = s.CheckRecentUnnotified(ctx); err != nil {
		return sum, fmt.Errorf("check: %w", err)
	}
	if sum.Flushed, err = s.FlushDigest(ctx); err != nil {
		return sum, fmt.Errorf("flush: %w", err)
	}
	return sum, nil
}

// SendTestEmail mails the two-row sample digest and returns the recipient count.
func (s *NotificationService) SendTestEmail(ctx context.Context) (int, error) {
	to, err := s.ResolvedRecipients(ctx)
	if err != nil {
		return 0, err
	}
	if len(to) == 0 {
		return 0, nil
	}
	site, err := s.SiteLabel(ctx)
	if err != nil {
		return 0, err
	}
	subject := site + ", Property Digest: Test Email"
	return len(to), s.sendDigest(ctx, "test", subject, IntroTest, SampleEntries(), true)
}

func (s *NotificationService) sendDigest(ctx context.Context, kind, subject, intro string, rows []notifModel.Entry, test bool) error {
	to, err := s.ResolvedRecipients(ctx)
	if err != nil {
		return err
	}
	if len(to) == 0 {
		s.Log.Warn("[NOTIFY] no recipients, digest dropped", zap.String("kind", kind), zap.Int("rows", len(rows)))
		return nil
	}
	body, err := RenderDigest(intro, rows, test)
	if err != nil {
		return err
	}

	run := uuid.NewString()
	sent := 0
	for _, addr := range to {
		err := s.Mailer.Send(ctx, addr, subject, body)
		metrics.AddDigest(kind, err == nil)
		if err != nil {
			s.Log.Warn("[NOTIFY] send failed", zap.String("run", run), zap.String("to", addr), zap.Error(err))
			continue
		}
		sent++
	}
	s.Log.Info("[NOTIFY] digest sent",
		zap.String("run", run), zap.String("kind", kind), zap.Int("rows", len(rows)),
		zap.Int("recipients", len(to)), zap.Int("delivered", sent))
	return nil
}

// Recipients returns the stored list as typed and the parsed addresses.
func (s *NotificationService) Recipients(ctx context.Context) (string, []string, error) {
	raw, _, err := s.Options.Get(ctx, constants.OptionRecipients)
	if err != nil {
		return "", nil, err
	}
	return raw, ParseRecipients(raw), nil
}

// ResolvedRecipients falls back to administrator addresses when the stored
// list has no valid entry.
func (s *NotificationService) ResolvedRecipients(ctx context.Context) ([]string, error) {
	_, list, err := s.Recipients(ctx)
	if err != nil {
		return nil, err
	}
	if len(list) > 0 {
		return list, nil
	}
	admins, err := s.Listings.AdminEmails(ctx)
	if err != nil {
		return nil, err
	}
	return ParseRecipients(strings.Join(admins, ",")), nil
}

// SaveRecipients stores the list as typed, minus surrounding blanks per line.
func (s *NotificationService) SaveRecipients(ctx context.Context, raw string) ([]string, error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	clean := strings.TrimSpace(strings.Join(lines, "\n"))
	if err := s.Options.Set(ctx, constants.OptionRecipients, clean, false); err != nil {
		return nil, err
	}
	return ParseRecipients(clean), nil
}

// SiteLabel is the site name with HTML entities decoded.
func (s *NotificationService) SiteLabel(ctx context.Context) (string, error) {
	raw, _, err := s.Options.Get(ctx, constants.OptionBlogName)
	if err != nil {
		return "", err
	}
	return html.UnescapeString(raw), nil
}

// Pending lists the queue without clearing it.
func (s *NotificationService) Pending(ctx context.Context) ([]notifModel.Entry, time.Time, error) {
	return s.Queue.Peek(ctx)
}

// PollChanges enqueues posts modified since the stored watermark and moves
// the watermark forward. The first run only records the current time.
func (s *NotificationService) PollChanges(ctx context.Context) (int, error) {
	raw, ok, err := s.Options.Get(ctx, constants.OptionChangeWatermark)
	if err != nil {
		return 0, err
	}
	mark, perr := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if !ok || perr != nil {
		return 0, s.saveWatermark(ctx, s.Now())
	}

	rows, err := s.Listings.ModifiedSince(ctx, mark, pollLimit)
	if err != nil {
		return 0, err
	}

	queued := 0
	next := mark
	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}
		isNew := row.PostDateGMT.After(mark)
		ok, _, err := s.EnqueueChange(ctx, row.ID, isNew, SourceUpdate)
		if err != nil {
			s.Log.Warn("[NOTIFY] poll enqueue failed", zap.Uint64("post_id", row.ID), zap.Error(err))
		} else if ok {
			queued++
		}
		if row.PostModifiedGMT.After(next) {
			next = row.PostModifiedGMT
		}
	}
	if next.After(mark) {
		if err := s.saveWatermark(ctx, next); err != nil {
			return queued, err
		}
	}
	return queued, nil
}

func (s *NotificationService) saveWatermark(ctx context.Context, t time.Time) error {
	return s.Options.Set(ctx, constants.OptionChangeWatermark, t.UTC().Format(time.RFC3339), false)
}
