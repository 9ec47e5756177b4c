package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	notifModel "propertytools_backend/internals/features/properties/notifications/model"
)

var fixedNow = time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

type fakeListings struct {
	mu       sync.Mutex
	listings map[uint64]notifModel.Listing
	created  map[uint64]time.Time
	modified map[uint64]time.Time
	notified map[uint64]bool
	names    map[string][]string
	admins   []string
	loads    int
}

func newFakeListings() *fakeListings {
	return &fakeListings{
		listings: map[uint64]notifModel.Listing{},
		created:  map[uint64]time.Time{},
		modified: map[uint64]time.Time{},
		notified: map[uint64]bool{},
		names: map[string][]string{
			constants.PostTypeBuilder:     {"Acme Homes", "ACME Legal LLC"},
			constants.PostTypeSubdivision: {"Willow Creek"},
		},
	}
}

func (f *fakeListings) add(l notifModel.Listing, created time.Time) {
	f.listings[l.ID] = l
	f.created[l.ID] = created
	f.modified[l.ID] = created
}

func (f *fakeListings) CanonicalNames(ctx context.Context, postType string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.names[postType], nil
}

func (f *fakeListings) Listing(ctx context.Context, id uint64) (notifModel.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return notifModel.Listing{}, errors.New("post not found")
	}
	return l, nil
}

func (f *fakeListings) RecentUnnotified(ctx context.Context, since time.Time) ([]uint64, error) {
	ids := make([]uint64, 0)
	for id, l := range f.listings {
		if l.PostType == constants.PostTypeProperty && f.created[id].After(since) && !f.notified[id] {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeListings) MarkNotified(ctx context.Context, id uint64) error {
	f.notified[id] = true
	return nil
}

func (f *fakeListings) ModifiedSince(ctx context.Context, since time.Time, limit int) ([]notifModel.ChangedPost, error) {
	out := make([]notifModel.ChangedPost, 0)
	for id, l := range f.listings {
		if f.modified[id].After(since) {
			out = append(out, notifModel.ChangedPost{ID: id, PostType: l.PostType, PostDateGMT: f.created[id], PostModifiedGMT: f.modified[id]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeListings) AdminEmails(ctx context.Context) ([]string, error) {
	return f.admins, nil
}

type fakeQueue struct {
	entries []notifModel.Entry
	ttl     time.Duration
}

func (q *fakeQueue) Append(ctx context.Context, e notifModel.Entry, ttl time.Duration) (int, error) {
	q.entries = append(q.entries, e)
	q.ttl = ttl
	return len(q.entries), nil
}

func (q *fakeQueue) Take(ctx context.Context) ([]notifModel.Entry, error) {
	out := q.entries
	q.entries = nil
	return out, nil
}

func (q *fakeQueue) Peek(ctx context.Context) ([]notifModel.Entry, time.Time, error) {
	return q.entries, time.Time{}, nil
}

type fakeOptions map[string]string

func (o fakeOptions) Get(ctx context.Context, name string) (string, bool, error) {
	v, ok := o[name]
	return v, ok, nil
}

func (o fakeOptions) Set(ctx context.Context, name, value string, autoload bool) error {
	o[name] = value
	return nil
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	fail map[string]bool
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, html string) error {
	if m.fail[to] {
		return errors.New("smtp refused")
	}
	m.sent = append(m.sent, sentMail{to, subject, html})
	return nil
}

type fixture struct {
	svc      *NotificationService
	listings *fakeListings
	queue    *fakeQueue
	options  fakeOptions
	mailer   *fakeMailer
}

func newFixture() *fixture {
	f := &fixture{
		listings: newFakeListings(),
		queue:    &fakeQueue{},
		options:  fakeOptions{constants.OptionBlogName: "Homes &amp; Land"},
		mailer:   &fakeMailer{fail: map[string]bool{}},
	}
	f.svc = NewNotificationService(f.listings, f.queue, f.options, f.mailer, configs.DefaultToolsConfig())
	f.svc.Now = func() time.Time { return fixedNow }
	return f
}

func property(id uint64, builder, subdivision string) notifModel.Listing {
	return notifModel.Listing{
		ID: id, Title: "100 Main St", PostType: constants.PostTypeProperty, PostStatus: constants.PostStatusPublish,
		BuilderRaw: builder, SubdivisionRaw: subdivision, StatusLabel: "Active",
	}
}

func TestEnqueueChangeMatchesCanonicalNames(t *testing.T) {
	f := newFixture()
	f.listings.add(property(7, "  acme   homes ", "WILLOW CREEK"), fixedNow.Add(-48*time.Hour))

	queued, n, err := f.svc.EnqueueChange(context.Background(), 7, false, "")
	require.NoError(t, err)
	assert.True(t, queued)
	assert.Equal(t, 1, n)

	e := f.queue.entries[0]
	assert.Equal(t, "Acme Homes", e.Builder)
	assert.Equal(t, "Willow Creek", e.Subdivision)
	assert.Equal(t, "  acme   homes ", f.listings.listings[7].BuilderRaw)
	assert.Equal(t, "acme   homes", e.BuilderRaw)
	assert.True(t, e.Match)
	assert.Equal(t, notifModel.ActionUpdated, e.Action)
	assert.Equal(t, 24*time.Hour, f.queue.ttl)
}

func TestEnqueueChangeUnmatchedIsNA(t *testing.T) {
	f := newFixture()
	f.listings.add(property(8, "Nobody Builders", ""), fixedNow)

	_, _, err := f.svc.EnqueueChange(context.Background(), 8, true, SourceUpdate)
	require.NoError(t, err)

	e := f.queue.entries[0]
	assert.Equal(t, constants.NotAvailable, e.Builder)
	assert.Equal(t, constants.NotAvailable, e.Subdivision)
	assert.Equal(t, constants.NotAvailable, e.SubdivisionRaw)
	assert.False(t, e.Match)
	assert.Equal(t, notifModel.ActionCreated, e.Action)
}

func TestEnqueueChangeSourceRules(t *testing.T) {
	f := newFixture()
	f.listings.add(property(1, "Acme Homes", "Willow Creek"), fixedNow)
	f.listings.add(notifModel.Listing{ID: 2, Title: "News", PostType: constants.PostTypePost}, fixedNow)
	f.listings.add(notifModel.Listing{ID: 3, Title: "About", PostType: "page"}, fixedNow)
	ctx := context.Background()

	queued, _, err := f.svc.EnqueueChange(ctx, 1, true, SourceImport)
	require.NoError(t, err)
	assert.True(t, queued)
	assert.Equal(t, notifModel.ActionReimport, f.queue.entries[0].Action)

	queued, _, _ = f.svc.EnqueueChange(ctx, 1, false, SourceImport)
	assert.False(t, queued, "import path only reports new listings")

	queued, _, _ = f.svc.EnqueueChange(ctx, 2, true, SourceImport)
	assert.False(t, queued, "import path only covers properties")

	queued, _, _ = f.svc.EnqueueChange(ctx, 2, false, SourceUpdate)
	assert.True(t, queued)

	queued, _, _ = f.svc.EnqueueChange(ctx, 3, false, SourceUpdate)
	assert.False(t, queued)

	_, _, err = f.svc.EnqueueChange(ctx, 1, false, "bulk")
	assert.ErrorIs(t, err, ErrUnknownSource)

	assert.Len(t, f.queue.entries, 2)
}

func TestCanonicalNamesCachedAcrossEnqueues(t *testing.T) {
	f := newFixture()
	f.listings.add(property(1, "Acme Homes", "Willow Creek"), fixedNow)
	for i := 0; i < 3; i++ {
		_, _, err := f.svc.EnqueueChange(context.Background(), 1, false, SourceUpdate)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, f.listings.loads)
}

func TestFlushDigestSendsOnePerRecipientAndClears(t *testing.T) {
	f := newFixture()
	f.options[constants.OptionRecipients] = "a@example.com, b@example.com\nA@example.com;bad-address"
	f.listings.add(property(1, "Acme Homes", "Willow Creek"), fixedNow)
	f.listings.add(property(2, "x", "y"), fixedNow)
	ctx := context.Background()
	_, _, _ = f.svc.EnqueueChange(ctx, 1, false, SourceUpdate)
	_, _, _ = f.svc.EnqueueChange(ctx, 2, false, SourceUpdate)

	n, err := f.svc.FlushDigest(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, f.queue.entries)

	require.Len(t, f.mailer.sent, 2)
	assert.Equal(t, "a@example.com", f.mailer.sent[0].to)
	assert.Equal(t, "b@example.com", f.mailer.sent[1].to)
	assert.Equal(t, "Homes & Land, Post/Property Digest: 2 changes detected", f.mailer.sent[0].subject)
	assert.Contains(t, f.mailer.sent[0].body, "Acme Homes")

	n, err = f.svc.FlushDigest(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.mailer.sent, 2, "empty queue sends nothing")
}

func TestFlushDigestFallsBackToAdmins(t *testing.T) {
	f := newFixture()
	f.listings.admins = []string{"admin@example.com"}
	f.listings.add(property(1, "Acme Homes", "Willow Creek"), fixedNow)
	_, _, _ = f.svc.EnqueueChange(context.Background(), 1, false, SourceUpdate)

	_, err := f.svc.FlushDigest(context.Background())
	require.NoError(t, err)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "admin@example.com", f.mailer.sent[0].to)
}

func TestFlushDigestSendFailureDoesNotStopOthers(t *testing.T) {
	f := newFixture()
	f.options[constants.OptionRecipients] = "a@example.com,b@example.com"
	f.mailer.fail["a@example.com"] = true
	f.listings.add(property(1, "Acme Homes", "Willow Creek"), fixedNow)
	_, _, _ = f.svc.EnqueueChange(context.Background(), 1, false, SourceUpdate)

	n, err := f.svc.FlushDigest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "b@example.com", f.mailer.sent[0].to)
}

func TestCheckRecentUnnotifiedMarksOnce(t *testing.T) {
	f := newFixture()
	f.options[constants.OptionRecipients] = "ops@example.com"
	f.listings.add(property(1, "Acme Homes", "Willow Creek"), fixedNow.Add(-time.Hour))
	f.listings.add(property(2, "Acme Homes", ""), fixedNow.Add(-2*time.Hour))
	f.listings.add(property(3, "Acme Homes", ""), fixedNow.Add(-30*time.Hour))

	n, err := f.svc.CheckRecentUnnotified(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, f.listings.notified[1])
	assert.True(t, f.listings.notified[2])
	assert.False(t, f.listings.notified[3])
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "Homes & Land, Property Digest: 2 new properties added", f.mailer.sent[0].subject)

	n, err = f.svc.CheckRecentUnnotified(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.mailer.sent, 1)
}

func TestRunAllDigestsChecksThenFlushes(t *testing.T) {
	f := newFixture()
	f.options[constants.OptionRecipients] = "ops@example.com"
	f.listings.add(property(1, "Acme Homes", "Willow Creek"), fixedNow.Add(-time.Hour))
	_, _, _ = f.svc.EnqueueChange(context.Background(), 1, true, SourceUpdate)

	sum, err := f.svc.RunAllDigests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RunSummary{Checked: 1, Flushed: 1}, sum)
	require.Len(t, f.mailer.sent, 2)
	assert.Contains(t, f.mailer.sent[0].subject, "new properties added")
	assert.Contains(t, f.mailer.sent[1].subject, "changes detected")
}

func TestSendTestEmail(t *testing.T) {
	f := newFixture()
	f.options[constants.OptionRecipients] = "ops@example.com"

	n, err := f.svc.SendTestEmail(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, "Homes & Land, Property Digest: Test Email", f.mailer.sent[0].subject)
	assert.Contains(t, f.mailer.sent[0].body, "1234 N Test Ave")
	assert.Contains(t, f.mailer.sent[0].body, "5678 W Example St")
	assert.Contains(t, f.mailer.sent[0].body, footerTest)
}

func TestSaveRecipientsTrimsLines(t *testing.T) {
	f := newFixture()
	list, err := f.svc.SaveRecipients(context.Background(), "  a@example.com \r\n b@example.com  \n")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, list)
	assert.Equal(t, "a@example.com\nb@example.com", f.options[constants.OptionRecipients])
}

func TestPollChangesAdvancesWatermark(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	n, err := f.svc.PollChanges(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, fixedNow.Format(time.RFC3339), f.options[constants.OptionChangeWatermark])

	old := property(1, "Acme Homes", "Willow Creek")
	f.listings.add(old, fixedNow.Add(-72*time.Hour))
	f.listings.modified[1] = fixedNow.Add(time.Minute)
	f.listings.add(property(2, "Acme Homes", "Willow Creek"), fixedNow.Add(2*time.Minute))

	n, err = f.svc.PollChanges(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, f.queue.entries, 2)
	assert.Equal(t, notifModel.ActionUpdated, f.queue.entries[0].Action)
	assert.Equal(t, notifModel.ActionCreated, f.queue.entries[1].Action)
	assert.Equal(t, fixedNow.Add(2*time.Minute).Format(time.RFC3339), f.options[constants.OptionChangeWatermark])

	n, err = f.svc.PollChanges(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRenderDigestEscapesCells(t *testing.T) {
	out, err := RenderDigest(IntroChanges, []notifModel.Entry{{Address: `<b>"x"</b>`, Action: "updated"}}, false)
	require.NoError(t, err)
	assert.NotContains(t, out, "<b>")
	assert.True(t, strings.Contains(out, constants.NotAvailable))
	assert.Contains(t, out, "Builder (From Site)")
}

func TestParseRecipients(t *testing.T) {
	got := ParseRecipients("a@example.com;;b@example.com\r\nnot-an-email, a@example.com ,\nc@example.org")
	assert.Equal(t, []string{"a@example.com", "b@example.com", "c@example.org"}, got)
	assert.Empty(t, ParseRecipients(""))
}
