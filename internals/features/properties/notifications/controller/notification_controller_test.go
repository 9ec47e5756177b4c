package controller

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propertytools_backend/internals/configs"
	"propertytools_backend/internals/constants"
	notifModel "propertytools_backend/internals/features/properties/notifications/model"
	notifRepo "propertytools_backend/internals/features/properties/notifications/repository"
	"propertytools_backend/internals/features/properties/notifications/service"
	helper "propertytools_backend/internals/helpers"
)

type stubListings struct{}

func (stubListings) CanonicalNames(ctx context.Context, postType string) ([]string, error) {
	return []string{"Acme Homes", "Willow Creek"}, nil
}

func (stubListings) Listing(ctx context.Context, id uint64) (notifModel.Listing, error) {
	if id != 42 {
		return notifModel.Listing{}, notifRepo.ErrNotFound
	}
	return notifModel.Listing{ID: 42, Title: "42 Oak Ln", PostType: constants.PostTypeProperty,
		BuilderRaw: "acme homes", SubdivisionRaw: "willow creek", StatusLabel: "Active"}, nil
}

func (stubListings) RecentUnnotified(ctx context.Context, since time.Time) ([]uint64, error) {
	return nil, nil
}

func (stubListings) MarkNotified(ctx context.Context, id uint64) error { return nil }

func (stubListings) ModifiedSince(ctx context.Context, since time.Time, limit int) ([]notifModel.ChangedPost, error) {
	return nil, nil
}

func (stubListings) AdminEmails(ctx context.Context) ([]string, error) {
	return []string{"admin@example.com"}, nil
}

type memQueue struct{ entries []notifModel.Entry }

func (q *memQueue) Append(ctx context.Context, e notifModel.Entry, ttl time.Duration) (int, error) {
	q.entries = append(q.entries, e)
	return len(q.entries), nil
}

func (q *memQueue) Take(ctx context.Context) ([]notifModel.Entry, error) {
	out := q.entries
	q.entries = nil
	return out, nil
}

func (q *memQueue) Peek(ctx context.Context) ([]notifModel.Entry, time.Time, error) {
	return q.entries, time.Time{}, nil
}

type memOptions map[string]string

func (o memOptions) Get(ctx context.Context, name string) (string, bool, error) {
	v, ok := o[name]
	return v, ok, nil
}

func (o memOptions) Set(ctx context.Context, name, value string, autoload bool) error {
	o[name] = value
	return nil
}

type nopMailer struct{ n int }

func (m *nopMailer) Send(ctx context.Context, to, subject, html string) error {
	m.n++
	return nil
}

type envelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

func setup() (*fiber.App, *memQueue, memOptions) {
	q := &memQueue{}
	opts := memOptions{constants.OptionBlogName: "Site"}
	svc := service.NewNotificationService(stubListings{}, q, opts, &nopMailer{}, configs.DefaultToolsConfig())
	h := NewNotificationController(svc)

	app := fiber.New(fiber.Config{ErrorHandler: helper.ErrorHandler})
	app.Post("/properties/:id/changes", h.QueueChange)
	app.Get("/notifications/recipients", h.GetRecipients)
	app.Put("/notifications/recipients", h.SaveRecipients)
	app.Get("/notifications/queue", h.Queue)
	return app, q, opts
}

func call(t *testing.T, app *fiber.App, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	raw, _ := io.ReadAll(resp.Body)
	var env envelope
	_ = sonic.Unmarshal(raw, &env)
	return resp.StatusCode, env
}

func TestQueueChange(t *testing.T) {
	app, q, _ := setup()

	code, env := call(t, app, http.MethodPost, "/properties/42/changes", `{"is_new":true}`)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, true, env.Data["queued"])
	assert.EqualValues(t, 1, env.Data["queue_length"])
	require.Len(t, q.entries, 1)
	assert.True(t, q.entries[0].Match)
	assert.Equal(t, notifModel.ActionCreated, q.entries[0].Action)
}

func TestQueueChangeBadInput(t *testing.T) {
	app, _, _ := setup()

	code, _ := call(t, app, http.MethodPost, "/properties/abc/changes", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = call(t, app, http.MethodPost, "/properties/42/changes", `{"source":"bulk"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	code, _ = call(t, app, http.MethodPost, "/properties/7/changes", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRecipientsRoundTrip(t *testing.T) {
	app, _, opts := setup()

	code, env := call(t, app, http.MethodGet, "/notifications/recipients", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, env.Data["fallback"])
	assert.Equal(t, []any{"admin@example.com"}, env.Data["resolved"])

	code, env = call(t, app, http.MethodPut, "/notifications/recipients", `{"recipients":"ops@example.com\nbad"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"ops@example.com"}, env.Data["resolved"])
	assert.Equal(t, "ops@example.com\nbad", opts[constants.OptionRecipients])
}

func TestQueuePeek(t *testing.T) {
	app, _, _ := setup()
	_, _ = call(t, app, http.MethodPost, "/properties/42/changes", "")

	code, env := call(t, app, http.MethodGet, "/notifications/queue", "")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 1, env.Data["length"])
	entries, ok := env.Data["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	assert.Equal(t, "42 Oak Ln", entries[0].(map[string]any)["address"])
}
