// internals/features/properties/notifications/repository/queue_repository.go
package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"propertytools_backend/internals/constants"
	notifModel "propertytools_backend/internals/features/properties/notifications/model"
	wpModel "propertytools_backend/internals/features/wordpress/model"
	wpRepo "propertytools_backend/internals/features/wordpress/repository"
	"propertytools_backend/internals/helpers/phpvalue"
)

// QueueRepository stores pending change entries in a transient-style option
// pair: the JSON payload and its expiry in unix seconds.
type QueueRepository struct {
	DB     *gorm.DB
	Tables wpModel.Tables
	Now    func() time.Time
}

func NewQueueRepository(db *gorm.DB, t wpModel.Tables) *QueueRepository {
	return &QueueRepository{DB: db, Tables: t, Now: time.Now}
}

func valueOption() string   { return "_transient_" + constants.TransientNotifications }
func timeoutOption() string { return "_transient_timeout_" + constants.TransientNotifications }

// Append adds e to the queue and refreshes the expiry. It returns the new
// queue length.
func (r *QueueRepository) Append(ctx context.Context, e notifModel.Entry, ttl time.Duration) (int, error) {
	var n int
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, err := r.load(r.lockedReader(tx))
		if err != nil {
			return err
		}
		entries = append(entries, e)
		if err := r.store(tx, entries, ttl); err != nil {
			return err
		}
		n = len(entries)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("queue append: %w", err)
	}
	return n, nil
}

// Take returns the queued entries and clears the slot.
func (r *QueueRepository) Take(ctx context.Context) ([]notifModel.Entry, error) {
	var out []notifModel.Entry
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entries, err := r.load(r.lockedReader(tx))
		if err != nil {
			return err
		}
		out = entries
		return wpRepo.DeleteTx(tx, r.Tables, valueOption(), timeoutOption())
	})
	if err != nil {
		return nil, fmt.Errorf("queue take: %w", err)
	}
	return out, nil
}

// Peek reads the queue without clearing it. The expiry is zero when the
// slot is empty.
func (r *QueueRepository) Peek(ctx context.Context) ([]notifModel.Entry, time.Time, error) {
	opts := wpRepo.NewOptionsRepository(r.DB, r.Tables)
	read := func(name string) (string, bool, error) { return opts.Get(ctx, name) }

	entries, err := r.load(read)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("queue peek: %w", err)
	}
	if len(entries) == 0 {
		return entries, time.Time{}, nil
	}
	raw, _, err := read(timeoutOption())
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("queue peek: %w", err)
	}
	return entries, unixOrZero(raw), nil
}

func (r *QueueRepository) lockedReader(tx *gorm.DB) func(string) (string, bool, error) {
	return func(name string) (string, bool, error) { return wpRepo.GetForUpdate(tx, r.Tables, name) }
}

// load returns the live entries; an expired slot reads as empty.
func (r *QueueRepository) load(read func(string) (string, bool, error)) ([]notifModel.Entry, error) {
	timeout, ok, err := read(timeoutOption())
	if err != nil {
		return nil, err
	}
	if ok {
		if exp := unixOrZero(timeout); !exp.IsZero() && !r.Now().Before(exp) {
			return []notifModel.Entry{}, nil
		}
	}

	raw, ok, err := read(valueOption())
	if err != nil {
		return nil, err
	}
	if !ok {
		return []notifModel.Entry{}, nil
	}
	return DecodeEntries(raw), nil
}

func (r *QueueRepository) store(tx *gorm.DB, entries []notifModel.Entry, ttl time.Duration) error {
	blob, err := sonic.MarshalString(entries)
	if err != nil {
		return fmt.Errorf("encode queue: %w", err)
	}
	if err := wpRepo.SetTx(tx, r.Tables, valueOption(), blob, false); err != nil {
		return err
	}
	exp := r.Now().Add(ttl).Unix()
	return wpRepo.SetTx(tx, r.Tables, timeoutOption(), strconv.FormatInt(exp, 10), false)
}

func unixOrZero(raw string) time.Time {
	sec, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}

// DecodeEntries reads a stored queue payload. JSON is the native format;
// PHP-serialized arrays written by the plugin are accepted too. Anything
// unreadable decodes to an empty queue.
func DecodeEntries(raw string) []notifModel.Entry {
	raw = strings.TrimSpace(raw)
	out := []notifModel.Entry{}
	if raw == "" {
		return out
	}
	if strings.HasPrefix(raw, "[") {
		if err := sonic.UnmarshalString(raw, &out); err != nil {
			return []notifModel.Entry{}
		}
		return out
	}
	if !phpvalue.IsSerialized(raw) {
		return out
	}
	v, err := phpvalue.Decode(raw)
	if err != nil {
		return out
	}
	list, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for i := 0; ; i++ {
		item, ok := list[strconv.Itoa(i)].(map[string]any)
		if !ok {
			break
		}
		out = append(out, entryFromMap(item))
	}
	return out
}

func entryFromMap(m map[string]any) notifModel.Entry {
	str := func(k string) string {
		switch v := m[k].(type) {
		case string:
			return v
		case int64:
			return strconv.FormatInt(v, 10)
		}
		return ""
	}
	e := notifModel.Entry{
		Address:        str("address"),
		BuilderRaw:     str("builder_raw"),
		Builder:        str("builder"),
		SubdivisionRaw: str("subdivision_raw"),
		Subdivision:    str("subdivision"),
		Status:         str("status"),
		Action:         str("action"),
	}
	if id, err := strconv.ParseUint(str("post_id"), 10, 64); err == nil {
		e.PostID = id
	}
	switch v := m["match"].(type) {
	case bool:
		e.Match = v
	case string:
		e.Match = v == "Yes"
	}
	if ts := unixOrZero(str("timestamp")); !ts.IsZero() {
		e.QueuedAt = ts
	}
	return e
}
