package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"propertytools_backend/internals/constants"
)

var folder = cases.Fold()

// NormalizeName folds case, applies NFC and collapses whitespace runs.
func NormalizeName(s string) string {
	s = norm.NFC.String(s)
	s = strings.Join(strings.Fields(s), " ")
	return folder.String(s)
}

// ValidateAgainstCanonicalList returns the stored canonical spelling of raw
// when it matches one of names, else N/A.
func ValidateAgainstCanonicalList(raw string, names []string) string {
	key := NormalizeName(raw)
	if key == "" {
		return constants.NotAvailable
	}
	for _, name := range names {
		if NormalizeName(name) == key {
			return strings.Join(strings.Fields(norm.NFC.String(name)), " ")
		}
	}
	return constants.NotAvailable
}

// NameLoader loads the canonical names of one post type.
type NameLoader func(ctx context.Context, postType string) ([]string, error)

type cachedNames struct {
	names   []string
	expires time.Time
}

// CanonicalCache keeps canonical name lists in memory for TTL.
type CanonicalCache struct {
	TTL  time.Duration
	Load NameLoader
	Now  func() time.Time

	mu      sync.Mutex
	entries map[string]cachedNames
}

func NewCanonicalCache(ttl time.Duration, load NameLoader) *CanonicalCache {
	return &CanonicalCache{TTL: ttl, Load: load, Now: time.Now, entries: map[string]cachedNames{}}
}

func (c *CanonicalCache) Names(ctx context.Context, postType string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.Now()
	if e, ok := c.entries[postType]; ok && now.Before(e.expires) {
		return e.names, nil
	}
	names, err := c.Load(ctx, postType)
	if err != nil {
		return nil, err
	}
	c.entries[postType] = cachedNames{names: names, expires: now.Add(c.TTL)}
	return names, nil
}

func (c *CanonicalCache) Invalidate() {
	c.mu.Lock()
	c.entries = map[string]cachedNames{}
	c.mu.Unlock()
}
