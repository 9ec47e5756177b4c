// Package idscan extracts positive integer IDs from meta values of unknown
// shape: scalars, delimited lists, JSON documents, PHP-serialized structures
// and any nesting of those.
package idscan

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"

	"propertytools_backend/internals/helpers/phpvalue"
)

// Set is a set of IDs.
type Set map[uint64]struct{}

func NewSet(ids ...uint64) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s Set) Add(id uint64) {
	if id > 0 {
		s[id] = struct{}{}
	}
}

func (s Set) AddAll(ids []uint64) {
	for _, id := range ids {
		s.Add(id)
	}
}

func (s Set) Has(id uint64) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Merge(o Set) {
	for id := range o {
		s[id] = struct{}{}
	}
}

const maxDepth = 64

// Extract walks v and returns every positive integer token, first-seen order,
// deduplicated. Strings are decoded (serialized, then JSON) when they look
// structured; otherwise they are split on whitespace, comma, semicolon and pipe
// and each all-digit token counts. Map keys are ignored.
func Extract(v any) []uint64 {
	seen := make(Set)
	out := make([]uint64, 0)
	walk(v, 0, func(id uint64) {
		if id == 0 || seen.Has(id) {
			return
		}
		seen.Add(id)
		out = append(out, id)
	})
	return out
}

func walk(v any, depth int, emit func(uint64)) {
	if depth > maxDepth {
		return
	}
	switch t := v.(type) {
	case nil, bool:
	case string:
		walkString(t, depth, emit)
	case []byte:
		walkString(string(t), depth, emit)
	case int:
		if t > 0 {
			emit(uint64(t))
		}
	case int64:
		if t > 0 {
			emit(uint64(t))
		}
	case uint64:
		emit(t)
	case float64:
		if t > 0 && t == math.Trunc(t) && t < math.MaxUint64 {
			emit(uint64(t))
		}
	case []any:
		for _, it := range t {
			walk(it, depth+1, emit)
		}
	case []string:
		for _, it := range t {
			walk(it, depth+1, emit)
		}
	case map[string]any:
		for _, k := range sortedKeys(t) {
			walk(t[k], depth+1, emit)
		}
	}
}

func walkString(s string, depth int, emit func(uint64)) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}

	if phpvalue.IsSerialized(s) {
		if decoded, err := phpvalue.Decode(s); err == nil {
			walk(decoded, depth+1, emit)
			return
		}
	}

	if first := s[0]; first == '[' || first == '{' {
		var decoded any
		if err := sonic.UnmarshalString(s, &decoded); err == nil {
			walk(decoded, depth+1, emit)
			return
		}
	}

	for _, tok := range strings.FieldsFunc(s, isDelimiter) {
		if !allDigits(tok) {
			continue
		}
		if id, err := strconv.ParseUint(tok, 10, 64); err == nil {
			emit(id)
		}
	}
}

// sortedKeys orders numeric keys numerically ahead of the rest so decoded
// PHP lists keep their index order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, aerr := strconv.ParseInt(keys[i], 10, 64)
		b, berr := strconv.ParseInt(keys[j], 10, 64)
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		}
		return keys[i] < keys[j]
	})
	return keys
}

func isDelimiter(r rune) bool {
	switch r {
	case ',', ';', '|', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
