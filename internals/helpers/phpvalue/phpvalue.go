// Package phpvalue decodes values stored by PHP's serialize(), the format
// WordPress uses for array and object meta values.
//
// Decoded shapes: nil, bool, int64, float64, string, and map[string]any for
// arrays and objects (keys are stringified; object class names are kept
// under the "__class" key).
package phpvalue

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrSyntax = errors.New("phpvalue: invalid serialized data")

// maxDepth bounds nesting so hostile input cannot blow the stack.
const maxDepth = 64

// IsSerialized reports whether s looks like serialize() output.
func IsSerialized(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return false
	}
	if s == "N;" {
		return true
	}
	if len(s) < 4 || s[1] != ':' {
		return false
	}
	last := s[len(s)-1]
	switch s[0] {
	case 'a', 'O':
		return last == '}'
	case 's':
		return last == ';' && strings.HasSuffix(s, "\";")
	case 'i', 'd', 'b':
		return last == ';'
	}
	return false
}

// Decode parses one serialized value. Trailing bytes are an error.
func Decode(s string) (any, error) {
	d := decoder{src: strings.TrimSpace(s)}
	v, err := d.value(0)
	if err != nil {
		return nil, err
	}
	if d.pos != len(d.src) {
		return nil, fmt.Errorf("%w: trailing data at %d", ErrSyntax, d.pos)
	}
	return v, nil
}

type decoder struct {
	src string
	pos int
}

func (d *decoder) fail(what string) error {
	return fmt.Errorf("%w: %s at %d", ErrSyntax, what, d.pos)
}

func (d *decoder) expect(b byte) error {
	if d.pos >= len(d.src) || d.src[d.pos] != b {
		return d.fail(fmt.Sprintf("expected %q", b))
	}
	d.pos++
	return nil
}

// until reads up to (not including) the delimiter and consumes it.
func (d *decoder) until(delim byte) (string, error) {
	i := strings.IndexByte(d.src[d.pos:], delim)
	if i < 0 {
		return "", d.fail(fmt.Sprintf("missing %q", delim))
	}
	out := d.src[d.pos : d.pos+i]
	d.pos += i + 1
	return out, nil
}

func (d *decoder) length() (int, error) {
	raw, err := d.until(':')
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, d.fail("bad length")
	}
	return n, nil
}

func (d *decoder) quoted(n int) (string, error) {
	if err := d.expect('"'); err != nil {
		return "", err
	}
	if d.pos+n > len(d.src) {
		return "", d.fail("string overruns input")
	}
	s := d.src[d.pos : d.pos+n]
	d.pos += n
	if err := d.expect('"'); err != nil {
		return "", err
	}
	return s, nil
}

func (d *decoder) value(depth int) (any, error) {
	if depth > maxDepth {
		return nil, d.fail("nesting too deep")
	}
	if d.pos >= len(d.src) {
		return nil, d.fail("unexpected end")
	}

	kind := d.src[d.pos]
	d.pos++
	if kind == 'N' {
		return nil, d.expect(';')
	}
	if err := d.expect(':'); err != nil {
		return nil, err
	}

	switch kind {
	case 'b':
		raw, err := d.until(';')
		if err != nil {
			return nil, err
		}
		return raw == "1", nil
	case 'i':
		raw, err := d.until(';')
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, d.fail("bad integer")
		}
		return n, nil
	case 'd':
		raw, err := d.until(';')
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, d.fail("bad float")
		}
		return f, nil
	case 's':
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		s, err := d.quoted(n)
		if err != nil {
			return nil, err
		}
		return s, d.expect(';')
	case 'a':
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		return d.members(n, depth, nil)
	case 'O':
		n, err := d.length()
		if err != nil {
			return nil, err
		}
		class, err := d.quoted(n)
		if err != nil {
			return nil, err
		}
		if err := d.expect(':'); err != nil {
			return nil, err
		}
		count, err := d.length()
		if err != nil {
			return nil, err
		}
		return d.members(count, depth, &class)
	}
	return nil, d.fail(fmt.Sprintf("unknown type %q", kind))
}

func (d *decoder) members(n, depth int, class *string) (map[string]any, error) {
	if err := d.expect('{'); err != nil {
		return nil, err
	}
	// a key and a value take at least 4 bytes between them
	if n > (len(d.src)-d.pos)/4 {
		return nil, d.fail("member count overruns input")
	}
	out := make(map[string]any, n+1)
	if class != nil {
		out["__class"] = *class
	}
	for i := 0; i < n; i++ {
		k, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		var key string
		switch kt := k.(type) {
		case int64:
			key = strconv.FormatInt(kt, 10)
		case string:
			key = kt
		default:
			return nil, d.fail("bad array key")
		}
		v, err := d.value(depth + 1)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	if err := d.expect('}'); err != nil {
		return nil, err
	}
	return out, nil
}
