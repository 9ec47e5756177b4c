package service

import (
	"path"
	"sort"
	"strings"

	"propertytools_backend/internals/helpers/phpvalue"
)

// StoredFiles lists the upload-relative keys of an attachment: the attached
// file, the pre-scaling original and every generated size. Sizes live next to
// the attached file.
func StoredFiles(attachedFile, metadata string) []string {
	attachedFile = strings.TrimLeft(strings.TrimSpace(attachedFile), "/")
	dir := path.Dir(attachedFile)
	if dir == "." {
		dir = ""
	}

	seen := map[string]bool{}
	out := make([]string, 0, 8)
	add := func(key string) {
		key = strings.TrimLeft(strings.TrimSpace(key), "/")
		if key != "" && !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	sibling := func(name string) {
		if name = strings.TrimSpace(name); name != "" {
			add(path.Join(dir, path.Base(name)))
		}
	}

	add(attachedFile)
	if strings.TrimSpace(metadata) == "" {
		return out
	}
	decoded, err := phpvalue.Decode(metadata)
	if err != nil {
		return out
	}
	meta, ok := decoded.(map[string]any)
	if !ok {
		return out
	}

	if f, ok := meta["file"].(string); ok && attachedFile == "" {
		add(f)
		dir = path.Dir(strings.TrimLeft(f, "/"))
		if dir == "." {
			dir = ""
		}
	}
	if orig, ok := meta["original_image"].(string); ok {
		sibling(orig)
	}
	if sizes, ok := meta["sizes"].(map[string]any); ok {
		names := make([]string, 0, len(sizes))
		for name := range sizes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if sz, ok := sizes[name].(map[string]any); ok {
				if f, ok := sz["file"].(string); ok {
					sibling(f)
				}
			}
		}
	}
	return out
}
