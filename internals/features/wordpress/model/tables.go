// internals/features/wordpress/model/tables.go
package model

import "strings"

// Tables resolves WordPress table names for a given table prefix.
type Tables struct {
	Prefix string
}

func NewTables(prefix string) Tables {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "wp_"
	}
	return Tables{Prefix: prefix}
}

func (t Tables) Posts() string               { return t.Prefix + "posts" }
func (t Tables) PostMeta() string            { return t.Prefix + "postmeta" }
func (t Tables) Terms() string               { return t.Prefix + "terms" }
func (t Tables) TermTaxonomy() string        { return t.Prefix + "term_taxonomy" }
func (t Tables) TermRelationships() string   { return t.Prefix + "term_relationships" }
func (t Tables) Options() string             { return t.Prefix + "options" }
func (t Tables) Users() string               { return t.Prefix + "users" }
func (t Tables) UserMeta() string            { return t.Prefix + "usermeta" }
func (t Tables) CapabilitiesMetaKey() string { return t.Prefix + "capabilities" }
