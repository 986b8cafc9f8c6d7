// Package tags derives identifiers, URLs and CSS classes from hierarchical
// colon-separated tags such as "project:alpha:draft".
package tags

import (
	"html/template"
	"strings"
)

// Separator splits a tag into its hierarchy levels.
const Separator = ":"

// AncestorChain returns tag followed by each of its ancestors, leaf to root.
func AncestorChain(tag string) []string {
	chain := []string{tag}
	for {
		i := strings.LastIndex(tag, Separator)
		if i < 0 {
			return chain
		}
		parent := tag[:i]
		if parent == tag {
			return chain
		}
		chain = append(chain, parent)
		tag = parent
	}
}

// ID returns a file-safe identifier for tag.
func ID(tag string) string {
	return strings.ReplaceAll(tag, Separator, "_")
}

// URL returns the per-tag index page location, relative to the catalog root.
func URL(tag string) string {
	return "index/" + ID(tag) + ".html"
}

// Classes returns the space-separated CSS classes for tag and its ancestors.
func Classes(tag string) string {
	chain := AncestorChain(tag)
	classes := make([]string, len(chain))
	for i, t := range chain {
		classes[i] = "tag-" + ID(t)
	}
	return strings.Join(classes, " ")
}

// FuncMap exposes the tag helpers to index templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"tagID":      ID,
		"tagURL":     URL,
		"tagClasses": Classes,
		"tagChain":   AncestorChain,
	}
}
