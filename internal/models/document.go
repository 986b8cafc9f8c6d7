// Package models defines the domain types for folio.
package models

import (
	"fmt"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Metadata keys understood by folio. Every other key is carried in Extra.
const (
	KeyName    = "name"
	KeyHash    = "md5"
	KeyTags    = "tags"
	KeyAuthors = "authors"
	KeyIDs     = "ids"
	KeyPubDate = "pubdate"
)

// AuthorTagPrefix marks tags synthesized from the authors list.
const AuthorTagPrefix = "author:"

// Document is the metadata record kept in a document's YAML sidecar.
type Document struct {
	Name        string
	ContentHash string
	// Path is the sidecar directory joined with Name. It is filled in
	// during aggregation and never written back.
	Path    string
	Tags    []string
	Authors []string
	IDs     []string
	PubDate string
	// Extra holds every other key as the node it was read from.
	Extra map[string]*yaml.Node
}

// Validate checks the fields an index pass cannot do without.
func (d *Document) Validate() error {
	return validation.ValidateStruct(d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Tags, validation.NotNil),
	)
}

// FoldAuthors appends an author:<name> tag for every author.
func (d *Document) FoldAuthors() {
	if len(d.Authors) == 0 {
		return
	}
	if d.Tags == nil {
		d.Tags = make([]string, 0, len(d.Authors))
	}
	for _, a := range d.Authors {
		d.Tags = append(d.Tags, AuthorTagPrefix+a)
	}
}

// IsZero reports whether the record carries no data at all.
func (d *Document) IsZero() bool {
	return d.Name == "" && d.ContentHash == "" && d.PubDate == "" &&
		d.Tags == nil && d.Authors == nil && d.IDs == nil && len(d.Extra) == 0
}

// Keys returns every identifier the document can be looked up by:
// the content hash first, then the declared ids.
func (d *Document) Keys() []string {
	keys := make([]string, 0, 1+len(d.IDs))
	if d.ContentHash != "" {
		keys = append(keys, d.ContentHash)
	}
	return append(keys, d.IDs...)
}

// ExtraString returns the text of a free-form scalar field, or "" when the
// field is absent or not a scalar.
func (d *Document) ExtraString(key string) string {
	n := resolveAlias(d.Extra[key])
	if n == nil || n.Kind != yaml.ScalarNode || n.Tag == nullTag {
		return ""
	}
	return n.Value
}

// ExtraStrings returns a free-form field as a list of strings. A scalar
// yields one element; any other shape yields nil.
func (d *Document) ExtraStrings(key string) []string {
	n := resolveAlias(d.Extra[key])
	if n == nil {
		return nil
	}
	out, err := stringList(key, n)
	if err != nil {
		return nil
	}
	return out
}

// SetExtra stores v under a free-form key.
func (d *Document) SetExtra(key string, v any) error {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return fmt.Errorf("models: encode %s: %w", key, err)
	}
	if d.Extra == nil {
		d.Extra = make(map[string]*yaml.Node)
	}
	d.Extra[key] = &n
	return nil
}

// MarshalYAML emits the record as a single mapping with known and
// free-form keys together in byte order. Free-form values are written back
// as the nodes they were read from.
func (d Document) MarshalYAML() (interface{}, error) {
	fields := make(map[string]*yaml.Node, len(d.Extra)+6)
	for k, v := range d.Extra {
		fields[k] = v
	}
	if d.Name != "" {
		fields[KeyName] = strNode(d.Name)
	}
	if d.ContentHash != "" {
		fields[KeyHash] = strNode(d.ContentHash)
	}
	if d.Tags != nil {
		fields[KeyTags] = seqNode(d.Tags)
	}
	if d.Authors != nil {
		fields[KeyAuthors] = seqNode(d.Authors)
	}
	if d.IDs != nil {
		fields[KeyIDs] = seqNode(d.IDs)
	}
	if d.PubDate != "" {
		fields[KeyPubDate] = strNode(d.PubDate)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range keys {
		out.Content = append(out.Content, strNode(k), fields[k])
	}
	return out, nil
}

// UnmarshalYAML splits a mapping into known fields and Extra. Known fields
// take the scalar text as written, so `pubdate: 2023-06-15` stays a string.
func (d *Document) UnmarshalYAML(value *yaml.Node) error {
	value = resolveAlias(value)
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", value.Line)
	}

	var doc Document
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, v := resolveAlias(value.Content[i]), resolveAlias(value.Content[i+1])
		if keyNode.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: expected a scalar key", keyNode.Line)
		}
		k := keyNode.Value
		var err error
		switch k {
		case KeyName:
			doc.Name, err = scalarString(k, v)
		case KeyHash:
			doc.ContentHash, err = scalarString(k, v)
		case KeyPubDate:
			doc.PubDate, err = scalarString(k, v)
		case KeyTags:
			doc.Tags, err = stringList(k, v)
		case KeyAuthors:
			doc.Authors, err = stringList(k, v)
		case KeyIDs:
			doc.IDs, err = stringList(k, v)
		default:
			if doc.Extra == nil {
				doc.Extra = make(map[string]*yaml.Node)
			}
			doc.Extra[k] = v
		}
		if err != nil {
			return err
		}
	}
	*d = doc
	return nil
}

const nullTag = "!!null"

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func seqNode(items []string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: make([]*yaml.Node, 0, len(items))}
	for _, s := range items {
		n.Content = append(n.Content, strNode(s))
	}
	return n
}

// scalarString accepts any YAML scalar and returns its text as written.
func scalarString(key string, n *yaml.Node) (string, error) {
	n = resolveAlias(n)
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%s: line %d: expected a scalar", key, n.Line)
	}
	if n.Tag == nullTag {
		return "", nil
	}
	return n.Value, nil
}

func stringList(key string, n *yaml.Node) ([]string, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.SequenceNode:
		out := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			s, err := scalarString(key, item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case yaml.ScalarNode:
		if n.Tag == nullTag {
			return nil, nil
		}
		// A lone scalar is read as a one-element list.
		return []string{n.Value}, nil
	default:
		return nil, fmt.Errorf("%s: line %d: expected a list", key, n.Line)
	}
}
