// Package vault defines the document-repository contract Atlas consumes and
// provides filesystem and MongoDB backed implementations.
//
// A vault is a hierarchical namespace of documents. Text documents carry
// structured front matter (TOML, delimited by "+++" lines) followed by a
// free-form body; binary documents hold image and tile bytes. The map
// renderer only ever needs path lookup, front-matter reads, listing by
// entity type, and a binary read/write pair; everything else the host
// application does with documents is out of scope here.
package vault

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
)

// Entity types recognized by marker discovery. A document declares its type
// with the front-matter key `entity`.
const (
	EntityLocation  = "location"
	EntityCharacter = "character"
	EntityEvent     = "event"
	EntityItem      = "item"
	EntityGroup     = "group"
)

// EntityTypes lists every known entity type in a stable order.
var EntityTypes = []string{EntityLocation, EntityCharacter, EntityEvent, EntityItem, EntityGroup}

// StringList decodes a TOML value that may be a single string or an array
// of strings. Authors write `map = "westeros"` and `map = ["a", "b"]`
// interchangeably.
type StringList []string

// UnmarshalTOML implements toml.Unmarshaler.
func (s *StringList) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		*s = StringList{val}
	case []any:
		out := make(StringList, 0, len(val))
		for _, item := range val {
			str, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, str)
		}
		*s = out
	default:
		return fmt.Errorf("expected string or array of strings, got %T", v)
	}
	return nil
}

// FrontMatter is the structured header of a vault document. Only the fields
// the map renderer consults are typed; authors are free to add others.
type FrontMatter struct {
	Entity      string     `toml:"entity"`
	Name        string     `toml:"name"`
	Maps        StringList `toml:"map"`
	RelatedMaps StringList `toml:"related_maps"`
	Tags        StringList `toml:"tags"`

	// Coordinate fields, consulted in this order by discovery: an explicit
	// pair, then lat/long, then a generic location pair.
	Coordinates []float64 `toml:"coordinates"`
	Lat         *float64  `toml:"lat"`
	Long        *float64  `toml:"long"`
	Location    []float64 `toml:"location"`

	// Generic icon overrides for any rendering of this entity.
	Icon      string `toml:"icon"`
	IconColor string `toml:"icon_color"`

	// Marker-specific overrides; beat the generic pair when present.
	MarkerIcon  string `toml:"marker_icon"`
	MarkerColor string `toml:"marker_color"`

	MinZoom *int   `toml:"min_zoom"`
	MaxZoom *int   `toml:"max_zoom"`
	Layer   string `toml:"layer"`
}

// Document is a text document read from a vault.
type Document struct {
	Path        string
	FrontMatter FrontMatter
	Body        string
}

// Basename returns the document's file name without directory or extension,
// the form used inside [[wiki links]].
func (d *Document) Basename() string {
	base := path.Base(d.Path)
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Repository is the document-repository contract the map renderer consumes.
type Repository interface {
	// Exists reports whether a document or binary exists at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Read loads a text document and parses its front matter.
	Read(ctx context.Context, path string) (*Document, error)

	// ReadBinary loads raw bytes (images, tiles).
	ReadBinary(ctx context.Context, path string) ([]byte, error)

	// WriteBinary stores raw bytes, creating intermediate folders as
	// needed. Creating a folder that already exists is not an error.
	WriteBinary(ctx context.Context, path string, data []byte) error

	// ListByEntity returns every document whose front matter declares the
	// given entity type.
	ListByEntity(ctx context.Context, entityType string) ([]*Document, error)

	// ResolveLink maps a [[wiki link]] basename to a document path.
	// The second return value is false when no document matches.
	ResolveLink(ctx context.Context, basename string) (string, bool, error)
}

// frontMatterDelim separates front matter from the document body.
const frontMatterDelim = "+++"

// ParseDocument splits raw document bytes into front matter and body.
// Documents without a front-matter block parse to an empty FrontMatter.
func ParseDocument(docPath string, data []byte) (*Document, error) {
	doc := &Document{Path: docPath}
	text := string(data)

	trimmed := strings.TrimLeft(text, "\r\n")
	if !strings.HasPrefix(trimmed, frontMatterDelim) {
		doc.Body = text
		return doc, nil
	}

	rest := trimmed[len(frontMatterDelim):]
	end := strings.Index(rest, "\n"+frontMatterDelim)
	if end < 0 {
		return nil, fmt.Errorf("%s: unterminated front matter", docPath)
	}

	header := rest[:end]
	body := rest[end+len(frontMatterDelim)+1:]
	body = strings.TrimPrefix(body, "\r\n")
	body = strings.TrimPrefix(body, "\n")

	if err := toml.Unmarshal([]byte(header), &doc.FrontMatter); err != nil {
		return nil, fmt.Errorf("%s: parse front matter: %w", docPath, err)
	}
	doc.Body = body
	return doc, nil
}
