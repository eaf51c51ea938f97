// Package markers defines point-of-interest markers and the discovery
// pipeline that assembles them from vault data.
//
// A marker is an ephemeral projection: it is rebuilt on every map-session
// initialization from the facts the vault owns (explicit block parameters,
// entity front matter, tags) and never persisted as its own artifact.
package markers

import (
	"github.com/google/uuid"

	"github.com/tilecraft/atlas/pkg/vault"
)

// Type is the closed set of marker kinds. Each type carries its own icon
// strategy (see icon.go); callers select behavior by switching on the type,
// never by comparing strings.
type Type int

const (
	TypeDefault Type = iota
	TypeLocation
	TypeCharacter
	TypeEvent
	TypeItem
	TypeGroup
)

// String returns the lowercase name used in JSON and block parameters.
func (t Type) String() string {
	switch t {
	case TypeLocation:
		return "location"
	case TypeCharacter:
		return "character"
	case TypeEvent:
		return "event"
	case TypeItem:
		return "item"
	case TypeGroup:
		return "group"
	default:
		return "default"
	}
}

// TypeFromEntity maps a vault entity type to a marker type. Unknown entity
// types convert to TypeDefault.
func TypeFromEntity(entity string) Type {
	switch entity {
	case vault.EntityLocation:
		return TypeLocation
	case vault.EntityCharacter:
		return TypeCharacter
	case vault.EntityEvent:
		return TypeEvent
	case vault.EntityItem:
		return TypeItem
	case vault.EntityGroup:
		return TypeGroup
	default:
		return TypeDefault
	}
}

// Loc is a marker position: either a logical coordinate pair or a
// percent-of-image pair.
type Loc struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Percent bool    `json:"percent,omitempty"`
}

// Definition is one resolved marker, ready for the map engine.
type Definition struct {
	ID          string `json:"id"`
	Type        Type   `json:"-"`
	TypeName    string `json:"type"`
	Loc         Loc    `json:"loc"`
	Link        string `json:"link,omitempty"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	IconColor   string `json:"iconColor,omitempty"`
	MinZoom     *int   `json:"minZoom,omitempty"`
	MaxZoom     *int   `json:"maxZoom,omitempty"`
	Layer       string `json:"layer,omitempty"`
}

// NewDefinition creates a marker with a fresh id and a consistent type name.
func NewDefinition(t Type, loc Loc) Definition {
	return Definition{
		ID:       uuid.NewString(),
		Type:     t,
		TypeName: t.String(),
		Loc:      loc,
	}
}

// FromDocument converts an entity document to a marker. The second return
// value is false when the document carries no usable coordinates.
//
// Coordinate fields are consulted in a fixed fallback order: an explicit
// `coordinates` pair, then `lat`/`long`, then a generic `location` pair.
// The first field that yields a pair wins; later alternatives are not
// consulted after that.
func FromDocument(doc *vault.Document) (Definition, bool) {
	fm := doc.FrontMatter

	loc, ok := coordinatesOf(fm)
	if !ok {
		return Definition{}, false
	}

	def := NewDefinition(TypeFromEntity(fm.Entity), loc)
	def.Link = "[[" + doc.Basename() + "]]"
	def.Description = fm.Name
	if def.Description == "" {
		def.Description = doc.Basename()
	}

	// Marker-specific override fields beat the generic entity pair.
	def.Icon = fm.MarkerIcon
	if def.Icon == "" {
		def.Icon = fm.Icon
	}
	def.IconColor = fm.MarkerColor
	if def.IconColor == "" {
		def.IconColor = fm.IconColor
	}

	def.MinZoom = fm.MinZoom
	def.MaxZoom = fm.MaxZoom
	def.Layer = fm.Layer
	return def, true
}

func coordinatesOf(fm vault.FrontMatter) (Loc, bool) {
	if len(fm.Coordinates) >= 2 {
		return Loc{X: fm.Coordinates[0], Y: fm.Coordinates[1]}, true
	}
	if fm.Lat != nil && fm.Long != nil {
		return Loc{X: *fm.Lat, Y: *fm.Long}, true
	}
	if len(fm.Location) >= 2 {
		return Loc{X: fm.Location[0], Y: fm.Location[1]}, true
	}
	return Loc{}, false
}

// Dedupe removes duplicate markers keyed on Link, keeping the first
// occurrence. Markers without a link always pass through: they are never
// deduplicated against each other.
//
// This runs once, over the fully concatenated list, so a high-precedence
// marker can never be dropped in favor of a later, lower-priority duplicate.
func Dedupe(defs []Definition) []Definition {
	seen := make(map[string]bool, len(defs))
	out := make([]Definition, 0, len(defs))
	for _, d := range defs {
		if d.Link != "" {
			if seen[d.Link] {
				continue
			}
			seen[d.Link] = true
		}
		out = append(out, d)
	}
	return out
}
