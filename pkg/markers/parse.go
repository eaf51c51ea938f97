package markers

import (
	"strconv"
	"strings"

	"github.com/tilecraft/atlas/pkg/errors"
)

// Parse parses an author-facing marker string from a map block:
//
//	"50,50,[[Throne Room]],Audience Hall,crown"
//
// Fields, in order: x, y, optional [[link]], optional description, optional
// icon. Coordinates may carry a percent suffix ("50%,50%,..."), which marks
// the location as percent-of-image; if either coordinate is a percentage
// the whole pair is.
func Parse(s string) (Definition, error) {
	parts := strings.SplitN(s, ",", 5)
	if len(parts) < 2 {
		return Definition{}, errors.New(errors.ErrCodeInvalidMarker, "marker %q needs at least two coordinates", s)
	}

	x, xPct, err := parseCoord(parts[0])
	if err != nil {
		return Definition{}, errors.Wrap(errors.ErrCodeInvalidMarker, err, "marker %q x coordinate", s)
	}
	y, yPct, err := parseCoord(parts[1])
	if err != nil {
		return Definition{}, errors.Wrap(errors.ErrCodeInvalidMarker, err, "marker %q y coordinate", s)
	}

	def := NewDefinition(TypeDefault, Loc{X: x, Y: y, Percent: xPct || yPct})
	if len(parts) > 2 {
		def.Link = strings.TrimSpace(parts[2])
	}
	if len(parts) > 3 {
		def.Description = strings.TrimSpace(parts[3])
	}
	if len(parts) > 4 {
		def.Icon = strings.TrimSpace(parts[4])
	}
	return def, nil
}

// parseCoord parses one coordinate, returning the value and whether it was
// written as a percentage.
func parseCoord(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	pct := strings.HasSuffix(s, "%")
	if pct {
		s = strings.TrimSuffix(s, "%")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, pct, nil
}
