package markers

import (
	"testing"

	"github.com/tilecraft/atlas/pkg/errors"
)

func TestParse(t *testing.T) {
	def, err := Parse("50,50,[[Throne Room]],Audience Hall")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if def.Loc.X != 50 || def.Loc.Y != 50 || def.Loc.Percent {
		t.Errorf("Loc = %+v", def.Loc)
	}
	if def.Link != "[[Throne Room]]" {
		t.Errorf("Link = %q", def.Link)
	}
	if def.Description != "Audience Hall" {
		t.Errorf("Description = %q", def.Description)
	}
	if def.ID == "" {
		t.Error("parsed marker should get an id")
	}
}

func TestParsePercent(t *testing.T) {
	def, err := Parse("50%,50%,[[X]]")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if def.Loc.X != 50 || def.Loc.Y != 50 {
		t.Errorf("Loc = %+v", def.Loc)
	}
	if !def.Loc.Percent {
		t.Error("percent coordinates should set Percent")
	}
	if def.Link != "[[X]]" {
		t.Errorf("Link = %q", def.Link)
	}
}

func TestParseMixedPercent(t *testing.T) {
	// A single percent coordinate marks the whole pair as percent.
	def, err := Parse("50%,120")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !def.Loc.Percent {
		t.Error("mixed pair should be percent")
	}
}

func TestParseWithIcon(t *testing.T) {
	def, err := Parse("10.5, 20.25, [[Winterfell]], The North, castle")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if def.Loc.X != 10.5 || def.Loc.Y != 20.25 {
		t.Errorf("Loc = %+v", def.Loc)
	}
	if def.Icon != "castle" {
		t.Errorf("Icon = %q", def.Icon)
	}
}

func TestParseCoordinatesOnly(t *testing.T) {
	def, err := Parse("1,2")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if def.Link != "" || def.Description != "" || def.Icon != "" {
		t.Errorf("optional fields should be empty: %+v", def)
	}
}

func TestParseErrors(t *testing.T) {
	for _, s := range []string{"", "50", "abc,def", "50,"} {
		if _, err := Parse(s); err == nil {
			t.Errorf("Parse(%q) should fail", s)
		} else if !errors.Is(err, errors.ErrCodeInvalidMarker) {
			t.Errorf("Parse(%q) code = %s", s, errors.GetCode(err))
		}
	}
}
