package session

import (
	"context"
	"testing"

	"github.com/tilecraft/atlas/pkg/errors"
	"github.com/tilecraft/atlas/pkg/mapblock"
)

func newGeoSession(t *testing.T, f *fixture, id string) *Session {
	t.Helper()
	s, err := New(f.config(&mapblock.Params{Mode: mapblock.ModeGeographic, ID: id}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestRegistryLookup(t *testing.T) {
	f := newFixture(t)
	r := NewRegistry()

	s := newGeoSession(t, f, "a")
	r.Register("a", s)

	got, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}

	if _, err := r.Get("unknown"); errors.GetCode(err) != errors.ErrCodeNotFound {
		t.Errorf("Get(unknown) = %v, want NOT_FOUND", err)
	}
}

func TestRegistryReplaceDestroysPrevious(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := NewRegistry()

	first := newGeoSession(t, f, "a")
	if err := first.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	r.Register("a", first)

	second := newGeoSession(t, f, "a")
	r.Register("a", second)

	if first.State() != StateDestroyed {
		t.Error("replaced session should be destroyed")
	}
	got, err := r.Get("a")
	if err != nil || got != second {
		t.Errorf("Get = %v, %v; want the replacement", got, err)
	}
}

func TestRegistryDeregister(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := NewRegistry()

	s := newGeoSession(t, f, "a")
	if err := s.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	r.Register("a", s)
	r.Deregister("a")

	if s.State() != StateDestroyed {
		t.Error("deregistered session should be destroyed")
	}
	if _, err := r.Get("a"); err == nil {
		t.Error("deregistered id still resolves")
	}

	r.Deregister("a") // no-op
}

func TestRegistryClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	r := NewRegistry()

	a := newGeoSession(t, f, "a")
	b := newGeoSession(t, f, "b")
	if err := a.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	r.Register("a", a)
	r.Register("b", b)

	if ids := r.IDs(); len(ids) != 2 {
		t.Fatalf("IDs = %v, want 2 entries", ids)
	}

	r.Close()
	if a.State() != StateDestroyed || b.State() != StateDestroyed {
		t.Error("Close should destroy every session")
	}
	if ids := r.IDs(); len(ids) != 0 {
		t.Errorf("IDs after Close = %v", ids)
	}
}
