package settings

import (
	"errors"
	"strings"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewDefaultRegistry()
	if err != nil {
		t.Fatalf("NewDefaultRegistry: %v", err)
	}
	return r
}

func TestDefaultSchema(t *testing.T) {
	r := newTestRegistry(t)

	want := []Setting{
		{ID: Size, Label: "Size", Min: 1, Max: 16, Value: 1},
		{ID: Count, Label: "Count", Min: 0, Max: 10000, Value: 500},
		{ID: Contrast, Label: "Contrast", Min: 0, Max: 100, Value: 5},
		{ID: Random, Label: "Contrast variation", Min: 0, Max: 100, Value: 2},
	}
	got := r.Settings()
	if len(got) != len(want) {
		t.Fatalf("got %d settings, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("setting %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRegisterRejectsDefaultOutOfRange(t *testing.T) {
	r := NewRegistry()
	err := r.Register([]Definition{
		{ID: "ok", Label: "OK", Min: 0, Max: 10, Default: 5},
		{ID: "bad", Label: "Bad", Min: 0, Max: 10, Default: 11},
	})

	var rangeErr *InvalidRangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("expected InvalidRangeError, got %v", err)
	}
	if rangeErr.ID != "bad" || rangeErr.Default != 11 {
		t.Errorf("unexpected error details: %+v", rangeErr)
	}
	if len(r.Settings()) != 0 {
		t.Error("no setting should be registered when the schema is invalid")
	}
}

func TestRegisterValidatesDefinitions(t *testing.T) {
	tests := []struct {
		name string
		defs []Definition
	}{
		{"missing id", []Definition{{Label: "X", Min: 0, Max: 1}}},
		{"missing label", []Definition{{ID: "x", Min: 0, Max: 1}}},
		{"max below min", []Definition{{ID: "x", Label: "X", Min: 5, Max: 1, Default: 5}}},
		{"duplicate id", []Definition{
			{ID: "x", Label: "X", Min: 0, Max: 1},
			{ID: "x", Label: "Y", Min: 0, Max: 1},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewRegistry().Register(tt.defs); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestUpdateValueReturnsLabel(t *testing.T) {
	r := newTestRegistry(t)

	label, err := r.UpdateValue(Contrast, 50)
	if err != nil {
		t.Fatalf("UpdateValue: %v", err)
	}
	if label != "Contrast: 50" {
		t.Errorf("label = %q, want %q", label, "Contrast: 50")
	}

	label, err = r.UpdateValue(Random, 7)
	if err != nil {
		t.Fatalf("UpdateValue: %v", err)
	}
	if label != "Contrast variation: 7" {
		t.Errorf("label = %q", label)
	}
}

func TestUpdateValueRejects(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		value int
	}{
		{"below min", Size, 0},
		{"above max", Size, 17},
		{"count above max", Count, 10001},
		{"negative contrast", Contrast, -1},
		{"unknown id", "gamma", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistry(t)
			before := r.Snapshot()

			_, err := r.UpdateValue(tt.id, tt.value)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.ID != tt.id {
				t.Errorf("error id = %q, want %q", verr.ID, tt.id)
			}

			after := r.Snapshot()
			for id, v := range before {
				if after[id] != v {
					t.Errorf("%s changed from %d to %d after rejected update", id, v, after[id])
				}
			}
		})
	}
}

// Every in-range value round-trips through Snapshot without touching other ids.
func TestUpdateThenSnapshot(t *testing.T) {
	base := newTestRegistry(t)
	for _, s := range base.Settings() {
		for _, v := range []int{s.Min, (s.Min + s.Max) / 2, s.Max} {
			r := newTestRegistry(t)
			before := r.Snapshot()

			if _, err := r.UpdateValue(s.ID, v); err != nil {
				t.Fatalf("UpdateValue(%s, %d): %v", s.ID, v, err)
			}

			snap := r.Snapshot()
			if snap.Get(s.ID) != v {
				t.Errorf("snapshot[%s] = %d, want %d", s.ID, snap.Get(s.ID), v)
			}
			for id, old := range before {
				if id != s.ID && snap[id] != old {
					t.Errorf("updating %s changed %s from %d to %d", s.ID, id, old, snap[id])
				}
			}
		}
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	r := newTestRegistry(t)
	snap := r.Snapshot()

	if _, err := r.UpdateValue(Count, 9000); err != nil {
		t.Fatal(err)
	}
	if snap.Get(Count) != 500 {
		t.Errorf("earlier snapshot changed to %d", snap.Get(Count))
	}

	snap[Size] = 99
	if s, _ := r.Get(Size); s.Value != 1 {
		t.Errorf("mutating a snapshot changed the registry: %d", s.Value)
	}
}

func TestLoadSchema(t *testing.T) {
	defs, err := LoadSchema(strings.NewReader(`
- id: gamma
  label: Gamma
  min: 1
  max: 3
  default: 2
`))
	if err != nil {
		t.Fatalf("LoadSchema: %v", err)
	}
	if len(defs) != 1 || defs[0].ID != "gamma" || defs[0].Default != 2 {
		t.Errorf("unexpected definitions: %+v", defs)
	}

	if _, err := LoadSchema(strings.NewReader("- id: x\n  unknown: 1\n")); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := LoadSchema(strings.NewReader("[]")); err == nil {
		t.Error("expected error for empty schema")
	}
}

func TestPreviewDoesNotStore(t *testing.T) {
	r := newTestRegistry(t)

	label, err := r.Preview(Contrast, 50)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if label != "Contrast: 50" {
		t.Errorf("label = %q, want %q", label, "Contrast: 50")
	}
	if got := r.Snapshot().Get(Contrast); got != 5 {
		t.Errorf("contrast = %d after preview, want 5", got)
	}

	var vErr *ValidationError
	if _, err := r.Preview(Contrast, 101); !errors.As(err, &vErr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
