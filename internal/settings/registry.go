package settings

import (
	"fmt"
)

// Setting is a single tunable parameter. Min <= Value <= Max always holds.
type Setting struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Value int    `json:"value"`
}

// LabelText is the text shown next to the control, e.g. "Contrast: 50".
func (s Setting) LabelText() string {
	return fmt.Sprintf("%s: %d", s.Label, s.Value)
}

// Snapshot is an immutable copy of setting values keyed by id
type Snapshot map[string]int

// Get returns the value for id, or 0 if the id is unknown.
func (s Snapshot) Get(id string) int {
	return s[id]
}

// Registry holds settings in schema order. It is not safe for concurrent use;
// the orchestrator loop is its only writer.
type Registry struct {
	order    []string
	settings map[string]*Setting
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		settings: make(map[string]*Setting),
	}
}

// NewDefaultRegistry creates a registry populated from DefaultSchema.
func NewDefaultRegistry() (*Registry, error) {
	schema, err := DefaultSchema()
	if err != nil {
		return nil, err
	}
	r := NewRegistry()
	if err := r.Register(schema); err != nil {
		return nil, err
	}
	return r, nil
}

// Register initializes entries from schema. Nothing is registered if any
// definition is invalid.
func (r *Registry) Register(schema []Definition) error {
	seen := make(map[string]bool, len(schema))
	for _, def := range schema {
		if err := validateDefinition(def); err != nil {
			return err
		}
		if seen[def.ID] || r.settings[def.ID] != nil {
			return fmt.Errorf("duplicate setting id %q", def.ID)
		}
		seen[def.ID] = true
		if def.Default < def.Min || def.Default > def.Max {
			return &InvalidRangeError{ID: def.ID, Min: def.Min, Max: def.Max, Default: def.Default}
		}
	}

	for _, def := range schema {
		r.order = append(r.order, def.ID)
		r.settings[def.ID] = &Setting{
			ID:    def.ID,
			Label: def.Label,
			Min:   def.Min,
			Max:   def.Max,
			Value: def.Default,
		}
	}
	return nil
}

// UpdateValue stores value for id and returns the new label text.
func (r *Registry) UpdateValue(id string, value int) (string, error) {
	s, err := r.check(id, value)
	if err != nil {
		return "", err
	}
	s.Value = value
	return s.LabelText(), nil
}

// Preview validates value for id and returns the label text it would produce.
// Nothing is stored.
func (r *Registry) Preview(id string, value int) (string, error) {
	s, err := r.check(id, value)
	if err != nil {
		return "", err
	}
	preview := *s
	preview.Value = value
	return preview.LabelText(), nil
}

func (r *Registry) check(id string, value int) (*Setting, error) {
	s, ok := r.settings[id]
	if !ok {
		return nil, &ValidationError{ID: id, Value: value, Reason: "unknown setting"}
	}
	if value < s.Min || value > s.Max {
		return nil, &ValidationError{
			ID:     id,
			Value:  value,
			Reason: fmt.Sprintf("outside [%d, %d]", s.Min, s.Max),
		}
	}
	return s, nil
}

// Get returns a copy of the setting with the given id.
func (r *Registry) Get(id string) (Setting, bool) {
	s, ok := r.settings[id]
	if !ok {
		return Setting{}, false
	}
	return *s, true
}

// Snapshot returns the current values. Later updates do not affect it.
func (r *Registry) Snapshot() Snapshot {
	snap := make(Snapshot, len(r.settings))
	for id, s := range r.settings {
		snap[id] = s.Value
	}
	return snap
}

// Settings returns copies of all settings in display order.
func (r *Registry) Settings() []Setting {
	out := make([]Setting, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.settings[id])
	}
	return out
}
