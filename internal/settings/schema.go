package settings

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Parameter ids understood by the renderers.
const (
	Size     = "size"
	Count    = "count"
	Contrast = "contrast"
	Random   = "random"
)

//go:embed schema.yaml
var defaultSchema []byte

// Definition is one entry of the static settings schema
type Definition struct {
	ID      string `yaml:"id" json:"id" validate:"required"`
	Label   string `yaml:"label" json:"label" validate:"required"`
	Min     int    `yaml:"min" json:"min"`
	Max     int    `yaml:"max" json:"max" validate:"gtefield=Min"`
	Default int    `yaml:"default" json:"default"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultSchema returns the built-in size/count/contrast/random schema.
func DefaultSchema() ([]Definition, error) {
	return LoadSchema(bytes.NewReader(defaultSchema))
}

// LoadSchema parses a YAML list of definitions. Range checks of defaults are
// left to Register so they surface as InvalidRangeError.
func LoadSchema(r io.Reader) ([]Definition, error) {
	var defs []Definition
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&defs); err != nil {
		return nil, fmt.Errorf("failed to parse settings schema: %w", err)
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("settings schema is empty")
	}
	return defs, nil
}

func validateDefinition(def Definition) error {
	if err := validate.Struct(def); err != nil {
		return fmt.Errorf("invalid definition %q: %w", def.ID, err)
	}
	return nil
}
