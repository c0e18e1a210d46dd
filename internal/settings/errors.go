package settings

import "fmt"

// InvalidRangeError reports a schema default that lies outside its own range
type InvalidRangeError struct {
	ID      string
	Min     int
	Max     int
	Default int
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("setting %q: default %d outside [%d, %d]", e.ID, e.Default, e.Min, e.Max)
}

// ValidationError reports an update that the registry refused
type ValidationError struct {
	ID     string
	Value  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("setting %q: value %d rejected: %s", e.ID, e.Value, e.Reason)
}
