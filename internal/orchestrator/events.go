package orchestrator

// Event types published to the sink
const (
	EventSetting = "setting"
	EventRender  = "render"
	EventImage   = "image"
)

// EventSink receives notifications from the loop. Publish must not block for long.
type EventSink interface {
	Publish(eventType string, data any)
}

type discardSink struct{}

func (discardSink) Publish(string, any) {}
