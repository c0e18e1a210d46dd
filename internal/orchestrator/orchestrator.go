// Package orchestrator owns one workspace: its settings, the staged image and
// both surfaces. All state changes happen on a single loop goroutine started
// by Run; callers talk to it through Dispatch and the query methods.
package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rmitchellscott/stippler/internal/export"
	"github.com/rmitchellscott/stippler/internal/ingest"
	"github.com/rmitchellscott/stippler/internal/logging"
	"github.com/rmitchellscott/stippler/internal/rendering"
	"github.com/rmitchellscott/stippler/internal/settings"
)

var (
	// ErrNoImage is returned by trigger when nothing has been loaded yet.
	// It is never reported to callers.
	ErrNoImage = errors.New("no image loaded")

	// ErrSuperseded is returned for a load that finished after a newer load
	// had been submitted
	ErrSuperseded = errors.New("image load superseded by a newer upload")

	// ErrStopped is returned once the loop has exited
	ErrStopped = errors.New("orchestrator stopped")
)

type reply struct {
	result *Result
	err    error
}

type request struct {
	ctx   context.Context
	cmd   Command
	reply chan reply
}

type decoded struct {
	seq   uint64
	src   *ingest.ImageSource
	err   error
	reply chan reply
}

// Orchestrator serializes every command for one workspace
type Orchestrator struct {
	state    *State
	renderer rendering.Renderer
	pipeline *ingest.Pipeline
	exporter *export.Service
	sink     EventSink

	requests chan request
	queries  chan func()
	decodes  chan decoded
	stopped  chan struct{}
}

// NewOrchestrator creates an orchestrator. Run must be called before any
// command is dispatched. A nil sink discards events.
func NewOrchestrator(registry *settings.Registry, renderer rendering.Renderer, pipeline *ingest.Pipeline, exporter *export.Service, sink EventSink) *Orchestrator {
	if sink == nil {
		sink = discardSink{}
	}
	return &Orchestrator{
		state:    newState(registry),
		renderer: renderer,
		pipeline: pipeline,
		exporter: exporter,
		sink:     sink,
		requests: make(chan request),
		queries:  make(chan func()),
		decodes:  make(chan decoded),
		stopped:  make(chan struct{}),
	}
}

// Run processes commands until ctx is cancelled
func (o *Orchestrator) Run(ctx context.Context) {
	defer close(o.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-o.requests:
			o.handle(ctx, req)
		case fn := <-o.queries:
			fn()
		case d := <-o.decodes:
			o.finishLoad(d)
		}
	}
}

// Done is closed once Run has returned
func (o *Orchestrator) Done() <-chan struct{} {
	return o.stopped
}

// Dispatch sends cmd to the loop and waits for its result. Cancelling ctx
// stops the wait; a load already submitted still completes in the background.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd Command) (*Result, error) {
	req := request{ctx: ctx, cmd: cmd, reply: make(chan reply, 1)}

	select {
	case o.requests <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-o.stopped:
		return nil, ErrStopped
	}

	select {
	case r := <-req.reply:
		return r.result, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-o.stopped:
		return nil, ErrStopped
	}
}

// Settings returns the current settings in display order
func (o *Orchestrator) Settings(ctx context.Context) ([]SettingView, error) {
	var views []SettingView
	err := o.query(ctx, func() {
		for _, s := range o.state.Registry.Settings() {
			views = append(views, SettingView{Setting: s, Text: s.LabelText()})
		}
	})
	return views, err
}

// Status reports what is currently staged
func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	var st Status
	err := o.query(ctx, func() {
		st = Status{
			Renders:  o.state.Renders,
			Renderer: o.renderer.Name(),
			Rendered: o.state.Output.Rendered(),
		}
		if src := o.state.Source; src != nil {
			st.HasImage = true
			st.Width = src.Width
			st.Height = src.Height
			st.Format = src.Format
		}
	})
	return st, err
}

func (o *Orchestrator) query(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	wrapped := func() {
		fn()
		close(done)
	}

	select {
	case o.queries <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-o.stopped:
		return ErrStopped
	}

	// the loop runs fn before reading its next message, so done is closed
	// before Run can return
	<-done
	return nil
}

func (o *Orchestrator) handle(loopCtx context.Context, req request) {
	switch cmd := req.cmd.(type) {
	case LoadImage:
		o.startLoad(loopCtx, cmd, req.reply)
	case UpdateSetting:
		res, err := o.updateSetting(cmd)
		req.reply <- reply{result: res, err: err}
	case Export:
		o.startExport(req.ctx, cmd, req.reply)
	default:
		req.reply <- reply{err: fmt.Errorf("unknown command %T", cmd)}
	}
}

// startLoad issues the next sequence number and decodes off the loop.
// The decode is tied to the loop's context rather than the caller's so that
// a caller giving up does not leave the sequence half-finished.
func (o *Orchestrator) startLoad(loopCtx context.Context, cmd LoadImage, replyTo chan reply) {
	o.state.LatestLoad++
	seq := o.state.LatestLoad

	go func() {
		src, err := o.pipeline.Decode(loopCtx, cmd.Data)
		select {
		case o.decodes <- decoded{seq: seq, src: src, err: err, reply: replyTo}:
		case <-o.stopped:
		}
	}()
}

func (o *Orchestrator) finishLoad(d decoded) {
	if d.seq != o.state.LatestLoad {
		logging.DebugWithComponent(logging.ComponentIngest, "Discarding superseded load",
			"seq", d.seq, "latest", o.state.LatestLoad)
		d.reply <- reply{err: ErrSuperseded}
		return
	}
	if d.err != nil {
		logging.WarnWithComponent(logging.ComponentIngest, "Image load failed", "seq", d.seq, "error", d.err)
		d.reply <- reply{err: d.err}
		return
	}

	input, output := o.pipeline.Stage(d.src)
	o.state.stage(d.src, input, output)
	o.sink.Publish(EventImage, map[string]any{
		"width":  d.src.Width,
		"height": d.src.Height,
		"format": d.src.Format,
	})

	if err := o.commit("image loaded"); err != nil {
		d.reply <- reply{err: err}
		return
	}
	d.reply <- reply{result: &Result{
		Width:   d.src.Width,
		Height:  d.src.Height,
		Renders: o.state.Renders,
	}}
}

func (o *Orchestrator) updateSetting(cmd UpdateSetting) (*Result, error) {
	var (
		label string
		err   error
	)
	if cmd.Committed {
		label, err = o.state.Registry.UpdateValue(cmd.ID, cmd.Value)
	} else {
		label, err = o.state.Registry.Preview(cmd.ID, cmd.Value)
	}
	if err != nil {
		logging.DebugWithComponent(logging.ComponentSettings, "Rejected setting value",
			"id", cmd.ID, "value", cmd.Value, "error", err)
		return nil, err
	}
	if cmd.Committed {
		logging.DebugWithComponent(logging.ComponentSettings, "Setting committed", "id", cmd.ID, "value", cmd.Value)
	}

	o.sink.Publish(EventSetting, map[string]any{
		"id":        cmd.ID,
		"value":     cmd.Value,
		"text":      label,
		"committed": cmd.Committed,
	})

	if cmd.Committed {
		if err := o.commit("setting " + cmd.ID); err != nil {
			return nil, err
		}
	}
	return &Result{Label: label, Renders: o.state.Renders}, nil
}

// startExport snapshots the output on the loop and encodes it elsewhere
func (o *Orchestrator) startExport(ctx context.Context, cmd Export, replyTo chan reply) {
	if !o.state.Output.Rendered() {
		_, err := o.exporter.Export(ctx, o.state.Output, cmd.Filename)
		replyTo <- reply{err: err}
		return
	}

	snapshot := o.state.Output.Snapshot()
	renders := o.state.Renders
	go func() {
		blob, err := o.exporter.Encode(ctx, snapshot, cmd.Filename)
		if err != nil {
			replyTo <- reply{err: err}
			return
		}
		replyTo <- reply{result: &Result{
			Width:   blob.Width,
			Height:  blob.Height,
			Renders: renders,
			Blob:    blob,
		}}
	}()
}

// commit is the only caller of trigger. A missing image is not an error here.
func (o *Orchestrator) commit(reason string) error {
	err := o.trigger()
	if errors.Is(err, ErrNoImage) {
		logging.DebugWithComponent(logging.ComponentRenderer, "Render skipped, no image loaded", "reason", reason)
		return nil
	}
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentRenderer, "Render failed", "reason", reason, "error", err)
	}
	return err
}

func (o *Orchestrator) trigger() error {
	req, err := o.state.renderRequest()
	if err != nil {
		return err
	}

	err = o.renderer.Apply(req.Width, req.Height, req.Input, req.Output,
		req.Params.Get(settings.Size),
		req.Params.Get(settings.Count),
		req.Params.Get(settings.Contrast),
		req.Params.Get(settings.Random))
	if err != nil {
		return fmt.Errorf("renderer %s: %w", o.renderer.Name(), err)
	}

	req.Output.MarkRendered()
	o.state.Renders++

	logging.DebugWithComponent(logging.ComponentRenderer, "Rendered",
		"renderer", o.renderer.Name(),
		"width", req.Width,
		"height", req.Height,
		"params", req.Params,
		"renders", o.state.Renders)

	o.sink.Publish(EventRender, map[string]any{
		"renders": o.state.Renders,
		"width":   req.Width,
		"height":  req.Height,
	})
	return nil
}
