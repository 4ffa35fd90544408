// internal/editor/gesture/player.go
package gesture

import (
	"context"
	"fmt"

	"github.com/xkilldash9x/dropzone/internal/editor/component"
	"github.com/xkilldash9x/dropzone/internal/editor/geometry"
	"github.com/xkilldash9x/dropzone/internal/editor/session"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultSteps = 10

// Options tunes replay.
type Options struct {
	// EventsPerSecond paces dispatch; zero or less dispatches as fast as possible.
	EventsPerSecond float64
	// DefaultSteps is the number of overs synthesized for a drag without steps.
	DefaultSteps int
}

// Stats summarizes a replay.
type Stats struct {
	Dispatched int
	// Skipped counts overs whose point hit no component.
	Skipped int
}

// Player replays gesture scripts against a drag controller. Coordinates are
// taken from the script or derived from the geometry query.
type Player struct {
	doc     *component.Document
	ctrl    *session.Controller
	geom    geometry.Query
	limiter *rate.Limiter
	steps   int
	logger  *zap.Logger
}

func NewPlayer(doc *component.Document, ctrl *session.Controller, geom geometry.Query, opts Options, logger *zap.Logger) *Player {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Player{
		doc:    doc,
		ctrl:   ctrl,
		geom:   geom,
		steps:  opts.DefaultSteps,
		logger: logger.Named("gesture"),
	}
	if p.steps <= 0 {
		p.steps = defaultSteps
	}
	if opts.EventsPerSecond > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(opts.EventsPerSecond), 1)
	}
	return p
}

// Play dispatches every event of s in order. On error, including context
// cancellation, the drag in flight is abandoned.
func (p *Player) Play(ctx context.Context, s *Script) (Stats, error) {
	var stats Stats
	for i, e := range s.Events {
		if err := p.play(ctx, e, &stats); err != nil {
			p.ctrl.Cancel()
			return stats, fmt.Errorf("gesture event %d (%s): %w", i, e.Type, err)
		}
	}
	p.logger.Debug("Script replayed.", zap.Int("dispatched", stats.Dispatched), zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func (p *Player) play(ctx context.Context, e Event, stats *Stats) error {
	switch e.Type {
	case EventStart:
		c, err := p.doc.Resolve(e.Target)
		if err != nil {
			return err
		}
		return p.start(ctx, c, stats)

	case EventOver:
		var c *component.Component
		pt, hasPoint := e.Point()
		if e.Target != "" {
			var err error
			if c, err = p.doc.Resolve(e.Target); err != nil {
				return err
			}
			if !hasPoint {
				pt = p.center(c)
			}
		}
		return p.over(ctx, c, pt, stats)

	case EventEnd:
		var c *component.Component
		if e.Target != "" {
			var err error
			if c, err = p.doc.Resolve(e.Target); err != nil {
				return err
			}
		}
		return p.end(ctx, c, stats)

	case EventDrag:
		return p.drag(ctx, e, stats)

	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidScript, e.Type)
	}
}

// drag synthesizes a pointer trajectory between the centers of two components.
func (p *Player) drag(ctx context.Context, e Event, stats *Stats) error {
	from, err := p.doc.Resolve(e.From)
	if err != nil {
		return err
	}
	to, err := p.doc.Resolve(e.To)
	if err != nil {
		return err
	}
	steps := e.Steps
	if steps <= 0 {
		steps = p.steps
	}

	path := Trajectory(p.center(from), p.center(to), steps, e.Bend)
	if err := p.start(ctx, from, stats); err != nil {
		return err
	}
	for _, pt := range path {
		if err := p.over(ctx, nil, pt, stats); err != nil {
			return err
		}
	}
	return p.end(ctx, from, stats)
}

func (p *Player) start(ctx context.Context, c *component.Component, stats *Stats) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	p.logger.Debug("start", zap.String("component", c.ID()))
	p.ctrl.OnDragStart(c)
	stats.Dispatched++
	return nil
}

// over dispatches a drag over at pt. A nil c hit-tests pt for the component.
func (p *Player) over(ctx context.Context, c *component.Component, pt Vector2D, stats *Stats) error {
	if c == nil {
		if c = p.componentAt(pt); c == nil {
			p.logger.Debug("No component under the pointer.", zap.Float64("x", pt.X), zap.Float64("y", pt.Y))
			stats.Skipped++
			return nil
		}
	}
	if err := p.wait(ctx); err != nil {
		return err
	}
	p.logger.Debug("over", zap.String("component", c.ID()), zap.Float64("x", pt.X), zap.Float64("y", pt.Y))
	p.ctrl.OnDragOver(c, pt.X, pt.Y)
	stats.Dispatched++
	return nil
}

func (p *Player) end(ctx context.Context, c *component.Component, stats *Stats) error {
	if err := p.wait(ctx); err != nil {
		return err
	}
	p.logger.Debug("end")
	p.ctrl.OnDragEnd(c)
	stats.Dispatched++
	return nil
}

func (p *Player) wait(ctx context.Context) error {
	if p.limiter != nil {
		return p.limiter.Wait(ctx)
	}
	return ctx.Err()
}

// center returns the middle of the component's box, or the origin when it
// has none.
func (p *Player) center(c *component.Component) Vector2D {
	if p.geom == nil {
		return Vector2D{}
	}
	r, ok := p.geom.Box(c.Element())
	if !ok {
		return Vector2D{}
	}
	return Vector2D{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// componentAt returns the innermost component whose element contains pt.
func (p *Player) componentAt(pt Vector2D) *component.Component {
	if p.geom == nil {
		return nil
	}
	el := geometry.HitTest(p.geom, p.doc.Root(), pt.X, pt.Y)
	for ; el != nil; el = el.Parent {
		if c := p.doc.ComponentFor(el); c != nil {
			return c
		}
	}
	return nil
}
