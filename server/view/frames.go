package view

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/hrygo/notegraph/plugin/render"
	"github.com/hrygo/notegraph/server/internal/observability"
)

// PresentFunc shows a drawn frame, e.g. by flushing it to a terminal or file.
type PresentFunc func(c render.Canvas) error

// RunFrames draws the latest snapshot onto c at most fps times per second
// until ctx is done. It never waits on the layout loop. The renderer follows
// the canvas size on every frame. Frames are skipped while the view has no
// renderer.
func (v *View) RunFrames(ctx context.Context, c render.Canvas, fps int, present PresentFunc) error {
	if fps <= 0 {
		fps = 30
	}
	limiter := rate.NewLimiter(rate.Limit(fps), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return nil
		}
		r := v.Renderer()
		if r == nil {
			continue
		}
		r.Resize(c.Size())
		r.Draw(c)
		observability.GlobalMetrics().RecordFrame(v.opts.Surface)
		if present != nil {
			if err := present(c); err != nil {
				return err
			}
		}
	}
}
