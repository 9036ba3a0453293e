// Package frameloop drives one tick per presented frame.
package frameloop

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/multiscene/internal/logger"
)

// ErrStop ends the loop without reporting an error.
var ErrStop = errors.New("frameloop: stop")

// Loop runs Tick then Sync until the context is cancelled or Tick fails.
//
// Sync normally presents the frame and blocks until the next vertical
// blank, which makes the loop refresh-driven. Cancellation is checked only
// between frames, so a running tick always completes.
type Loop struct {
	Tick func(dt time.Duration) error
	Sync func()

	// Now defaults to time.Now.
	Now func() time.Time

	frames int
}

// Frames returns the number of completed ticks.
func (l *Loop) Frames() int {
	return l.frames
}

// Run blocks until ctx is done or Tick returns an error. ErrStop is
// reported as a clean exit.
func (l *Loop) Run(ctx context.Context) error {
	now := l.Now
	if now == nil {
		now = time.Now
	}
	log := logger.Named("frameloop")

	last := now()
	fpsStart := last
	fpsFrames := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		t := now()
		dt := t.Sub(last)
		last = t

		if err := l.Tick(dt); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
		if l.Sync != nil {
			l.Sync()
		}
		l.frames++

		fpsFrames++
		if elapsed := t.Sub(fpsStart); elapsed >= time.Second {
			log.Debug("fps",
				zap.Float64("fps", float64(fpsFrames)/elapsed.Seconds()),
				zap.Duration("dt", dt),
			)
			fpsStart = t
			fpsFrames = 0
		}
	}
}
