// internal/humanoid/executor.go
package humanoid

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hackparv/operator-cli/api/schemas"
	"github.com/hackparv/operator-cli/internal/config"
	"github.com/hackparv/operator-cli/internal/safety"
)

// Outcome classifies the result of one executed action.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeBlocked Outcome = "blocked" // denied by the safety filter
	OutcomeFailed  Outcome = "failed"  // platform error; the loop continues
)

// Result is the typed outcome of a single action execution. Failures carry
// the underlying reason instead of being swallowed; the caller decides how to
// log them.
type Result struct {
	Kind           schemas.ActionKind
	Outcome        Outcome
	BlockedPattern string // set when Outcome == OutcomeBlocked
	Err            error  // set when Outcome == OutcomeFailed
}

// ok/failed/blocked are shorthand constructors.
func ok(kind schemas.ActionKind) Result { return Result{Kind: kind, Outcome: OutcomeOK} }

func failed(kind schemas.ActionKind, err error) Result {
	return Result{Kind: kind, Outcome: OutcomeFailed, Err: err}
}

func blocked(kind schemas.ActionKind, pattern string) Result {
	return Result{Kind: kind, Outcome: OutcomeBlocked, BlockedPattern: pattern}
}

// Executor translates validated actions into concrete pointer and keyboard
// events. All three operations are fire-and-forget: none verifies the
// on-screen effect, that is the next screenshot's job.
type Executor struct {
	driver  Driver
	filter  *safety.Filter
	logger  *zap.Logger
	limiter *rate.Limiter
	cfg     config.ExecutorConfig
}

// NewExecutor wires the executor with its platform driver and safety filter.
func NewExecutor(driver Driver, filter *safety.Filter, cfg config.ExecutorConfig, logger *zap.Logger) *Executor {
	return &Executor{
		driver:  driver,
		filter:  filter,
		logger:  logger.Named("humanoid"),
		limiter: rate.NewLimiter(rate.Limit(cfg.TypingRate), 1),
		cfg:     cfg,
	}
}

// Click converts fractional screen coordinates to pixels, approaches the
// target over a short fixed duration, traces a visible circle around it as
// acknowledgment, then issues the click. Fractions outside [0,1] are clamped
// to the screen edge.
func (e *Executor) Click(ctx context.Context, xFrac, yFrac float64) Result {
	xFrac = clamp01(xFrac)
	yFrac = clamp01(yFrac)

	w, h, err := e.driver.ScreenSize()
	if err != nil {
		return failed(schemas.ActionClick, fmt.Errorf("screen size unavailable: %w", err))
	}

	x := int(math.Round(float64(w) * xFrac))
	y := int(math.Round(float64(h) * yFrac))

	if err := e.driver.MoveTo(x, y, e.cfg.MouseMoveDuration); err != nil {
		return failed(schemas.ActionClick, fmt.Errorf("pointer move failed: %w", err))
	}

	if err := e.orbit(ctx, x, y); err != nil {
		return failed(schemas.ActionClick, err)
	}

	if err := e.driver.Click(x, y); err != nil {
		return failed(schemas.ActionClick, fmt.Errorf("click failed: %w", err))
	}

	e.logger.Debug("Clicked",
		zap.Float64("x_fraction", xFrac),
		zap.Float64("y_fraction", yFrac),
		zap.Int("x_pixel", x),
		zap.Int("y_pixel", y),
	)
	return ok(schemas.ActionClick)
}

// orbit traces one full circle of the configured radius around the target
// point over the configured duration. Cancellation is honored between steps;
// an in-flight step completes.
func (e *Executor) orbit(ctx context.Context, cx, cy int) error {
	if e.cfg.OrbitDuration <= 0 || e.cfg.OrbitRadius <= 0 {
		return nil
	}

	start := time.Now()
	stepHold := e.cfg.OrbitDuration / 10
	for {
		elapsed := time.Since(start)
		if elapsed >= e.cfg.OrbitDuration {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		angle := (float64(elapsed) / float64(e.cfg.OrbitDuration)) * 2 * math.Pi
		px := cx + int(math.Round(math.Cos(angle)*e.cfg.OrbitRadius))
		py := cy + int(math.Round(math.Sin(angle)*e.cfg.OrbitRadius))
		if err := e.driver.MoveTo(px, py, stepHold); err != nil {
			return fmt.Errorf("orbit move failed: %w", err)
		}
	}
}

// Write types content into the focused input one character at a time, after
// the safety filter clears it. Escaped newline sequences are normalized to
// real newlines first. On denial nothing is emitted.
func (e *Executor) Write(ctx context.Context, content string) Result {
	permitted, pattern := e.filter.Permits(schemas.ActionWrite, content)
	if !permitted {
		return blocked(schemas.ActionWrite, pattern)
	}

	content = strings.ReplaceAll(content, `\n`, "\n")
	for _, r := range content {
		if err := e.limiter.Wait(ctx); err != nil {
			return failed(schemas.ActionWrite, err)
		}
		if err := e.driver.TypeChar(r); err != nil {
			return failed(schemas.ActionWrite, fmt.Errorf("typing %q failed: %w", r, err))
		}
	}
	e.logger.Debug("Typed content", zap.Int("characters", len([]rune(content))))
	return ok(schemas.ActionWrite)
}

// Press holds a chorded shortcut: every key down in the given order, a short
// fixed hold, then every key up in the same order. A key the platform does
// not recognize fails soft: already-pressed keys are still released.
func (e *Executor) Press(ctx context.Context, keys []string) Result {
	if len(keys) == 0 {
		return failed(schemas.ActionPress, fmt.Errorf("press requires at least one key"))
	}

	var firstErr error
	pressed := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := e.driver.KeyToggle(key, true); err != nil {
			firstErr = fmt.Errorf("key down %q failed: %w", key, err)
			break
		}
		pressed = append(pressed, key)
	}

	if len(pressed) > 0 {
		select {
		case <-time.After(e.cfg.KeyHold):
		case <-ctx.Done():
			// Finish releasing below; the chord completes before cancellation
			// is honored.
		}
	}

	for _, key := range pressed {
		if err := e.driver.KeyToggle(key, false); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("key up %q failed: %w", key, err)
		}
	}

	if firstErr != nil {
		return failed(schemas.ActionPress, firstErr)
	}
	e.logger.Debug("Pressed chord", zap.Strings("keys", keys))
	return ok(schemas.ActionPress)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
