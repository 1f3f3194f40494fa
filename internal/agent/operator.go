// internal/agent/operator.go

// Package agent ties the screenshot encoder, model client, response parser,
// and input executor into the loop that pursues a natural-language objective:
// capture, ask, parse, execute, repeat until the model declares done or an
// abort condition fires.
package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hackparv/operator-cli/api/schemas"
	"github.com/hackparv/operator-cli/internal/config"
	"github.com/hackparv/operator-cli/internal/humanoid"
	"github.com/hackparv/operator-cli/internal/screen"
)

// State is the operator's phase in its run.
type State string

const (
	StateRunning       State = "RUNNING"        // Between iterations, about to capture.
	StateAwaitingModel State = "AWAITING_MODEL" // A model call is in flight.
	StateExecuting     State = "EXECUTING"      // Executing the parsed action batch.
	StateDone          State = "DONE"           // Terminal: the model declared completion.
	StateAborted       State = "ABORTED"        // Terminal: unrecoverable failure.
)

// ImageEncoder produces the inline representation of a captured screenshot.
type ImageEncoder interface {
	Encode(path string) (string, error)
}

// InputExecutor performs validated actions against the OS.
type InputExecutor interface {
	Click(ctx context.Context, xFrac, yFrac float64) humanoid.Result
	Write(ctx context.Context, content string) humanoid.Result
	Press(ctx context.Context, keys []string) humanoid.Result
}

// RunResult is the terminal outcome of a completed run.
type RunResult struct {
	Summary    string
	Iterations int
}

// Operator owns one run: the conversation state, the loop state machine, and
// the wiring between components. It is strictly sequential; at most one model
// call, capture, or input execution is in flight at any time.
type Operator struct {
	logger   *zap.Logger
	cfg      config.AgentConfig
	client   schemas.VisionClient
	capturer screen.Capturer
	encoder  ImageEncoder
	executor InputExecutor
	narrator *Narrator

	conv  *Conversation
	state State
	runID string

	callTemperature float64
	callMaxTokens   int
	callTimeout     timeoutFn
}

// NewOperator wires an operator for a single run.
func NewOperator(
	logger *zap.Logger,
	cfg config.AgentConfig,
	modelCfg config.ModelConfig,
	client schemas.VisionClient,
	capturer screen.Capturer,
	encoder ImageEncoder,
	executor InputExecutor,
	narrator *Narrator,
) *Operator {
	runID := uuid.NewString()
	if narrator == nil {
		narrator = NewNarrator(nil)
	}
	return &Operator{
		logger:          logger.Named("operator").With(zap.String("run_id", runID)),
		cfg:             cfg,
		client:          client,
		capturer:        capturer,
		encoder:         encoder,
		executor:        executor,
		narrator:        narrator,
		conv:            NewConversation(),
		state:           StateRunning,
		runID:           runID,
		callTemperature: modelCfg.Temperature,
		callMaxTokens:   modelCfg.MaxTokens,
		callTimeout:     timeoutAfter(modelCfg.RequestTimeout),
	}
}

// timeoutFn wraps a context with the per-call wall clock limit. Indirected so
// loop tests can run without real timers.
type timeoutFn func(ctx context.Context) (context.Context, context.CancelFunc)

func timeoutAfter(d time.Duration) timeoutFn {
	return func(ctx context.Context) (context.Context, context.CancelFunc) {
		if d <= 0 {
			return context.WithCancel(ctx)
		}
		return context.WithTimeout(ctx, d)
	}
}

// State returns the operator's current phase.
func (o *Operator) State() State { return o.state }

// Conversation exposes the run's turn log for inspection.
func (o *Operator) Conversation() *Conversation { return o.conv }

func (o *Operator) setState(s State) {
	if o.state == s {
		return
	}
	o.logger.Debug("State transition", zap.String("from", string(o.state)), zap.String("to", string(s)))
	o.state = s
}

// Run drives the loop for the given objective until the model declares
// completion, an unrecoverable error occurs, the iteration cap is reached, or
// the context is cancelled. Cancellation is honored at iteration boundaries;
// a mid-batch action may complete first.
func (o *Operator) Run(ctx context.Context, objective string) (*RunResult, error) {
	o.narrator.Objective(objective)
	o.logger.Info("Run started", zap.String("objective", objective))
	o.conv.SeedSystem(systemPrompt)

	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return o.abort(fmt.Errorf("run cancelled: %w", err))
		}
		if o.cfg.MaxIterations > 0 && iteration > o.cfg.MaxIterations {
			return o.abort(fmt.Errorf("iteration cap reached (%d) without the model declaring completion", o.cfg.MaxIterations))
		}

		done, summary, err := o.iterate(ctx, objective, iteration)
		if err != nil {
			return o.abort(err)
		}
		if done {
			o.setState(StateDone)
			o.narrator.Done(summary)
			o.logger.Info("Run complete", zap.String("summary", summary), zap.Int("iterations", iteration))
			return &RunResult{Summary: summary, Iterations: iteration}, nil
		}
	}
}

// iterate performs one capture -> invoke -> parse -> execute cycle. It
// returns done=true with the model's summary when a done action was
// processed; a non-nil error is unrecoverable and aborts the run.
func (o *Operator) iterate(ctx context.Context, objective string, iteration int) (bool, string, error) {
	o.setState(StateRunning)

	path, err := o.capturer.Capture()
	if err != nil {
		return false, "", fmt.Errorf("screenshot capture failed: %w", err)
	}
	imageB64, err := o.encoder.Encode(path)
	if err != nil {
		return false, "", fmt.Errorf("screenshot encoding failed: %w", err)
	}

	o.setState(StateAwaitingModel)
	callCtx, cancel := o.callTimeout(ctx)
	raw, err := o.client.Generate(callCtx, schemas.VisionRequest{
		SystemPrompt: systemPrompt,
		Objective:    objective,
		ImageB64:     imageB64,
		History:      o.conv.History(),
		Temperature:  o.callTemperature,
		MaxTokens:    o.callMaxTokens,
	})
	cancel()
	if err != nil {
		return false, "", fmt.Errorf("model invocation failed: %w", err)
	}

	// History must reflect what was actually sent and received, even when the
	// response turns out to be garbage.
	actions := ParseActions(o.logger, raw)
	o.conv.AppendUser(objective, imageB64)
	o.conv.AppendAssistant(raw)

	o.setState(StateExecuting)
	o.logger.Info("Executing action batch", zap.Int("iteration", iteration), zap.Int("actions", len(actions)))

	for _, action := range actions {
		o.narrator.Thought(string(action.Operation), action.Thought)

		if action.Operation == schemas.ActionDone {
			// A done action terminates the loop wherever it appears in the
			// batch; anything after it is never executed.
			return true, action.Summary, nil
		}

		res := o.execute(ctx, action)
		switch res.Outcome {
		case humanoid.OutcomeBlocked:
			o.narrator.Blocked(res.BlockedPattern)
			o.logger.Warn("Action blocked by safety filter",
				zap.String("operation", string(action.Operation)),
				zap.String("pattern", res.BlockedPattern),
			)
		case humanoid.OutcomeFailed:
			// Execution is best-effort: later actions do not depend on this
			// one succeeding, and the run continues.
			o.narrator.ActionFailed(string(action.Operation), res.Err)
			o.logger.Error("Action execution failed",
				zap.String("operation", string(action.Operation)),
				zap.Error(res.Err),
			)
		}
	}

	return false, "", nil
}

// execute dispatches a single non-done action to the input executor.
func (o *Operator) execute(ctx context.Context, action schemas.Action) humanoid.Result {
	switch action.Operation {
	case schemas.ActionClick:
		return o.executor.Click(ctx, float64(action.X), float64(action.Y))
	case schemas.ActionWrite:
		return o.executor.Write(ctx, action.Content)
	case schemas.ActionPress:
		return o.executor.Press(ctx, action.Keys)
	default:
		// The parser only emits known kinds; this is unreachable in practice.
		return humanoid.Result{Kind: action.Operation, Outcome: humanoid.OutcomeFailed,
			Err: fmt.Errorf("unsupported operation %q", action.Operation)}
	}
}

func (o *Operator) abort(err error) (*RunResult, error) {
	o.setState(StateAborted)
	o.narrator.Aborted(err)
	o.logger.Error("Run aborted", zap.Error(err))
	return nil, err
}
