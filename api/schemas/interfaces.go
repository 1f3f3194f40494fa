// api/schemas/interfaces.go
package schemas

import (
	"context"
	"fmt"
)

// VisionRequest encapsulates one logical call to the model backend: the fixed
// system instruction, the running conversation, and the fresh objective +
// screenshot pair for this iteration.
type VisionRequest struct {
	SystemPrompt string        // Fixed instruction set describing the action vocabulary.
	Objective    string        // The natural-language goal for this run.
	ImageB64     string        // Base64 JPEG of the current screen.
	History      []ChatMessage // Prior turns; any system turns are deduplicated by the client.

	Temperature float64
	MaxTokens   int
}

// VisionClient is the contract for a vision-capable chat completion backend.
// Generate blocks until a response is available or retries are exhausted, in
// which case the returned error wraps a *ModelCallError.
type VisionClient interface {
	Generate(ctx context.Context, req VisionRequest) (string, error)
}

// ModelCallError is the fatal outcome of a model invocation after all retry
// attempts failed. The orchestration loop treats it as grounds to abort the run.
type ModelCallError struct {
	Attempts int   // Total attempts made before giving up.
	Err      error // The last underlying failure.
}

func (e *ModelCallError) Error() string {
	return fmt.Sprintf("model call failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ModelCallError) Unwrap() error { return e.Err }
