// internal/agent/parser.go
package agent

import (
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/hackparv/operator-cli/api/schemas"
	"github.com/hackparv/operator-cli/internal/llmutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// parseFailureSummary is the synthetic done summary for unparseable output.
const parseFailureSummary = "Failed to parse model response"

// ParseActions normalizes a raw model response into an ordered action list.
// Markdown fencing and single-object responses are transparent: both forms
// yield the same logical sequence. Elements with an unrecognized operation
// are dropped individually with a warning; the rest of the batch survives.
// Input that cannot be parsed at all degrades to a single synthetic done
// action so the loop terminates instead of spinning on garbage.
func ParseActions(logger *zap.Logger, raw string) []schemas.Action {
	extracted := llmutil.ExtractJSON(raw)

	var actions []schemas.Action
	if err := json.UnmarshalFromString(extracted, &actions); err != nil {
		// A single object rather than an array is tolerated and wrapped.
		var single schemas.Action
		if objErr := json.UnmarshalFromString(extracted, &single); objErr != nil {
			logger.Warn("Model response is not valid JSON, synthesizing terminal action",
				zap.Error(err),
				zap.String("response", truncate(raw, 400)),
			)
			return []schemas.Action{{
				Operation: schemas.ActionDone,
				Summary:   parseFailureSummary,
				Thought:   "The model response was not valid JSON.",
			}}
		}
		actions = []schemas.Action{single}
	}

	kept := actions[:0]
	for _, a := range actions {
		if !a.Operation.Known() {
			logger.Warn("Skipping action with unrecognized operation",
				zap.String("operation", string(a.Operation)),
				zap.String("thought", a.Thought),
			)
			continue
		}
		if err := a.Validate(); err != nil {
			logger.Warn("Skipping malformed action", zap.Error(err), zap.String("operation", string(a.Operation)))
			continue
		}
		kept = append(kept, a)
	}
	return kept
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
