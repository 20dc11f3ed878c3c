package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// Outcomes of an AI call as recorded in usage metrics.
const (
	OutcomeOK            = "ok"
	OutcomeUpstreamError = "upstream_error"
	OutcomeError         = "error"
)

// AgentMeta holds operational metadata for one AI call made on behalf of an
// operation such as recipe generation or pantry scanning.
type AgentMeta struct {
	AgentName string
	Operation string
	Outcome   string
	Usage     TokenUsage
	Latency   time.Duration
}

// Failed reports whether the call did not produce a usable answer.
func (m AgentMeta) Failed() bool {
	return m.Outcome != "" && m.Outcome != OutcomeOK
}
