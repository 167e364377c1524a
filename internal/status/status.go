// Package status reduces the outcomes of all steps in a deployment run into
// a single verdict reported to the deployments API.
package status

import "strings"

// Outcome is one step's reported result. CI reports "success", "failure",
// "cancelled" or "skipped"; anything else is kept verbatim and treated as
// non-success.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailure   Outcome = "failure"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeSkipped   Outcome = "skipped"
)

// ParseOutcome normalizes a raw outcome token. Unknown tokens are preserved
// so the verdict can still account for them (as non-success).
func ParseOutcome(raw string) Outcome {
	return Outcome(strings.ToLower(strings.TrimSpace(raw)))
}

// Verdict is the aggregated result of a deployment run.
type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictFailure Verdict = "failure"
)

// Aggregate folds step outcomes into one verdict: success iff every outcome
// is "success". The empty sequence aggregates to success, and the result is
// independent of outcome order. Cancelled, skipped, missing and unknown
// outcomes all count as non-success.
func Aggregate(outcomes []Outcome) Verdict {
	for _, o := range outcomes {
		if o != OutcomeSuccess {
			return VerdictFailure
		}
	}
	return VerdictSuccess
}

// AggregateRaw parses and aggregates raw outcome tokens in one step.
func AggregateRaw(raw []string) Verdict {
	outcomes := make([]Outcome, len(raw))
	for i, r := range raw {
		outcomes[i] = ParseOutcome(r)
	}
	return Aggregate(outcomes)
}
