package processfromroot

import (
	"time"

	"github.com/google/uuid"

	"github.com/snowfork/root-relayer/chain"
)

// Outcome is the result of processing one message.
type Outcome struct {
	MessageID string
	Ack       chain.RelayAcknowledgment
	Err       error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

// BatchResult holds one outcome per pending message, in the order the store
// returned them.
type BatchResult struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []Outcome
}

func (r *BatchResult) Acknowledged() []Outcome {
	var outcomes []Outcome
	for _, o := range r.Outcomes {
		if o.OK() {
			outcomes = append(outcomes, o)
		}
	}
	return outcomes
}

func (r *BatchResult) Failed() []Outcome {
	var outcomes []Outcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			outcomes = append(outcomes, o)
		}
	}
	return outcomes
}

type Summary struct {
	RunID        string         `json:"runId"`
	StartedAt    time.Time      `json:"startedAt"`
	FinishedAt   time.Time      `json:"finishedAt"`
	Total        int            `json:"total"`
	Acknowledged int            `json:"acknowledged"`
	Failed       int            `json:"failed"`
	Failures     map[string]int `json:"failures"`
}

func (r *BatchResult) Summary() Summary {
	summary := Summary{
		RunID:      r.RunID.String(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Total:      len(r.Outcomes),
		Failures:   make(map[string]int),
	}
	for _, o := range r.Outcomes {
		if o.OK() {
			summary.Acknowledged++
			continue
		}
		summary.Failed++
		summary.Failures[KindOf(o.Err).Label()]++
	}
	return summary
}
