package publish

import (
	"encoding/json"
	"fmt"
)

// Entity kinds used in results, logs and metrics.
const (
	EntityPlacement = "placement"
	EntityCampaign  = "campaign"
	EntityCreative  = "creative"
	EntityAd        = "ad"
)

// Outcome classifies a finished batch.
type Outcome string

const (
	Nothing      Outcome = "nothing"
	AllSucceeded Outcome = "all_succeeded"
	Partial      Outcome = "partial"
	AllFailed    Outcome = "all_failed"
)

// ItemResult is the outcome of one publish call.
type ItemResult struct {
	ID string `json:"id"`
	// NewID is the server id a created entity was remapped to.
	NewID   string `json:"newId,omitempty"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Result aggregates one batch. Items keep the order of the input ids; ids
// without a draft are not attempted and appear in Skipped.
type Result struct {
	Entity       string       `json:"entity"`
	SuccessCount int          `json:"successCount"`
	FailedCount  int          `json:"failedCount"`
	Items        []ItemResult `json:"items"`
	Skipped      []string     `json:"skipped,omitempty"`
}

// Outcome tells an all-success batch apart from a partial or total failure.
func (r Result) Outcome() Outcome {
	switch {
	case r.SuccessCount == 0 && r.FailedCount == 0:
		return Nothing
	case r.FailedCount == 0:
		return AllSucceeded
	case r.SuccessCount == 0:
		return AllFailed
	default:
		return Partial
	}
}

// Created returns the ids that were remapped by a create.
func (r Result) Created() map[string]string {
	out := map[string]string{}
	for _, it := range r.Items {
		if it.Success && it.NewID != "" && it.NewID != it.ID {
			out[it.ID] = it.NewID
		}
	}
	return out
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

// Toast returns the notification text for the batch.
func (r Result) Toast() string {
	total := r.SuccessCount + r.FailedCount
	switch r.Outcome() {
	case Nothing:
		return fmt.Sprintf("No pending %s changes to publish.", r.Entity)
	case AllSucceeded:
		return fmt.Sprintf("Published %s.", plural(r.SuccessCount, r.Entity))
	case AllFailed:
		msg := fmt.Sprintf("Failed to publish %s.", plural(total, r.Entity))
		if first := r.firstError(); first != "" {
			msg += " " + first
		}
		return msg
	default:
		return fmt.Sprintf("Published %d of %s; %d failed.", r.SuccessCount, plural(total, r.Entity), r.FailedCount)
	}
}

func (r Result) firstError() string {
	for _, it := range r.Items {
		if !it.Success && it.Error != "" {
			return it.Error
		}
	}
	return ""
}

// MarshalJSON adds the derived outcome and toast to the wire form.
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		Outcome Outcome `json:"outcome"`
		Message string  `json:"message"`
	}{plain(r), r.Outcome(), r.Toast()})
}
