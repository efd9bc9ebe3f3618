package samples

import (
	"errors"
	"fmt"
)

// SubmitStatus is the outcome recorded when a sample plan is submitted.
type SubmitStatus string

const (
	StatusApprove      SubmitStatus = "approve"
	StatusRejectRemake SubmitStatus = "reject_remake"
	StatusProceed      SubmitStatus = "proceed"
	StatusRejectDrop   SubmitStatus = "reject_drop"
	StatusDrop         SubmitStatus = "drop"
)

var statusLabels = []struct {
	status SubmitStatus
	label  string
}{
	{StatusApprove, "Approve"},
	{StatusRejectRemake, "Reject & Request for Remake"},
	{StatusProceed, "Proceed Next Stage With Comments"},
	{StatusRejectDrop, "Reject & Drop"},
	{StatusDrop, "Drop"},
}

var (
	ErrStatusRequired = errors.New("submit status is required")
	ErrUnknownStatus  = errors.New("unknown submit status")
)

// StatusOption is a selectable status.
type StatusOption struct {
	Value SubmitStatus `json:"value"`
	Label string       `json:"label"`
}

// Statuses lists the submit statuses in display order.
func Statuses() []StatusOption {
	out := make([]StatusOption, len(statusLabels))
	for i, s := range statusLabels {
		out[i] = StatusOption{Value: s.status, Label: s.label}
	}
	return out
}

// Label returns the display label, or "Unknown".
func (s SubmitStatus) Label() string {
	for _, l := range statusLabels {
		if l.status == s {
			return l.label
		}
	}
	return "Unknown"
}

// Valid reports whether s is a known status.
func (s SubmitStatus) Valid() bool {
	return s.Label() != "Unknown"
}

// NextRound returns the round to store for a submission. A remake request opens the
// next round; every other status keeps the current one. Rounds start at 1.
func NextRound(current int, status SubmitStatus) (int, error) {
	if status == "" {
		return 0, ErrStatusRequired
	}
	if !status.Valid() {
		return 0, fmt.Errorf("%w: %s", ErrUnknownStatus, status)
	}
	if current < 1 {
		current = 1
	}
	if status == StatusRejectRemake {
		return current + 1, nil
	}
	return current, nil
}
