package models

// Event names used on the progress stream wire.
const (
	EventPartialResult = "partial_result"
	EventJobComplete   = "job_complete"
	EventError         = "error"
)

// ProgressEvent is one entry on a job's progress stream. The union is closed:
// a stream carries zero or more PartialResult events followed by exactly one
// terminal JobComplete or JobError.
type ProgressEvent interface {
	// EventName is the wire-level event name.
	EventName() string
	// Terminal reports whether the event ends the stream.
	Terminal() bool
}

// PartialResult carries the resolved decision for a single rubric item.
type PartialResult struct {
	RubricItemID string          `json:"rubric_item_id"`
	Decision     GradingDecision `json:"decision"`
	Progress     float64         `json:"progress"`
}

// EventName implements ProgressEvent.
func (PartialResult) EventName() string { return EventPartialResult }

// Terminal implements ProgressEvent.
func (PartialResult) Terminal() bool { return false }

// JobComplete signals that every rubric item has been graded.
type JobComplete struct {
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
}

// EventName implements ProgressEvent.
func (JobComplete) EventName() string { return EventJobComplete }

// Terminal implements ProgressEvent.
func (JobComplete) Terminal() bool { return true }

// JobError aborts the stream after an orchestration failure.
type JobError struct {
	Error string `json:"error"`
}

// EventName implements ProgressEvent.
func (JobError) EventName() string { return EventError }

// Terminal implements ProgressEvent.
func (JobError) Terminal() bool { return true }
