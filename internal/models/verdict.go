package models

// BinaryDecision is the outcome of a binary rubric item.
type BinaryDecision string

const (
	// DecisionAward grants the item's points.
	DecisionAward BinaryDecision = "award"
	// DecisionDeny withholds the item's points.
	DecisionDeny BinaryDecision = "deny"
)

// Evidence points at the code region a verdict is based on.
type Evidence struct {
	File  string `json:"file"`
	Lines string `json:"lines"`
}

// Verdict is one independent judgment produced by a single evaluation call.
// It is a closed union: only BinaryVerdict and ChoiceVerdict implement it, and
// consumers switch exhaustively on the concrete type.
type Verdict interface {
	// Kind reports which rubric kind the verdict answers.
	Kind() RubricKind
	// Confidence is the self-reported certainty in percent, 0 to 100.
	Confidence() int
}

// BinaryVerdict is a single award/deny judgment.
type BinaryVerdict struct {
	Decision      BinaryDecision `json:"decision"`
	Evidence      Evidence       `json:"evidence"`
	Comment       string         `json:"comment"`
	ConfidencePct int            `json:"confidence"`
}

// Kind implements Verdict.
func (BinaryVerdict) Kind() RubricKind { return RubricKindBinary }

// Confidence implements Verdict.
func (v BinaryVerdict) Confidence() int { return v.ConfidencePct }

// ChoiceVerdict is a single selection among an item's declared options.
type ChoiceVerdict struct {
	SelectedOption string   `json:"selected_option"`
	Evidence       Evidence `json:"evidence"`
	Comment        string   `json:"comment"`
	ConfidencePct  int      `json:"confidence"`
}

// Kind implements Verdict.
func (ChoiceVerdict) Kind() RubricKind { return RubricKindChoice }

// Confidence implements Verdict.
func (v ChoiceVerdict) Confidence() int { return v.ConfidencePct }

// GradingDecision is the resolved outcome for one rubric item after
// consensus. Confidence is normalized to [0,1]. Reasoning is internal and
// never shown to the grading target.
type GradingDecision struct {
	RubricItemID string     `json:"rubric_item_id"`
	Kind         RubricKind `json:"kind"`
	Verdict      Verdict    `json:"verdict"`
	Confidence   float64    `json:"confidence"`
	Reasoning    string     `json:"reasoning,omitempty"`
}
