package models

import "time"

// Caveat is an insight distilled from a human grader's disagreement with an
// automated decision. Caveats are kept so future grading of similar rubric
// questions can be reviewed against them.
type Caveat struct {
	ID               string    `json:"id"`
	RubricQuestion   string    `json:"rubric_question"`
	CaveatText       string    `json:"caveat_text"`
	OriginalFeedback string    `json:"original_feedback"`
	RubricItemID     string    `json:"rubric_item_id"`
	OriginalDecision string    `json:"original_decision"`
	CreatedAt        time.Time `json:"created_at"`
}
