package dto

// FeedbackRequest reports a human grader's disagreement with an automated
// decision on one rubric item.
type FeedbackRequest struct {
	RubricItemID      string `json:"rubric_item_id" validate:"required"`
	RubricQuestion    string `json:"rubric_question" validate:"required"`
	StudentAssignment string `json:"student_assignment" validate:"required"`
	OriginalDecision  string `json:"original_decision" validate:"required"`
	UserFeedback      string `json:"user_feedback" validate:"required"`
}

// FeedbackResponse reports the caveat distilled from submitted feedback.
type FeedbackResponse struct {
	CaveatID   string `json:"caveat_id"`
	CaveatText string `json:"caveat_text"`
}
