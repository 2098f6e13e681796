package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/supergrader/grader-api/internal/dto"
	"github.com/supergrader/grader-api/internal/models"
)

func writeSourceFiles(builder *strings.Builder, files map[string]string) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		builder.WriteString(name)
		builder.WriteString("\n```\n")
		builder.WriteString(files[name])
		builder.WriteString("\n```\n\n")
	}
}

// buildBinaryPrompt asks for a single award/deny judgment on one rubric item.
func buildBinaryPrompt(item models.RubricItem, files map[string]string) string {
	builder := strings.Builder{}
	builder.WriteString("Evaluate the student submission against a single rubric item. Think step by step silently; output only the final JSON.\n\n")
	fmt.Fprintf(&builder, "Rubric item (BINARY, %.1f pts):\n%s\n\n", item.Points, item.Description)
	builder.WriteString("Student submission:\n")
	writeSourceFiles(&builder, files)
	builder.WriteString("Tasks for this single rubric item:\n")
	builder.WriteString("1. Decide \"award\" or \"deny\".\n")
	builder.WriteString("2. Cite the most relevant evidence for the decision (file and line range).\n")
	builder.WriteString("3. Draft a short feedback comment explaining the decision.\n")
	builder.WriteString("4. Estimate a confidence percentage (0-100).\n\n")
	builder.WriteString("Output format (JSON only, no extra text):\n")
	builder.WriteString("```json\n{\"decision\": \"award\" | \"deny\", \"evidence\": {\"file\": \"...\", \"lines\": \"start-end\"}, \"comment\": \"...\", \"confidence\": 0-100}\n```\n")
	return builder.String()
}

// buildChoicePrompt asks for a single option selection on one rubric item.
func buildChoicePrompt(item models.RubricItem, files map[string]string) string {
	builder := strings.Builder{}
	builder.WriteString("Evaluate the student submission against a single rubric item. Think step by step silently; output only the final JSON.\n\n")
	fmt.Fprintf(&builder, "Rubric item (CHOICE):\n%s\n\n", item.Description)
	builder.WriteString("Options (pick exactly one key):\n")
	for _, option := range item.Options {
		fmt.Fprintf(&builder, "%s - %s\n", option.Key, option.Label)
	}
	builder.WriteString("\nStudent submission:\n")
	writeSourceFiles(&builder, files)
	builder.WriteString("Tasks for this single rubric item:\n")
	builder.WriteString("1. Select the key of the option that best fits the student code.\n")
	builder.WriteString("2. Cite the most relevant evidence for the choice (file and line range).\n")
	builder.WriteString("3. Draft a short feedback comment explaining the choice.\n")
	builder.WriteString("4. Estimate a confidence percentage (0-100).\n\n")
	builder.WriteString("Output format (JSON only, no extra text):\n")
	builder.WriteString("```json\n{\"selected_option\": \"...\", \"evidence\": {\"file\": \"...\", \"lines\": \"start-end\"}, \"comment\": \"...\", \"confidence\": 0-100}\n```\n")
	return builder.String()
}

// buildCaveatPrompt asks for a reusable insight distilled from a human
// grader's disagreement with an automated decision.
func buildCaveatPrompt(req dto.FeedbackRequest) string {
	builder := strings.Builder{}
	builder.WriteString("A human grader disagreed with an automated grading decision. Extract a general insight that avoids the same mistake on similar questions.\n\n")
	fmt.Fprintf(&builder, "Rubric question:\n%s\n\n", req.RubricQuestion)
	fmt.Fprintf(&builder, "Student's answer:\n%s\n\n", req.StudentAssignment)
	fmt.Fprintf(&builder, "Automated decision:\n%s\n\n", req.OriginalDecision)
	fmt.Fprintf(&builder, "Grader's feedback:\n%s\n\n", req.UserFeedback)
	builder.WriteString("Write a concise caveat (1-3 sentences) that:\n")
	builder.WriteString("1. Is general enough to apply to similar situations.\n")
	builder.WriteString("2. States what to watch out for or weigh differently.\n")
	builder.WriteString("3. Mentions no student names or assignment specifics.\n\n")
	builder.WriteString("Output only the caveat text, nothing else.\n")
	return builder.String()
}
