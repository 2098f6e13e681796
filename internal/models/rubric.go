package models

// RubricKind discriminates the two gradable criterion shapes.
type RubricKind string

const (
	// RubricKindBinary awards or denies the item's points outright.
	RubricKindBinary RubricKind = "BINARY"
	// RubricKindChoice selects exactly one of the item's declared options.
	RubricKindChoice RubricKind = "CHOICE"
)

// RubricOption is one selectable answer of a choice item. Options keep the
// order they were declared in; tie-breaks and fallbacks depend on it.
type RubricOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// RubricItem is a single gradable criterion of a submission's rubric.
// Items are immutable once a grading job has been accepted.
type RubricItem struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	Points      float64        `json:"points"`
	Kind        RubricKind     `json:"kind"`
	Options     []RubricOption `json:"options,omitempty"`
}

// OptionKeys returns the declared option keys in declaration order.
func (r RubricItem) OptionKeys() []string {
	keys := make([]string, 0, len(r.Options))
	for _, option := range r.Options {
		keys = append(keys, option.Key)
	}
	return keys
}

// HasOption reports whether key is one of the item's declared option keys.
func (r RubricItem) HasOption(key string) bool {
	for _, option := range r.Options {
		if option.Key == key {
			return true
		}
	}
	return false
}
