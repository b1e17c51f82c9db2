package job

import (
	"fmt"
)

// Preprocessing step actions understood by the backend
const (
	ActionFillMissing      = "fill_missing"
	ActionChangeType       = "change_type"
	ActionEncode           = "encode"
	ActionRemoveOutliers   = "remove_outliers"
	ActionDropColumn       = "drop_column"
	ActionRemoveDuplicates = "remove_duplicates"
)

// PreprocessingStep describes one column-level cleaning operation.
// An empty steps slice tells the backend to apply its automatic
// preprocessing heuristic.
type PreprocessingStep struct {
	// Action is one of the Action* constants
	Action string `json:"action"`
	// Column is the target column (not used by remove_duplicates)
	Column string `json:"column,omitempty"`
	// Method selects how the action is applied, e.g. "mean" or "median"
	// for fill_missing, "label" or "onehot" for encode
	Method string `json:"method,omitempty"`
	// Value is an optional action-specific argument
	Value interface{} `json:"value,omitempty"`
}

// knownActions maps each action to whether it requires a column
var knownActions = map[string]bool{
	ActionFillMissing:      true,
	ActionChangeType:       true,
	ActionEncode:           true,
	ActionRemoveOutliers:   true,
	ActionDropColumn:       true,
	ActionRemoveDuplicates: false,
}

// methodActions lists actions that require a method to be meaningful
var methodActions = map[string]bool{
	ActionFillMissing: true,
	ActionChangeType:  true,
	ActionEncode:      true,
}

// ValidateStep checks that a step names a known action and carries the
// fields that action needs. The backend silently skips malformed steps,
// so catching them client-side is the only feedback the user gets.
func ValidateStep(step PreprocessingStep) error {
	needsColumn, known := knownActions[step.Action]
	if !known {
		return fmt.Errorf("unknown preprocessing action: %q", step.Action)
	}
	if needsColumn && step.Column == "" {
		return fmt.Errorf("action %s requires a column", step.Action)
	}
	if methodActions[step.Action] && step.Method == "" {
		return fmt.Errorf("action %s requires a method", step.Action)
	}
	return nil
}

// ValidateSteps validates a whole step list, reporting the first bad step
func ValidateSteps(steps []PreprocessingStep) error {
	for i, step := range steps {
		if err := ValidateStep(step); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}
