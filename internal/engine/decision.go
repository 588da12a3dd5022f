package engine

import "time"

// RuleRef records which binding and rule produced an allow, for audit.
type RuleRef struct {
	// Binding is the name of the binding whose referenced set matched.
	Binding string `json:"binding"`

	// Namespace of the binding. Empty for cluster bindings.
	Namespace string `json:"namespace,omitempty"`

	// RuleIndex is the position of the matching rule within the referenced set.
	RuleIndex int `json:"ruleIndex"`
}

// Decision is the immutable result of one authorization query.
type Decision struct {
	Allowed     bool
	Matched     *RuleRef
	EvaluatedAt time.Time
}
