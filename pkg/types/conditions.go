package types

// ConditionKind discriminates the Condition sum type.
type ConditionKind string

const (
	ConditionAlways                     ConditionKind = "always"
	ConditionNever                      ConditionKind = "never"
	ConditionOnSuccess                  ConditionKind = "on_success"
	ConditionOnFailure                  ConditionKind = "on_failure"
	ConditionAllPredecessorsSucceeded   ConditionKind = "all_predecessors_succeeded"
	ConditionAnyPredecessorSucceeded    ConditionKind = "any_predecessor_succeeded"
	ConditionVariableEquals             ConditionKind = "variable_equals"
	ConditionVariableTruthy             ConditionKind = "variable_truthy"
	ConditionOutputContains             ConditionKind = "output_contains"
	ConditionOutputJsonPath             ConditionKind = "output_json_path"
	ConditionAnd                        ConditionKind = "and"
	ConditionOr                         ConditionKind = "or"
	ConditionNot                        ConditionKind = "not"
	ConditionExpression                 ConditionKind = "expression"
)

// Condition is the duck-typed encoding of the Condition sum type: every
// variant's payload is a named, omitted-when-empty field on one flat
// struct, the same "nested config" convention used throughout this
// module's JSON-facing types.
type Condition struct {
	Kind ConditionKind `json:"kind"`

	// VariableEquals / VariableTruthy
	Variable string      `json:"variable,omitempty"`
	Equals   interface{} `json:"equals,omitempty"`

	// OutputContains
	NodeID         string `json:"node_id,omitempty"`
	Substring      string `json:"substring,omitempty"`
	CaseSensitive  bool   `json:"case_sensitive,omitempty"`

	// OutputJsonPath
	Path          string      `json:"path,omitempty"`
	ExpectedValue interface{} `json:"expected_value,omitempty"`

	// And / Or / Not
	Conditions []Condition `json:"conditions,omitempty"`
	Inner      *Condition  `json:"inner,omitempty"`

	// Expression
	Expression string `json:"expression,omitempty"`
}

// AggregationKind discriminates the Aggregation sum type.
type AggregationKind string

const (
	AggregationConcatenate        AggregationKind = "concatenate"
	AggregationMergeJson          AggregationKind = "merge_json"
	AggregationCollectArray       AggregationKind = "collect_array"
	AggregationSelectOne          AggregationKind = "select_one"
	AggregationFirstNonEmpty      AggregationKind = "first_non_empty"
	AggregationLongest            AggregationKind = "longest"
	AggregationShortest           AggregationKind = "shortest"
	AggregationMajority           AggregationKind = "majority"
	AggregationTemplate           AggregationKind = "template"
	AggregationKeyValue           AggregationKind = "key_value"
	AggregationStructuredSummary  AggregationKind = "structured_summary"
)

// Aggregation is the duck-typed encoding of the Aggregation sum type,
// applied when multiple predecessor outputs feed a single node.
type Aggregation struct {
	Kind AggregationKind `json:"kind"`

	Separator string `json:"separator,omitempty"` // Concatenate
	NodeID    string  `json:"node_id,omitempty"`   // SelectOne
	Template  string  `json:"template,omitempty"`  // Template
	Key       string  `json:"key,omitempty"`       // KeyValue
}

// TransformKind discriminates the OutputTransform sum type.
type TransformKind string

const (
	TransformWrap         TransformKind = "wrap"
	TransformExtractField TransformKind = "extract_field"
	TransformTemplate     TransformKind = "template"
	TransformTruncate     TransformKind = "truncate"
)

// OutputTransform post-processes a node's aggregated input before the
// prompt is built, or a node's output before it is stored.
type OutputTransform struct {
	Kind TransformKind `json:"kind"`

	Prefix    string `json:"prefix,omitempty"`     // Wrap
	Suffix    string `json:"suffix,omitempty"`     // Wrap
	Field     string `json:"field,omitempty"`      // ExtractField
	Template  string `json:"template,omitempty"`   // Template
	MaxLength int    `json:"max_length,omitempty"` // Truncate, in runes
}
