package types

// OutputKind discriminates the AgentOutput sum type: the shapes an
// external agent's result can take once captured off its PTY.
type OutputKind string

const (
	OutputText     OutputKind = "text"
	OutputJson     OutputKind = "json"
	OutputFilePath OutputKind = "file_path"
	OutputFileSet  OutputKind = "file_set"
	OutputCode     OutputKind = "code"
	OutputError    OutputKind = "error"
	OutputKeyValue OutputKind = "key_value"
)

// AgentOutput is the duck-typed encoding of the AgentOutput sum type.
type AgentOutput struct {
	Kind OutputKind `json:"kind"`

	Text     string                 `json:"text,omitempty"`
	Json     interface{}            `json:"json,omitempty"`
	FilePath string                 `json:"file_path,omitempty"`
	Files    []string               `json:"files,omitempty"`
	Language string                 `json:"language,omitempty"` // Code
	Code     string                 `json:"code,omitempty"`
	Message  string                 `json:"message,omitempty"` // Error
	KeyValue map[string]interface{} `json:"key_value,omitempty"`
}

// Preview returns a short, rune-safe textual preview of the output,
// suitable for the StructuredSummary aggregation and for log lines.
// Truncation slices by rune, never by byte, so multi-byte UTF-8
// sequences are never split.
func (o AgentOutput) Preview(maxRunes int) string {
	var s string
	switch o.Kind {
	case OutputText:
		s = o.Text
	case OutputCode:
		s = o.Code
	case OutputError:
		s = o.Message
	case OutputFilePath:
		s = o.FilePath
	default:
		s = string(o.Kind)
	}
	runes := []rune(s)
	if maxRunes <= 0 || len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
