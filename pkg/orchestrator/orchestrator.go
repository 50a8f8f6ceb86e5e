package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nexusdag/nexus/pkg/types"
)

// PlannedTask is one unit of work the planning agent decomposed the
// original request into.
type PlannedTask struct {
	ID          string   `json:"id"`
	AgentRole   string   `json:"agent_role"`
	Description string   `json:"description"`
	DependsOn   []string `json:"depends_on,omitempty"`
}

// Plan is the planning agent's full decomposition of a request.
type Plan struct {
	ProjectSummary string        `json:"project_summary"`
	Tasks          []PlannedTask `json:"tasks"`
}

// planPromptTemplate is the fixed system prompt handed to the planning
// agent. It asks for a JSON object so ParsePlan has something
// structured to extract, regardless of what conversational text the
// agent wraps around it.
const planPromptTemplate = `You are a planning agent for a multi-agent software engineering workflow.

Break the following request into a set of concrete tasks, each assigned to one
agent role (architect, implementer, tester, documenter, security, devops, or
generic), with explicit dependencies between tasks where one task's output is
needed before another can start.

Respond with a single JSON object of this exact shape:

{
  "project_summary": "<one-sentence summary of the overall goal>",
  "tasks": [
    {
      "id": "<short unique task id>",
      "agent_role": "<architect|implementer|tester|documenter|security|devops|generic>",
      "description": "<what this task should do, as a self-contained instruction>",
      "depends_on": ["<id of a task that must complete first>", ...]
    }
  ]
}

Request:
%s`

// BuildPlanPrompt renders the planning agent's system prompt for the
// given request.
func BuildPlanPrompt(request string) string {
	return fmt.Sprintf(planPromptTemplate, request)
}

// ParsePlan extracts and decodes a Plan from a planning agent's raw
// output, trying three extraction strategies in order: a fenced
// ```json``` block, any fenced code block, then a raw balanced-brace
// scan starting at the first '{'.
func ParsePlan(raw string) (*Plan, error) {
	jsonText, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var plan Plan
	if err := json.Unmarshal([]byte(jsonText), &plan); err != nil {
		return nil, fmt.Errorf("orchestrator: decode plan: %w", err)
	}
	if len(plan.Tasks) == 0 {
		return nil, ErrEmptyPlan
	}
	return &plan, nil
}

// extractJSON tries, in order: a ```json fenced block, any fenced code
// block (skipping a non-'{' first line as a language identifier), then
// a raw brace-depth scan from the first '{' in the text.
func extractJSON(raw string) (string, error) {
	if text, ok := extractFencedJSON(raw); ok {
		return text, nil
	}
	if text, ok := extractAnyFencedBlock(raw); ok {
		return text, nil
	}
	if text, ok := extractBalancedBraces(raw); ok {
		return text, nil
	}
	return "", ErrNoJSONFound
}

func extractFencedJSON(raw string) (string, bool) {
	const marker = "```json"
	start := strings.Index(raw, marker)
	if start < 0 {
		return "", false
	}
	rest := raw[start+len(marker):]
	end := strings.Index(rest, "```")
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func extractAnyFencedBlock(raw string) (string, bool) {
	const marker = "```"
	start := strings.Index(raw, marker)
	if start < 0 {
		return "", false
	}
	rest := raw[start+len(marker):]
	end := strings.Index(rest, marker)
	if end < 0 {
		return "", false
	}
	block := rest[:end]

	lines := strings.SplitN(block, "\n", 2)
	if len(lines) == 2 && !strings.HasPrefix(strings.TrimSpace(lines[0]), "{") {
		block = lines[1]
	}
	return strings.TrimSpace(block), true
}

func extractBalancedBraces(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	for i, r := range raw[start:] {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return raw[start : start+i+1], true
			}
		}
	}
	return "", false
}

// roleToNodeType maps the planner's agent_role vocabulary onto the
// engine's NodeType taxonomy, falling back to the generic role for
// anything unrecognized.
func roleToNodeType(role string) types.NodeType {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "architect":
		return types.NodeTypeArchitect
	case "implementer":
		return types.NodeTypeImplementer
	case "tester":
		return types.NodeTypeTester
	case "documenter":
		return types.NodeTypeDocumenter
	case "security":
		return types.NodeTypeSecurity
	case "devops":
		return types.NodeTypeDevOps
	default:
		return types.NodeTypeGeneric
	}
}

// PlanToGraph converts a parsed Plan into a GraphPayload: one node per
// task, and one edge per dependency, named "edge-<dependency>-<task>".
func PlanToGraph(plan *Plan) types.GraphPayload {
	nodes := make([]types.Node, 0, len(plan.Tasks))
	var edges []types.Edge

	for _, task := range plan.Tasks {
		nodes = append(nodes, types.Node{
			ID:     task.ID,
			Type:   roleToNodeType(task.AgentRole),
			Role:   task.AgentRole,
			Prompt: task.Description,
		})
		for _, dep := range task.DependsOn {
			edges = append(edges, types.Edge{
				ID:     fmt.Sprintf("edge-%s-%s", dep, task.ID),
				Source: dep,
				Target: task.ID,
			})
		}
	}

	return types.GraphPayload{Nodes: nodes, Edges: edges}
}
