package orchestrator

import "testing"

func TestParsePlanFencedJSON(t *testing.T) {
	raw := "Sure, here is the plan:\n```json\n" + `{
  "project_summary": "Build a login page",
  "tasks": [
    {"id": "design", "agent_role": "architect", "description": "design the schema"},
    {"id": "build", "agent_role": "implementer", "description": "implement it", "depends_on": ["design"]}
  ]
}` + "\n```\nLet me know if you need anything else."

	plan, err := ParsePlan(raw)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if plan.ProjectSummary != "Build a login page" {
		t.Fatalf("unexpected summary: %q", plan.ProjectSummary)
	}
	if len(plan.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(plan.Tasks))
	}
	if plan.Tasks[1].DependsOn[0] != "design" {
		t.Fatalf("expected build to depend on design, got %v", plan.Tasks[1].DependsOn)
	}
}

func TestParsePlanRawJSON(t *testing.T) {
	raw := `{"project_summary": "Add tests", "tasks": [{"id": "t1", "agent_role": "tester", "description": "write tests"}]}`

	plan, err := ParsePlan(raw)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if len(plan.Tasks) != 1 || plan.Tasks[0].ID != "t1" {
		t.Fatalf("unexpected plan: %+v", plan)
	}
}

func TestParsePlanNoJSON(t *testing.T) {
	if _, err := ParsePlan("I could not come up with a plan."); err == nil {
		t.Fatalf("expected an error for output with no JSON")
	}
}

func TestPlanToGraph(t *testing.T) {
	plan := &Plan{
		ProjectSummary: "test",
		Tasks: []PlannedTask{
			{ID: "a", AgentRole: "architect", Description: "design"},
			{ID: "b", AgentRole: "implementer", Description: "build", DependsOn: []string{"a"}},
			{ID: "c", AgentRole: "unknown-role", Description: "misc"},
		},
	}

	payload := PlanToGraph(plan)
	if len(payload.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(payload.Nodes))
	}
	if len(payload.Edges) != 1 {
		t.Fatalf("expected 1 edge, got %d", len(payload.Edges))
	}
	if payload.Edges[0].ID != "edge-a-b" || payload.Edges[0].Source != "a" || payload.Edges[0].Target != "b" {
		t.Fatalf("unexpected edge: %+v", payload.Edges[0])
	}

	var gotUnknown bool
	for _, n := range payload.Nodes {
		if n.ID == "c" {
			gotUnknown = n.Type == "generic"
		}
	}
	if !gotUnknown {
		t.Fatalf("expected unrecognized role to map to generic node type")
	}
}
