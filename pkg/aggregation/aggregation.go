// Package aggregation combines outputs from multiple predecessor nodes
// into a single value for a downstream node, and applies the post-hoc
// OutputTransform that may follow.
package aggregation

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/nexusdag/nexus/pkg/execctx"
	"github.com/nexusdag/nexus/pkg/types"
)

// Aggregate combines a set of predecessor outputs into one AgentOutput
// according to the given strategy. An empty input always yields an empty
// text output regardless of strategy.
func Aggregate(outputs []execctx.Output, agg types.Aggregation) types.AgentOutput {
	if len(outputs) == 0 {
		return types.AgentOutput{Kind: types.OutputText, Text: ""}
	}

	switch agg.Kind {
	case types.AggregationConcatenate:
		return concatenate(outputs, agg.Separator)
	case types.AggregationMergeJson:
		return mergeJSON(outputs)
	case types.AggregationCollectArray:
		return collectArray(outputs)
	case types.AggregationSelectOne:
		return selectOne(outputs, agg.NodeID)
	case types.AggregationFirstNonEmpty:
		return firstNonEmpty(outputs)
	case types.AggregationLongest:
		return longest(outputs)
	case types.AggregationShortest:
		return shortest(outputs)
	case types.AggregationMajority:
		return majority(outputs, agg.Key)
	case types.AggregationTemplate:
		return template(outputs, agg.Template)
	case types.AggregationKeyValue:
		return keyValue(outputs, agg.Key)
	case types.AggregationStructuredSummary:
		return structuredSummary(outputs)
	default:
		return types.AgentOutput{Kind: types.OutputError, Message: fmt.Sprintf("unknown aggregation kind: %s", agg.Kind)}
	}
}

func concatenate(outputs []execctx.Output, separator string) types.AgentOutput {
	if separator == "" {
		separator = "\n\n---\n\n"
	}
	parts := make([]string, 0, len(outputs))
	for _, o := range outputs {
		parts = append(parts, fmt.Sprintf("[From %s (%s)]\n%s", o.NodeID, o.AgentRole, execctx.ToContextString(o.Data)))
	}
	return types.AgentOutput{Kind: types.OutputText, Text: strings.Join(parts, separator)}
}

func mergeJSON(outputs []execctx.Output) types.AgentOutput {
	merged := make(map[string]interface{})
	for _, o := range outputs {
		obj := asJSONObject(o.Data)
		for k, v := range obj {
			deepMerge(merged, k, v)
		}
	}
	return types.AgentOutput{Kind: types.OutputJson, Json: merged}
}

func deepMerge(target map[string]interface{}, key string, value interface{}) {
	existing, existingIsObj := target[key].(map[string]interface{})
	newObj, newIsObj := value.(map[string]interface{})
	if existingIsObj && newIsObj {
		for k, v := range newObj {
			deepMerge(existing, k, v)
		}
		return
	}
	target[key] = value
}

func asJSONObject(data types.AgentOutput) map[string]interface{} {
	if data.Kind == types.OutputJson {
		if obj, ok := data.Json.(map[string]interface{}); ok {
			return obj
		}
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(execctx.ToContextString(data)), &obj); err == nil {
		return obj
	}
	return nil
}

func collectArray(outputs []execctx.Output) types.AgentOutput {
	items := make([]interface{}, 0, len(outputs))
	for _, o := range outputs {
		items = append(items, map[string]interface{}{
			"source": map[string]interface{}{
				"node_id":    o.NodeID,
				"agent_role": o.AgentRole,
				"timestamp":  o.Timestamp,
			},
			"output": execctx.ToContextString(o.Data),
		})
	}
	return types.AgentOutput{Kind: types.OutputJson, Json: items}
}

func selectOne(outputs []execctx.Output, nodeID string) types.AgentOutput {
	for _, o := range outputs {
		if o.NodeID == nodeID {
			return o.Data
		}
	}
	return types.AgentOutput{Kind: types.OutputError, Message: fmt.Sprintf("node %s not found in outputs", nodeID)}
}

func firstNonEmpty(outputs []execctx.Output) types.AgentOutput {
	for _, o := range outputs {
		if strings.TrimSpace(execctx.ToContextString(o.Data)) != "" {
			return o.Data
		}
	}
	return types.AgentOutput{Kind: types.OutputText, Text: ""}
}

func longest(outputs []execctx.Output) types.AgentOutput {
	best := outputs[0]
	bestLen := len([]rune(execctx.ToContextString(best.Data)))
	for _, o := range outputs[1:] {
		if l := len([]rune(execctx.ToContextString(o.Data))); l > bestLen {
			best, bestLen = o, l
		}
	}
	return best.Data
}

func shortest(outputs []execctx.Output) types.AgentOutput {
	var best *execctx.Output
	bestLen := -1
	for i, o := range outputs {
		content := execctx.ToContextString(o.Data)
		if content == "" {
			continue
		}
		if bestLen == -1 || len([]rune(content)) < bestLen {
			best, bestLen = &outputs[i], len([]rune(content))
		}
	}
	if best == nil {
		return types.AgentOutput{Kind: types.OutputText, Text: ""}
	}
	return best.Data
}

func majority(outputs []execctx.Output, field string) types.AgentOutput {
	votes := make(map[string]int)
	for _, o := range outputs {
		obj := asJSONObject(o.Data)
		if obj == nil {
			continue
		}
		if v, ok := obj[field]; ok {
			votes[fmt.Sprintf("%v", v)]++
		}
	}
	if len(votes) == 0 {
		return types.AgentOutput{Kind: types.OutputError, Message: fmt.Sprintf("no votes found for field %q", field)}
	}

	keys := make([]string, 0, len(votes))
	for k := range votes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	winner, count := keys[0], votes[keys[0]]
	for _, k := range keys[1:] {
		if votes[k] > count {
			winner, count = k, votes[k]
		}
	}

	return types.AgentOutput{Kind: types.OutputJson, Json: map[string]interface{}{
		"field":        field,
		"value":        winner,
		"votes":        count,
		"total_voters": len(outputs),
	}}
}

func template(outputs []execctx.Output, tmpl string) types.AgentOutput {
	result := tmpl
	for _, o := range outputs {
		content := execctx.ToContextString(o.Data)
		result = strings.ReplaceAll(result, "{{"+o.NodeID+"}}", content)
		result = strings.ReplaceAll(result, "{{role:"+o.AgentRole+"}}", content)
	}
	return types.AgentOutput{Kind: types.OutputText, Text: result}
}

func keyValue(outputs []execctx.Output, keyField string) types.AgentOutput {
	pairs := make(map[string]interface{}, len(outputs))
	for _, o := range outputs {
		key := o.NodeID
		if keyField != "" {
			if obj := asJSONObject(o.Data); obj != nil {
				if v, ok := obj[keyField]; ok {
					key = fmt.Sprintf("%v", v)
				}
			}
		}
		pairs[key] = execctx.ToContextString(o.Data)
	}
	return types.AgentOutput{Kind: types.OutputKeyValue, KeyValue: pairs}
}

func structuredSummary(outputs []execctx.Output) types.AgentOutput {
	summaries := make([]interface{}, 0, len(outputs))
	for _, o := range outputs {
		content := execctx.ToContextString(o.Data)
		summaries = append(summaries, map[string]interface{}{
			"node_id":         o.NodeID,
			"agent_role":      o.AgentRole,
			"timestamp":       o.Timestamp,
			"content_length":  len([]rune(content)),
			"content_preview": o.Data.Preview(200),
			"tags":            o.Tags,
		})
	}
	return types.AgentOutput{Kind: types.OutputJson, Json: map[string]interface{}{
		"total_outputs": len(outputs),
		"outputs":       summaries,
	}}
}

// ApplyTransform post-processes an aggregated or raw output. Truncation
// and any other rune-sensitive operation slices by rune, never by byte.
func ApplyTransform(data types.AgentOutput, transform types.OutputTransform) types.AgentOutput {
	switch transform.Kind {
	case types.TransformWrap:
		content := execctx.ToContextString(data)
		return types.AgentOutput{Kind: types.OutputText, Text: transform.Prefix + content + transform.Suffix}

	case types.TransformExtractField:
		obj := asJSONObject(data)
		if obj == nil {
			return types.AgentOutput{Kind: types.OutputError, Message: "input is not valid JSON"}
		}
		var current interface{} = obj
		for _, part := range strings.Split(transform.Field, ".") {
			m, ok := current.(map[string]interface{})
			if !ok {
				return types.AgentOutput{Kind: types.OutputError, Message: fmt.Sprintf("path %q not found", transform.Field)}
			}
			v, ok := m[part]
			if !ok {
				return types.AgentOutput{Kind: types.OutputError, Message: fmt.Sprintf("path %q not found", transform.Field)}
			}
			current = v
		}
		return types.AgentOutput{Kind: types.OutputJson, Json: current}

	case types.TransformTemplate:
		content := execctx.ToContextString(data)
		return types.AgentOutput{Kind: types.OutputText, Text: strings.ReplaceAll(transform.Template, "{{content}}", content)}

	case types.TransformTruncate:
		content := execctx.ToContextString(data)
		runes := []rune(content)
		if transform.MaxLength <= 0 || len(runes) <= transform.MaxLength {
			return data
		}
		return types.AgentOutput{Kind: types.OutputText, Text: string(runes[:transform.MaxLength]) + "..."}

	default:
		return data
	}
}
