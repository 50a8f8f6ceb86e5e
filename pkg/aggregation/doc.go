// Package aggregation implements the Aggregation sum type (pkg/types):
// strategies for combining the outputs of several predecessor nodes into
// the single value a downstream node's prompt is built from, plus the
// OutputTransform post-processing step that may follow aggregation.
//
// # Strategies
//
// Concatenate, MergeJson, CollectArray, SelectOne, FirstNonEmpty,
// Longest, Shortest, Majority, Template, KeyValue, and
// StructuredSummary each reduce a []execctx.Output to one
// types.AgentOutput. An empty input always yields empty text,
// regardless of strategy.
//
// # Rune Safety
//
// StructuredSummary's content preview and OutputTransform's Truncate
// slice by rune, not by byte, so multi-byte UTF-8 content is never
// split mid-codepoint.
package aggregation
