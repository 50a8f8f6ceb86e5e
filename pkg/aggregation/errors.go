package aggregation

import "errors"

// ErrUnsupportedShape names an output that can't be interpreted as a
// JSON object. No aggregation function returns it: MergeJson and
// Majority skip outputs of any other shape, KeyValue keys them by node
// ID, and the ExtractField transform yields an Error output instead.
var ErrUnsupportedShape = errors.New("aggregation: output is not a JSON object")
