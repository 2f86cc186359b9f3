package figma

// FirstPage digs the first page out of a decoded Figma file payload.
// File documents look like {"document": {"children": [page, ...]}};
// the second result is false when that shape is absent or empty.
func FirstPage(v any) (any, bool) {
	root, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	doc, ok := root["document"].(map[string]any)
	if !ok {
		return nil, false
	}
	children, ok := doc["children"].([]any)
	if !ok || len(children) == 0 {
		return nil, false
	}
	return children[0], true
}
