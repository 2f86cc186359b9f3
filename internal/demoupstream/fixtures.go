package demoupstream

// FileFixture is one canned Figma file served by the demo upstream.
type FileFixture struct {
	Key      string
	Name     string
	Document map[string]any
	Comments []map[string]any
}

// DefaultFixtures returns the built-in demo files.
func DefaultFixtures() []FileFixture {
	return []FileFixture{
		designSystemFile(),
		onboardingFlowFile(),
		emptyFile(),
	}
}

// ===== DESIGN SYSTEM FILE =====
func designSystemFile() FileFixture {
	return FileFixture{
		Key:  "DEMO123",
		Name: "Demo Design System",
		Document: map[string]any{
			"id":   "0:0",
			"name": "Document",
			"type": "DOCUMENT",
			"children": []any{
				map[string]any{
					"id":   "0:1",
					"name": "Components",
					"type": "CANVAS",
					"children": []any{
						map[string]any{
							"id":   "1:2",
							"name": "Button / Primary",
							"type": "COMPONENT",
						},
						map[string]any{
							"id":   "1:3",
							"name": "Input / Text",
							"type": "COMPONENT",
						},
					},
				},
				map[string]any{
					"id":       "0:2",
					"name":     "Colors",
					"type":     "CANVAS",
					"children": []any{},
				},
			},
		},
		Comments: []map[string]any{
			{
				"id":      "900:1",
				"message": "Primary button needs the new brand blue.",
				"user":    map[string]any{"handle": "demo-designer"},
			},
		},
	}
}

// ===== ONBOARDING FLOW FILE =====
func onboardingFlowFile() FileFixture {
	return FileFixture{
		Key:  "FLOW42",
		Name: "Onboarding Flow",
		Document: map[string]any{
			"id":   "0:0",
			"name": "Document",
			"type": "DOCUMENT",
			"children": []any{
				map[string]any{
					"id":   "0:1",
					"name": "Welcome Screens",
					"type": "CANVAS",
					"children": []any{
						map[string]any{
							"id":   "2:1",
							"name": "Step 1 / Sign up",
							"type": "FRAME",
						},
						map[string]any{
							"id":   "2:2",
							"name": "Step 2 / Workspace",
							"type": "FRAME",
						},
						map[string]any{
							"id":   "2:3",
							"name": "Step 3 / Invite",
							"type": "FRAME",
						},
					},
				},
			},
		},
	}
}

// ===== EMPTY FILE =====
// A file whose document has no pages, for exercising the bridge's
// page-extraction not-found path.
func emptyFile() FileFixture {
	return FileFixture{
		Key:  "EMPTY99",
		Name: "Empty File",
		Document: map[string]any{
			"id":       "0:0",
			"name":     "Document",
			"type":     "DOCUMENT",
			"children": []any{},
		},
	}
}
