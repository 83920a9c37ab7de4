package contract

// BuildLabTestResultJSONSchema returns a JSON-Schema (draft 2020-12 subset) for one
// LabTestResult as a generic map. The manual entry endpoint validates request bodies with it.
func BuildLabTestResultJSONSchema(allowedConfidence []string) map[string]any {
	props := map[string]any{
		"testName":    map[string]any{"type": "string", "minLength": 1, "maxLength": 100},
		"testDate":    map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
		"result":      map[string]any{"type": "string", "minLength": 1, "maxLength": 64},
		"unit":        nullableString(32),
		"normalRange": nullableString(64),
		"notes":       map[string]any{"type": "string", "maxLength": 2000},
		"confidence":  map[string]any{"type": "string"},
	}
	required := []string{"testName", "result"}

	if len(allowedConfidence) > 0 {
		props["confidence"] = map[string]any{
			"type": "string",
			"enum": allowedConfidence,
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

// BuildExtractResponseJSONSchema describes the body of a successful extraction: an array of
// results, each carrying every field. The placeholder result has an empty value.
func BuildExtractResponseJSONSchema(allowedConfidence []string) map[string]any {
	item := BuildLabTestResultJSONSchema(allowedConfidence)
	props := item["properties"].(map[string]any)
	props["result"] = map[string]any{"type": "string", "maxLength": 64}
	item["required"] = []string{"testName", "testDate", "result", "unit", "normalRange", "notes", "confidence"}
	return map[string]any{
		"type":  "array",
		"items": item,
	}
}

func nullableString(maxLen int) map[string]any {
	return map[string]any{
		"type":      []string{"string", "null"},
		"maxLength": maxLen,
	}
}
