package cohost

import "cohost-dashboard/internal/common/validation"

var classificationSchema = validation.MustCompile("classification", `{
	"type": "object",
	"required": ["type", "confidence", "reasoning"],
	"properties": {
		"type":       {"type": "string"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1},
		"topic":      {"type": ["string", "null"]},
		"urgency":    {"type": ["string", "null"]},
		"reasoning":  {"type": "string"}
	}
}`)

var generatedResponseSchema = validation.MustCompile("generated_response", `{
	"type": "object",
	"required": ["response_text", "confidence", "requires_review", "reasoning"],
	"properties": {
		"response_text":   {"type": "string"},
		"confidence":      {"type": "number", "minimum": 0, "maximum": 1},
		"requires_review": {"type": "boolean"},
		"reasoning":       {"type": "string"},
		"alternative_responses": {
			"type": ["array", "null"],
			"items": {"type": "string"}
		}
	}
}`)
