package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// convertToGenaiSchema converts a map[string]interface{} representation of a JSON schema
// to a genai.Schema structure.
func convertToGenaiSchema(schemaMap map[string]interface{}) (*genai.Schema, error) {
	if len(schemaMap) == 0 {
		return nil, nil
	}

	schema := &genai.Schema{}

	if typeStr, ok := schemaMap["type"].(string); ok {
		switch strings.ToLower(typeStr) {
		case "object":
			schema.Type = genai.TypeObject
		case "array":
			schema.Type = genai.TypeArray
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		default:
			return nil, fmt.Errorf("unsupported schema type %q", typeStr)
		}
	}

	if desc, ok := schemaMap["description"].(string); ok {
		schema.Description = desc
	}

	schema.Enum = stringList(schemaMap["enum"])
	schema.Required = stringList(schemaMap["required"])

	if itemsMap, ok := schemaMap["items"].(map[string]interface{}); ok {
		itemSchema, err := convertToGenaiSchema(itemsMap)
		if err != nil {
			return nil, fmt.Errorf("failed to convert items schema: %w", err)
		}
		schema.Items = itemSchema
	}

	if propsMap, ok := schemaMap["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for propName, propVal := range propsMap {
			propMap, ok := propVal.(map[string]interface{})
			if !ok {
				continue
			}
			propSchema, err := convertToGenaiSchema(propMap)
			if err != nil {
				return nil, fmt.Errorf("failed to convert property '%s': %w", propName, err)
			}
			schema.Properties[propName] = propSchema
		}
	}

	return schema, nil
}

// stringList accepts []string or []interface{} of strings
func stringList(v interface{}) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// SchemaInstruction tells a provider without native structured output how to reply
func SchemaInstruction(schema map[string]interface{}) string {
	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "Respond with a single JSON object only."
	}
	return "Respond with a single JSON object only, no prose and no code fences, matching this JSON schema:\n" + string(encoded)
}

// ExtractJSON returns the JSON object embedded in a model reply,
// tolerating code fences and surrounding prose.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in response")
	}
	return text[start : end+1], nil
}
