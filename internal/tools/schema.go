package tools

import "encoding/json"

type property struct {
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Minimum     *int     `json:"minimum,omitempty"`
	Maximum     *int     `json:"maximum,omitempty"`
}

type objectSchema struct {
	Type       string              `json:"type"`
	Properties map[string]property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

func schema(props map[string]property, required ...string) json.RawMessage {
	if props == nil {
		props = map[string]property{}
	}
	data, err := json.Marshal(objectSchema{Type: "object", Properties: props, Required: required})
	if err != nil {
		panic(err)
	}
	return data
}

// merge copies each map into a fresh one; later keys win.
func merge(sets ...map[string]property) map[string]property {
	out := make(map[string]property)
	for _, set := range sets {
		for k, v := range set {
			out[k] = v
		}
	}
	return out
}

func str(description string, enum ...string) property {
	return property{Type: "string", Description: description, Enum: enum}
}

func integer(description string) property {
	return property{Type: "integer", Description: description}
}

func boundedInt(description string, lo, hi int) property {
	return property{Type: "integer", Description: description, Minimum: &lo, Maximum: &hi}
}

func boolean(description string) property {
	return property{Type: "boolean", Description: description}
}
