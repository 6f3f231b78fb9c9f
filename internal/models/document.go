package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Document is one meeting-note record as returned by the remote API.
// Every field except the id is optional and any of them may carry an
// unexpected type; accessors treat a wrong type the same as absence.
type Document map[string]any

// ParseDocument decodes a single JSON object.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("models: parse document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("models: parse document: not an object")
	}
	return doc, nil
}

func (d Document) ID() string        { return d.String("id") }
func (d Document) CreatedAt() string { return d.String("created_at") }
func (d Document) UpdatedAt() string { return d.String("updated_at") }
func (d Document) Transcript() string {
	return d.String("transcript")
}

// Title returns the trimmed title, or "Untitled" when missing or blank.
func (d Document) Title() string {
	if t := strings.TrimSpace(d.String("title")); t != "" {
		return t
	}
	return "Untitled"
}

// String returns the value under key when it is a string.
func (d Document) String(key string) string {
	return StringField(d, key)
}

// Map returns the nested object under key, or nil.
func (d Document) Map(key string) map[string]any {
	return MapField(d, key)
}

// Slice returns the array under key, or nil.
func (d Document) Slice(key string) []any {
	return SliceField(d, key)
}

// StringField reads m[key] as a string. Non-string values count as absent.
func StringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, ok := m[key].(string)
	if !ok {
		return ""
	}
	return s
}

// MapField reads m[key] as an object.
func MapField(m map[string]any, key string) map[string]any {
	switch v := m[key].(type) {
	case map[string]any:
		return v
	case Document:
		return v
	default:
		return nil
	}
}

// SliceField reads m[key] as an array.
func SliceField(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	v, ok := m[key].([]any)
	if !ok {
		return nil
	}
	return v
}

// Path walks nested objects along keys and returns the final value as a string.
func Path(m map[string]any, keys ...string) string {
	if len(keys) == 0 {
		return ""
	}
	cur := m
	for _, k := range keys[:len(keys)-1] {
		cur = MapField(cur, k)
		if cur == nil {
			return ""
		}
	}
	return StringField(cur, keys[len(keys)-1])
}
