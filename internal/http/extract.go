package http

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/fivetwenty-io/stackapi/internal/constants"
)

// lookupPath resolves a dotted path through decoded JSON objects and arrays.
// Array segments are numeric indexes. A missing or null value is absent.
func lookupPath(data interface{}, path string) (interface{}, bool) {
	if data == nil {
		return nil, false
	}

	if path == "" {
		return data, true
	}

	current := data

	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			current = node[segment]
		case []interface{}:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(node) {
				return nil, false
			}

			current = node[index]
		default:
			return nil, false
		}

		if current == nil {
			return nil, false
		}
	}

	return current, true
}

// mineField finds a human-readable value for field in an error payload.
//
// Lookup order: the field at the top level, then the field inside the first
// top-level object value (in document order) that carries it, then a
// truncated dump of the whole payload.
func mineField(raw []byte, data interface{}, field string) string {
	if obj, ok := data.(map[string]interface{}); ok {
		if value, found := obj[field]; found && value != nil {
			return stringify(value)
		}

		for _, nested := range nestedObjects(raw) {
			if value, found := nested[field]; found && value != nil {
				return stringify(value)
			}
		}
	}

	return dumpPayload(raw, data)
}

// nestedObjects returns the object values of a top-level JSON object in the
// order they appear in the document.
func nestedObjects(raw []byte) []map[string]interface{} {
	decoder := json.NewDecoder(bytes.NewReader(raw))

	token, err := decoder.Token()
	if err != nil || token != json.Delim('{') {
		return nil
	}

	var objects []map[string]interface{}

	for decoder.More() {
		if _, err := decoder.Token(); err != nil {
			return objects
		}

		var value json.RawMessage
		if err := decoder.Decode(&value); err != nil {
			return objects
		}

		var nested map[string]interface{}
		if json.Unmarshal(value, &nested) == nil && nested != nil {
			objects = append(objects, nested)
		}
	}

	return objects
}

func dumpPayload(raw []byte, data interface{}) string {
	if data == nil {
		return constants.Indeterminable
	}

	text := strings.TrimSpace(string(raw))

	var compacted bytes.Buffer
	if json.Compact(&compacted, raw) == nil {
		text = compacted.String()
	}

	if text == "" {
		return constants.Indeterminable
	}

	runes := []rune(text)
	if len(runes) > constants.RemoteDumpLimit {
		return string(runes[:constants.RemoteDumpLimit])
	}

	return text
}

func stringify(value interface{}) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return constants.Indeterminable
		}

		return string(encoded)
	}
}
