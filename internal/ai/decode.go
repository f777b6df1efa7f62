package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// ErrNoJSON is returned when a response carries no complete JSON document.
var ErrNoJSON = errors.New("no json document in response")

// ValidationError lists the schema violations of a decoded response.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "response does not match schema: " + strings.Join(e.Errors, "; ")
}

// ExtractJSON returns the first complete JSON object or array in raw,
// skipping markdown fences and any prose around it. Brackets in the prose
// that do not open a valid document are passed over. It returns an empty
// string when there is none.
func ExtractJSON(raw string) string {
	for i := 0; i < len(raw); i++ {
		if raw[i] != '{' && raw[i] != '[' {
			continue
		}
		var doc json.RawMessage
		// The decoder stops after the first complete value.
		if err := json.NewDecoder(strings.NewReader(raw[i:])).Decode(&doc); err == nil {
			return string(doc)
		}
	}
	return ""
}

// DecodeJSON extracts the JSON document from raw, validates it against schema
// when one is given and decodes it into target. Decoding is weakly typed so
// "5" fills an int and 1 fills a bool.
func DecodeJSON(raw, schema string, target any) error {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return ErrNoJSON
	}

	if schema != "" {
		result, err := gojsonschema.Validate(
			gojsonschema.NewStringLoader(schema),
			gojsonschema.NewStringLoader(cleaned),
		)
		if err != nil {
			return fmt.Errorf("validate response: %w", err)
		}
		if !result.Valid() {
			verr := &ValidationError{Errors: make([]string, 0, len(result.Errors()))}
			for _, desc := range result.Errors() {
				field := desc.Field()
				if field == "" {
					field = "(root)"
				}
				verr.Errors = append(verr.Errors, field+": "+desc.Description())
			}
			return verr
		}
	}

	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
