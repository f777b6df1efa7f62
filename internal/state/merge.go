package state

import (
	"errors"
	"fmt"
	"sort"
)

// ErrSchemaViolation is matched by every SchemaViolationError.
var ErrSchemaViolation = errors.New("schema violation")

// SchemaViolationError reports a partial that does not fit the record schema.
// It is a programming error and aborts the run.
type SchemaViolationError struct {
	Field  Field
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("schema violation: field %q: %s", e.Field, e.Reason)
}

func (e *SchemaViolationError) Unwrap() error {
	return ErrSchemaViolation
}

// Partial is the subset of fields produced by one stage invocation.
type Partial map[Field]any

// Set stores a value and returns the partial for chaining.
func (p Partial) Set(f Field, v any) Partial {
	p[f] = v
	return p
}

// Errors builds a partial appending the given messages to the error list.
func Errors(msgs ...string) Partial {
	return Partial{FieldErrors: msgs}
}

// Merge combines two partials produced by the same stage. Append fields are
// concatenated, replace fields take the value from next.
func (p Partial) Merge(next Partial) (Partial, error) {
	out := make(Partial, len(p)+len(next))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range next {
		prev, ok := out[k]
		if !ok {
			out[k] = v
			continue
		}
		def, known := schema[k]
		if !known {
			return nil, &SchemaViolationError{Field: k, Reason: "unknown field"}
		}
		if def.rule != Append {
			out[k] = v
			continue
		}
		var tmp Record
		if !def.apply(&tmp, prev) || !def.apply(&tmp, v) {
			return nil, &SchemaViolationError{Field: k, Reason: "expected " + def.expected}
		}
		out[k] = def.get(&tmp)
	}
	return out, nil
}

// Apply folds partial into rec according to each field's merge rule and returns
// the new record. Keys absent from partial are untouched. On error rec is
// returned unchanged. Apply does not mutate rec.
func Apply(rec Record, partial Partial) (Record, error) {
	keys := make([]Field, 0, len(partial))
	for k := range partial {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := rec
	for _, k := range keys {
		def, ok := schema[k]
		if !ok {
			return rec, &SchemaViolationError{Field: k, Reason: "unknown field"}
		}
		if !def.apply(&out, partial[k]) {
			return rec, &SchemaViolationError{
				Field:  k,
				Reason: fmt.Sprintf("expected %s, got %T", def.expected, partial[k]),
			}
		}
	}

	return out, nil
}
