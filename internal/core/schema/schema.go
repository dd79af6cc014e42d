// Package schema publishes the JSON contract of a batch result and validates
// documents against it.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
	"github.com/joseph-ayodele/bnpl-tracker/internal/entity"
)

const resourceName = "batch_result.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// BuildBatchResultJSONSchema returns the schema (draft 2020-12 subset) as a
// generic map so it can be served or embedded by callers.
func BuildBatchResultJSONSchema() map[string]any {
	fields := make([]string, len(constants.AllFields))
	for i, f := range constants.AllFields {
		fields[i] = string(f)
	}
	providerEnum := map[string]any{"type": "string", "enum": constants.AsStringSlice()}

	payment := object(map[string]any{
		"provider":          providerEnum,
		"due_date":          nullable("string", map[string]any{"pattern": `^\d{4}-\d{2}-\d{2}$`}),
		"amount":            nullable("string", map[string]any{"pattern": `^\d+\.\d{2}$`}),
		"installment_index": nullable("integer", map[string]any{"minimum": 1}),
		"installment_total": nullable("integer", map[string]any{"minimum": 1}),
		"autopay_enabled":   nullable("boolean", nil),
		"description":       map[string]any{"type": "string"},
	}, "provider", "due_date", "amount", "installment_index", "installment_total", "autopay_enabled")

	projected := object(map[string]any{
		"installment_index": map[string]any{"type": "integer", "minimum": 1},
		"installment_total": map[string]any{"type": "integer", "minimum": 1},
		"due_date":          dateProp(),
		"amount":            nullable("string", map[string]any{"pattern": `^\d+\.\d{2}$`}),
		"description":       map[string]any{"type": "string"},
	}, "installment_index", "installment_total", "due_date")

	schedule := object(map[string]any{
		"provider":         providerEnum,
		"payments":         map[string]any{"type": "array", "items": payment},
		"total_amount":     moneyProp(),
		"remaining_amount": moneyProp(),
		"as_of":            dateProp(),
		"upcoming":         map[string]any{"type": "array", "items": projected},
	}, "provider", "payments", "total_amount", "remaining_amount", "as_of")

	success := object(map[string]any{
		"payment":    payment,
		"confidence": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
		"warnings":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	}, "payment", "warnings")

	unrecognized := object(map[string]any{
		"raw_fragment_preview": map[string]any{"type": "string"},
		"candidates":           map[string]any{"type": "array", "items": providerEnum},
	}, "raw_fragment_preview", "candidates")

	failure := object(map[string]any{
		"provider": providerEnum,
		"missing_fields": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string", "enum": fields},
			"uniqueItems": true,
		},
		"sanitized_message": map[string]any{"type": "string"},
	}, "missing_fields", "sanitized_message")

	result := object(map[string]any{
		"index": map[string]any{"type": "integer", "minimum": 0},
		"kind": map[string]any{"type": "string", "enum": []string{
			string(entity.KindSuccess),
			string(entity.KindUnrecognizedProvider),
			string(entity.KindExtractionFailure),
		}},
		"success":      success,
		"unrecognized": unrecognized,
		"failure":      failure,
	}, "index", "kind")
	result["allOf"] = []any{
		variant(entity.KindSuccess, "success"),
		variant(entity.KindUnrecognizedProvider, "unrecognized"),
		variant(entity.KindExtractionFailure, "failure"),
	}

	root := object(map[string]any{
		"mode":    map[string]any{"type": "string", "enum": constants.Modes},
		"results": map[string]any{"type": "array", "items": result},
		"schedules_by_provider": map[string]any{
			"type":                 "object",
			"propertyNames":        providerEnum,
			"additionalProperties": schedule,
		},
	}, "mode", "results", "schedules_by_provider")
	root["$schema"] = "https://json-schema.org/draft/2020-12/schema"
	return root
}

func object(props map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             required,
	}
}

func nullable(typ string, extra map[string]any) map[string]any {
	m := map[string]any{"type": []string{typ, "null"}}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func moneyProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^\d+\.\d{2}$`}
}

func dateProp() map[string]any {
	return map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`}
}

// variant requires the payload key matching kind and forbids the others.
func variant(kind entity.ResultKind, key string) map[string]any {
	others := []any{}
	for _, k := range []string{"success", "unrecognized", "failure"} {
		if k != key {
			others = append(others, map[string]any{"required": []string{k}})
		}
	}
	return map[string]any{
		"if":   map[string]any{"properties": map[string]any{"kind": map[string]any{"const": string(kind)}}},
		"then": map[string]any{"required": []string{key}, "not": map[string]any{"anyOf": others}},
	}
}

func compile() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(BuildBatchResultJSONSchema())
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(resourceName, bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiled, compileErr = compiler.Compile(resourceName)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile schema: %w", compileErr)
		}
	})
	return compiled, compileErr
}

// Validate checks a serialized batch result against the schema.
func Validate(data []byte) error {
	s, err := compile()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// ValidateBatch serializes res and validates it.
func ValidateBatch(res *entity.BatchResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal batch result: %w", err)
	}
	return Validate(b)
}
