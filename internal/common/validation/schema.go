package validation

import (
	"fmt"
	"sort"

	"incubator-portal/internal/common/errors"
	"incubator-portal/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// RequiredSubmissionFields must be present and contain at least one non-blank character.
var RequiredSubmissionFields = []string{
	"applicationEmail",
	"applicationPhone",
	"programApplied",
	"startupName",
}

// SubmissionSchema is the JSON schema applied to every public submission.
func SubmissionSchema() map[string]interface{} {
	nonBlank := func() map[string]interface{} {
		return map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"maxLength": 256,
			"pattern":   `\S`,
		}
	}

	email := nonBlank()
	email["format"] = "email"

	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"applicationEmail": email,
			"applicationPhone": nonBlank(),
			"programApplied":   nonBlank(),
			"startupName":      nonBlank(),
			"description": map[string]interface{}{
				"type":      "string",
				"maxLength": 10000,
			},
		},
		"required": RequiredSubmissionFields,
	}
}

// SubmissionValidator validates submission payloads against SubmissionSchema.
type SubmissionValidator struct {
	schema *gojsonschema.Schema
}

func NewSubmissionValidator() (*SubmissionValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(SubmissionSchema()))
	if err != nil {
		return nil, fmt.Errorf("failed to compile submission schema: %w", err)
	}
	return &SubmissionValidator{schema: schema}, nil
}

// Validate returns a VALIDATION_FAILED error naming every offending field, sorted.
func (v *SubmissionValidator) Validate(fields models.SubmissionFields) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(fields.ToMap()))
	if err != nil {
		return errors.NewInternalError(fmt.Errorf("validation error: %w", err))
	}

	if result.Valid() {
		return nil
	}

	return errors.NewValidationFailedError(offendingFields(result.Errors())...)
}

func offendingFields(descs []gojsonschema.ResultError) []string {
	seen := make(map[string]bool)
	var fields []string
	for _, desc := range descs {
		name := desc.Field()
		if desc.Type() == "required" {
			if p, ok := desc.Details()["property"].(string); ok {
				name = p
			}
		}
		if name == "" || name == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY || seen[name] {
			continue
		}
		seen[name] = true
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}
