package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/labs-tracker/constants"
	"github.com/joseph-ayodele/labs-tracker/internal/common"
)

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compile(schemaMap)
	if err != nil {
		return err
	}
	return validate(schema, data)
}

// ManualEntryValidator checks manual entry bodies against a schema compiled once.
type ManualEntryValidator struct {
	allowed []string
	once    sync.Once
	schema  *jsonschema.Schema
	err     error
}

func NewManualEntryValidator(allowedConfidence []string) *ManualEntryValidator {
	return &ManualEntryValidator{allowed: allowedConfidence}
}

// Validate returns a validation-stage error when data does not match.
func (v *ManualEntryValidator) Validate(data []byte) error {
	v.once.Do(func() {
		v.schema, v.err = compile(BuildLabTestResultJSONSchema(v.allowed))
	})
	if v.err != nil {
		return v.err
	}
	if err := validate(v.schema, data); err != nil {
		return common.NewStageError(constants.StageValidation, common.CodeValidation,
			"request body does not match the lab result schema", fmt.Errorf("%w: %w", common.ErrValidation, err))
	}
	return nil
}

func compile(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
