package services

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/workhive/backend/internal/apperr"
)

// Request body schema names.
const (
	SchemaRegisterUser      = "register_user"
	SchemaUpdateRole        = "update_role"
	SchemaCreateTask        = "create_task"
	SchemaUpdateTask        = "update_task"
	SchemaCreateSubmission  = "create_submission"
	SchemaApproveSubmission = "approve_submission"
	SchemaCreateWithdrawal  = "create_withdrawal"
	SchemaRecordPayment     = "record_payment"
	SchemaPaymentIntent     = "payment_intent"
)

//go:embed schemas/*.json
var schemaFiles embed.FS

// Validator checks request bodies against the embedded JSON Schemas before
// they are decoded.
type Validator struct {
	schemas map[string]*jsonschema.Schema
}

// NewValidator compiles every embedded schema.
func NewValidator() (*Validator, error) {
	entries, err := fs.ReadDir(schemaFiles, "schemas")
	if err != nil {
		return nil, fmt.Errorf("read embedded schemas: %w", err)
	}
	schemas := make(map[string]*jsonschema.Schema, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		data, err := schemaFiles.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", e.Name(), err)
		}
		schemas[name], err = jsonschema.CompileString("https://workhive.dev/schemas/"+name+".json", string(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %q: %w", name, err)
		}
	}
	return &Validator{schemas: schemas}, nil
}

// Validate returns an apperr.ErrValidation error naming the first offending
// field when body does not match the named schema.
func (v *Validator) Validate(name string, body []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return apperr.Validationf("invalid JSON body")
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return apperr.Validationf("%s", describe(ve))
		}
		return apperr.Validationf("%v", err)
	}
	return nil
}

// describe reduces a validation error tree to its first leaf.
func describe(ve *jsonschema.ValidationError) string {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	field := strings.TrimPrefix(ve.InstanceLocation, "/")
	if field == "" {
		return ve.Message
	}
	return field + ": " + ve.Message
}
