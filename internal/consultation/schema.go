package consultation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const createSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "patient_id": {"type": "string"}
  }
}`

const messageSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["text"],
  "properties": {
    "text": {"type": "string", "maxLength": 2000}
  }
}`

const nearestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["lat", "lng"],
  "properties": {
    "lat": {"type": "number", "minimum": -90, "maximum": 90},
    "lng": {"type": "number", "minimum": -180, "maximum": 180}
  }
}`

// bodyValidator checks request bodies against a JSON schema before decoding.
type bodyValidator struct {
	schema *gojsonschema.Schema
}

func newBodyValidator(src string) (*bodyValidator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &bodyValidator{schema: schema}, nil
}

func mustBodyValidator(src string) *bodyValidator {
	v, err := newBodyValidator(src)
	if err != nil {
		panic(err)
	}
	return v
}

func (v *bodyValidator) Validate(body []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if !result.Valid() {
		var errs []string
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

var (
	createValidator  = mustBodyValidator(createSchema)
	messageValidator = mustBodyValidator(messageSchema)
	nearestValidator = mustBodyValidator(nearestSchema)
)
