package server

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Request schemas require keys to be present with the right JSON type. An
// empty string is a present value.
var (
	loginSchema = mustSchema(`{
  "type": "object",
  "required": ["email", "password"],
  "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
}`)

	resumeUploadSchema = mustSchema(`{
  "type": "object",
  "required": ["filename"],
  "properties": {"filename": {"type": "string"}}
}`)

	auditSchema = mustSchema(`{
  "type": "object",
  "required": ["site", "job_url"],
  "properties": {
    "site": {"type": "string"},
    "job_url": {"type": "string"},
    "filled_fields": {"type": "array", "items": {"type": "string"}},
    "skipped_fields": {"type": "array", "items": {"type": "string"}},
    "metadata": {"type": "object"}
  }
}`)

	jobSchema = mustSchema(`{
  "type": "object",
  "required": ["site", "job_url"],
  "properties": {
    "site": {"type": "string"},
    "job_url": {"type": "string"},
    "title": {"type": "string"},
    "company": {"type": "string"},
    "external_job_id": {"type": "string"},
    "metadata": {"type": "object"}
  }
}`)
)

func mustSchema(doc string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("invalid request schema: %v", err))
	}
	return schema
}

// checkSchema validates a raw JSON body against schema
func checkSchema(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("failed to validate request: %w", err)
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("%s", strings.Join(problems, "; "))
}
