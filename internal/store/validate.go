// Package store owns the durable state of the service: the single profile
// document and the append-only audit and job event logs.
package store

import (
	"encoding/json"
	"fmt"
	"strings"

	"jobcopilot/internal/errors"
	"jobcopilot/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

const profileSchemaJSON = `{
  "type": "object",
  "required": ["personal", "links", "work_auth", "documents"],
  "properties": {
    "personal": {
      "type": "object",
      "required": ["first_name", "last_name", "email", "phone", "location"],
      "properties": {
        "first_name": {"type": "string"},
        "last_name": {"type": "string"},
        "email": {"type": "string"},
        "phone": {"type": "string"},
        "location": {"type": "string"}
      }
    },
    "links": {
      "type": "object",
      "properties": {
        "linkedin": {"type": "string"},
        "github": {"type": "string"},
        "portfolio": {"type": "string"}
      }
    },
    "work_auth": {
      "type": "object",
      "properties": {
        "need_sponsorship": {"type": "boolean"},
        "work_authorization": {"type": "string"}
      }
    },
    "experience": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["company", "title"],
        "properties": {
          "company": {"type": "string"},
          "title": {"type": "string"}
        }
      }
    },
    "education": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["school", "degree"],
        "properties": {
          "school": {"type": "string"},
          "degree": {"type": "string"}
        }
      }
    },
    "skills": {"type": "array", "items": {"type": "string"}},
    "documents": {
      "type": "object",
      "properties": {
        "resume_url": {"type": "string"},
        "cover_letter_url": {"type": "string"}
      }
    }
  }
}`

var (
	profileSchema = gojsonschema.NewStringLoader(profileSchemaJSON)
	validate      = validator.New(validator.WithRequiredStructEnabled())
)

// ParseProfile decodes and validates a raw profile document. Only the
// document structure decides validity; see ProfileWarnings for format hints.
func ParseProfile(raw []byte) (types.Profile, error) {
	if !json.Valid(raw) {
		return types.Profile{}, errors.NewValidationError(errors.ErrCodeProfileInvalid,
			"profile document is not valid JSON", nil)
	}

	result, err := gojsonschema.Validate(profileSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return types.Profile{}, errors.NewValidationError(errors.ErrCodeProfileInvalid,
			"failed to validate profile document", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return types.Profile{}, errors.NewValidationError(errors.ErrCodeProfileInvalid,
			fmt.Sprintf("profile document is invalid: %s", strings.Join(problems, "; ")), nil)
	}

	var profile types.Profile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return types.Profile{}, errors.NewValidationError(errors.ErrCodeProfileInvalid,
			"failed to decode profile document", err)
	}
	return profile.Normalized(), nil
}

// RequestProfile returns the profile override of an answer request checked
// with the same rules as a stored document, or nil when there is none.
func RequestProfile(req types.AnswerRequest) (*types.Profile, error) {
	if req.Profile == nil {
		return nil, nil
	}

	raw := req.RawProfile
	if len(raw) == 0 {
		encoded, err := json.Marshal(req.Profile)
		if err != nil {
			return nil, errors.NewValidationError(errors.ErrCodeProfileInvalid,
				"failed to encode profile override", err)
		}
		raw = encoded
	}

	profile, err := ParseProfile(raw)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// formatChecks are advisory; a profile failing them still loads
var formatChecks = []struct {
	field string
	value func(types.Profile) string
	tag   string
}{
	{"personal.email", func(p types.Profile) string { return p.Personal.Email }, "omitempty,email"},
	{"links.linkedin", func(p types.Profile) string { return p.Links.LinkedIn }, "omitempty,url"},
	{"links.github", func(p types.Profile) string { return p.Links.GitHub }, "omitempty,url"},
	{"links.portfolio", func(p types.Profile) string { return p.Links.Portfolio }, "omitempty,url"},
	{"documents.resume_url", func(p types.Profile) string { return p.Documents.ResumeURL }, "omitempty,url"},
	{"documents.cover_letter_url", func(p types.Profile) string { return p.Documents.CoverLetterURL }, "omitempty,url"},
}

// ProfileWarnings lists fields whose values do not look like what they
// name, such as a link without a scheme
func ProfileWarnings(profile types.Profile) []string {
	var warnings []string
	for _, c := range formatChecks {
		if err := validate.Var(c.value(profile), c.tag); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s failed '%s'", c.field, describeTag(err)))
		}
	}
	return warnings
}

func describeTag(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	return verrs[0].Tag()
}
