// Package formatters renders CLI results as json, text or markdown.
package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"jobcopilot/internal/types"
)

// Formatter renders one kind of result
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry is the registry used by the CLI
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a registry with the default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnswerResponse", &AnswerTextFormatter{})
	registry.RegisterFormatter("markdown", "AnswerResponse", &AnswerMarkdownFormatter{})
	registry.RegisterFormatter("text", "Profile", &ProfileTextFormatter{})
	registry.RegisterFormatter("markdown", "Profile", &ProfileMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a formatter for a format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the most specific formatter available
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, ok := fr.formatters[format]; ok {
		if formatter, ok := formatters[dataType]; ok {
			return formatter.Format(data)
		}
		if formatter, ok := formatters["any"]; ok {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all registered formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnswerResponse:
		return "AnswerResponse"
	case types.Profile:
		return "Profile"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnswerTextFormatter renders an AnswerResponse as plain text
type AnswerTextFormatter struct{}

func (f *AnswerTextFormatter) Format(data any) (string, error) {
	resp, ok := data.(types.AnswerResponse)
	if !ok {
		return "", fmt.Errorf("expected AnswerResponse, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== FIELD ANSWERS ===\n")
	fmt.Fprintf(&out, "Used LLM: %s\n", yesNo(resp.UsedLLM))
	if resp.Model != "" {
		fmt.Fprintf(&out, "Model: %s\n", resp.Model)
	}
	if resp.Message != "" {
		fmt.Fprintf(&out, "Message: %s\n", resp.Message)
	}
	out.WriteString("\n")

	answers := answerList(resp)
	if len(answers) == 0 {
		out.WriteString("No answers.\n")
		return out.String(), nil
	}
	for _, a := range answers {
		fmt.Fprintf(&out, "%s: %s (confidence %.2f, source %s)\n", a.FieldID, compactValue(a.Value), a.Confidence, a.Source)
		if a.Reason != "" {
			fmt.Fprintf(&out, "    %s\n", a.Reason)
		}
	}
	return out.String(), nil
}

func (f *AnswerTextFormatter) SupportedType() string {
	return "AnswerResponse"
}

// AnswerMarkdownFormatter renders an AnswerResponse as a markdown table
type AnswerMarkdownFormatter struct{}

func (f *AnswerMarkdownFormatter) Format(data any) (string, error) {
	resp, ok := data.(types.AnswerResponse)
	if !ok {
		return "", fmt.Errorf("expected AnswerResponse, got %T", data)
	}

	var out strings.Builder
	out.WriteString("# Field Answers\n\n")
	fmt.Fprintf(&out, "- **Used LLM:** %s\n", yesNo(resp.UsedLLM))
	if resp.Model != "" {
		fmt.Fprintf(&out, "- **Model:** %s\n", resp.Model)
	}
	if resp.Message != "" {
		fmt.Fprintf(&out, "- **Message:** %s\n", resp.Message)
	}
	out.WriteString("\n")

	answers := answerList(resp)
	if len(answers) == 0 {
		out.WriteString("_No answers._\n")
		return out.String(), nil
	}
	out.WriteString("| Field | Value | Confidence | Source | Reason |\n")
	out.WriteString("|---|---|---|---|---|\n")
	for _, a := range answers {
		fmt.Fprintf(&out, "| %s | %s | %.2f | %s | %s |\n",
			cell(a.FieldID), cell(compactValue(a.Value)), a.Confidence, a.Source, cell(a.Reason))
	}
	return out.String(), nil
}

func (f *AnswerMarkdownFormatter) SupportedType() string {
	return "AnswerResponse"
}

// ProfileTextFormatter renders a Profile as plain text
type ProfileTextFormatter struct{}

func (f *ProfileTextFormatter) Format(data any) (string, error) {
	p, ok := data.(types.Profile)
	if !ok {
		return "", fmt.Errorf("expected Profile, got %T", data)
	}

	var out strings.Builder
	out.WriteString("=== PROFILE ===\n")
	fmt.Fprintf(&out, "Name: %s %s\n", p.Personal.FirstName, p.Personal.LastName)
	fmt.Fprintf(&out, "Email: %s\n", p.Personal.Email)
	fmt.Fprintf(&out, "Phone: %s\n", p.Personal.Phone)
	fmt.Fprintf(&out, "Location: %s\n", p.Personal.Location)
	writeIfSet(&out, "LinkedIn: %s\n", p.Links.LinkedIn)
	writeIfSet(&out, "GitHub: %s\n", p.Links.GitHub)
	writeIfSet(&out, "Portfolio: %s\n", p.Links.Portfolio)
	fmt.Fprintf(&out, "Needs sponsorship: %s\n", yesNo(p.WorkAuth.NeedSponsorship))
	writeIfSet(&out, "Work authorization: %s\n", p.WorkAuth.WorkAuthorization)

	if len(p.Experience) > 0 {
		out.WriteString("\nExperience:\n")
		for _, e := range p.Experience {
			fmt.Fprintf(&out, "  - %s, %s%s\n", e.Title, e.Company, period(e.StartDate, e.EndDate))
		}
	}
	if len(p.Education) > 0 {
		out.WriteString("\nEducation:\n")
		for _, e := range p.Education {
			fmt.Fprintf(&out, "  - %s, %s%s\n", e.Degree, e.School, period(e.StartDate, e.EndDate))
		}
	}
	if len(p.Skills) > 0 {
		fmt.Fprintf(&out, "\nSkills: %s\n", strings.Join(p.Skills, ", "))
	}
	return out.String(), nil
}

func (f *ProfileTextFormatter) SupportedType() string {
	return "Profile"
}

// ProfileMarkdownFormatter renders a Profile as markdown
type ProfileMarkdownFormatter struct{}

func (f *ProfileMarkdownFormatter) Format(data any) (string, error) {
	p, ok := data.(types.Profile)
	if !ok {
		return "", fmt.Errorf("expected Profile, got %T", data)
	}

	var out strings.Builder
	fmt.Fprintf(&out, "# %s %s\n\n", p.Personal.FirstName, p.Personal.LastName)
	fmt.Fprintf(&out, "- **Email:** %s\n", p.Personal.Email)
	fmt.Fprintf(&out, "- **Phone:** %s\n", p.Personal.Phone)
	fmt.Fprintf(&out, "- **Location:** %s\n", p.Personal.Location)
	writeIfSet(&out, "- **LinkedIn:** %s\n", p.Links.LinkedIn)
	writeIfSet(&out, "- **GitHub:** %s\n", p.Links.GitHub)
	writeIfSet(&out, "- **Portfolio:** %s\n", p.Links.Portfolio)
	fmt.Fprintf(&out, "- **Needs sponsorship:** %s\n", yesNo(p.WorkAuth.NeedSponsorship))

	if len(p.Experience) > 0 {
		out.WriteString("\n## Experience\n\n")
		for _, e := range p.Experience {
			fmt.Fprintf(&out, "- **%s**, %s%s\n", e.Title, e.Company, period(e.StartDate, e.EndDate))
		}
	}
	if len(p.Education) > 0 {
		out.WriteString("\n## Education\n\n")
		for _, e := range p.Education {
			fmt.Fprintf(&out, "- **%s**, %s%s\n", e.Degree, e.School, period(e.StartDate, e.EndDate))
		}
	}
	if len(p.Skills) > 0 {
		out.WriteString("\n## Skills\n\n")
		out.WriteString(strings.Join(p.Skills, ", "))
		out.WriteString("\n")
	}
	return out.String(), nil
}

func (f *ProfileMarkdownFormatter) SupportedType() string {
	return "Profile"
}

func answerList(resp types.AnswerResponse) []types.FieldAnswer {
	if resp.Answers == nil {
		return nil
	}
	return resp.Answers.Values()
}

// compactValue prints string values bare and anything else as JSON
func compactValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func period(start, end string) string {
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return fmt.Sprintf(" (%s - present)", start)
	default:
		return fmt.Sprintf(" (%s - %s)", start, end)
	}
}

func writeIfSet(out *strings.Builder, format, value string) {
	if value != "" {
		fmt.Fprintf(out, format, value)
	}
}
