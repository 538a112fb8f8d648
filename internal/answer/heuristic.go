package answer

import (
	"strings"

	"jobcopilot/internal/types"
)

// Heuristic confidences
const (
	confidenceSponsorship  = 0.82
	confidenceWorkAuth     = 0.78
	confidenceLink         = 0.9
	confidenceLocationText = 0.9
	confidenceLocationPick = 0.82
)

// intent is one known label pattern. preferred returns the candidate terms
// in order of preference and the profile field they came from; an empty
// first term means the profile has nothing to offer.
type intent struct {
	name       string
	matches    func(label string) bool
	preferred  func(p types.Profile) ([]string, string)
	confidence func(pickedOption bool) float64
}

// hasAny reports whether the normalized label contains any needle as whole
// words. A needle may be a single word or a space separated phrase.
func hasAny(label string, needles ...string) bool {
	padded := " " + label + " "
	for _, n := range needles {
		if strings.Contains(padded, " "+n+" ") {
			return true
		}
	}
	return false
}

func fixed(c float64) func(bool) float64 {
	return func(bool) float64 { return c }
}

// intents are checked in order; the first match wins.
var intents = []intent{
	{
		name:    "sponsorship",
		matches: func(l string) bool {
			return hasAny(l, "sponsor", "sponsors", "sponsored", "sponsoring", "sponsorship")
		},
		preferred: func(p types.Profile) ([]string, string) {
			if p.WorkAuth.NeedSponsorship {
				return []string{"Yes"}, "work_auth.need_sponsorship"
			}
			return []string{"No"}, "work_auth.need_sponsorship"
		},
		confidence: fixed(confidenceSponsorship),
	},
	{
		name: "work_authorization",
		matches: func(l string) bool {
			return hasAny(l, "authorized", "authorised", "authorization", "authorisation", "eligible to work") ||
				(hasAny(l, "legally") && hasAny(l, "work"))
		},
		preferred: func(p types.Profile) ([]string, string) {
			return []string{p.WorkAuth.WorkAuthorization, "Yes"}, "work_auth.work_authorization"
		},
		confidence: fixed(confidenceWorkAuth),
	},
	{
		name:    "linkedin",
		matches: func(l string) bool { return hasAny(l, "linkedin") },
		preferred: func(p types.Profile) ([]string, string) {
			return []string{p.Links.LinkedIn}, "links.linkedin"
		},
		confidence: fixed(confidenceLink),
	},
	{
		name:    "github",
		matches: func(l string) bool { return hasAny(l, "github") },
		preferred: func(p types.Profile) ([]string, string) {
			return []string{p.Links.GitHub}, "links.github"
		},
		confidence: fixed(confidenceLink),
	},
	{
		name:    "portfolio",
		matches: func(l string) bool { return hasAny(l, "portfolio", "website", "personal site") },
		preferred: func(p types.Profile) ([]string, string) {
			return []string{p.Links.Portfolio}, "links.portfolio"
		},
		confidence: fixed(confidenceLink),
	},
	{
		name: "location",
		matches: func(l string) bool {
			return hasAny(l, "location", "city", "where are you based", "currently based", "reside")
		},
		preferred: func(p types.Profile) ([]string, string) {
			return []string{p.Personal.Location}, "personal.location"
		},
		confidence: func(picked bool) float64 {
			if picked {
				return confidenceLocationPick
			}
			return confidenceLocationText
		},
	},
}

// HeuristicAnswers maps recognised field labels to profile values. Fields
// with no matching intent, or whose profile value is empty, are omitted.
func HeuristicAnswers(profile types.Profile, fields []types.FieldQuestion) []types.FieldAnswer {
	answers := make([]types.FieldAnswer, 0, len(fields))
	for _, field := range fields {
		label := Normalize(field.Label)
		if label == "" {
			continue
		}
		for _, in := range intents {
			if !in.matches(label) {
				continue
			}
			if a, ok := answerFor(in, profile, field); ok {
				answers = append(answers, a)
			}
			break
		}
	}
	return answers
}

func answerFor(in intent, profile types.Profile, field types.FieldQuestion) (types.FieldAnswer, bool) {
	terms, source := in.preferred(profile)
	if len(terms) == 0 || terms[0] == "" {
		return types.FieldAnswer{}, false
	}

	value := terms[0]
	picked := false
	if len(field.Options) > 0 {
		if opt, ok := MatchOption(field.Options, terms); ok {
			value = opt
			picked = true
		}
	}

	return types.FieldAnswer{
		FieldID:    field.FieldID,
		Value:      types.StringValue(value),
		Confidence: in.confidence(picked),
		Reason:     "Matched " + in.name + " question from " + source,
		Source:     types.SourceProfile,
	}, true
}

// MatchOption returns the first option whose normalized text contains a
// normalized term. Terms are tried in order, options in order within each.
func MatchOption(options, terms []string) (string, bool) {
	for _, term := range terms {
		nt := Normalize(term)
		if nt == "" {
			continue
		}
		for _, opt := range options {
			if strings.Contains(Normalize(opt), nt) {
				return opt, true
			}
		}
	}
	return "", false
}
