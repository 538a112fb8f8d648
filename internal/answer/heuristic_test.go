package answer

import (
	"testing"

	"jobcopilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProfile() types.Profile {
	return types.Profile{
		Personal: types.PersonalInfo{
			FirstName: "Ada",
			LastName:  "Lovelace",
			Email:     "ada@example.com",
			Location:  "Berlin, Germany",
		},
		Links: types.Links{
			LinkedIn: "https://linkedin.com/in/x",
			GitHub:   "https://github.com/x",
		},
		WorkAuth: types.WorkAuth{
			NeedSponsorship:   true,
			WorkAuthorization: "EU citizen",
		},
	}
}

func answersByID(answers []types.FieldAnswer) map[string]types.FieldAnswer {
	out := make(map[string]types.FieldAnswer, len(answers))
	for _, a := range answers {
		out[a.FieldID] = a
	}
	return out
}

func TestHeuristicAnswers_Sponsorship(t *testing.T) {
	fields := []types.FieldQuestion{
		{FieldID: "f1", Label: "Will you require visa sponsorship?", Options: []string{"Yes", "No"}},
	}

	got := HeuristicAnswers(testProfile(), fields)
	require.Len(t, got, 1)
	assert.Equal(t, "f1", got[0].FieldID)
	assert.JSONEq(t, `"Yes"`, string(got[0].Value))
	assert.Equal(t, 0.82, got[0].Confidence)
	assert.Equal(t, types.SourceProfile, got[0].Source)

	p := testProfile()
	p.WorkAuth.NeedSponsorship = false
	got = HeuristicAnswers(p, fields)
	require.Len(t, got, 1)
	assert.JSONEq(t, `"No"`, string(got[0].Value))
}

func TestHeuristicAnswers_Links(t *testing.T) {
	fields := []types.FieldQuestion{
		{FieldID: "f2", Label: "LinkedIn URL"},
		{FieldID: "gh", Label: "GitHub profile"},
		{FieldID: "web", Label: "Personal website"},
	}

	got := answersByID(HeuristicAnswers(testProfile(), fields))
	require.Contains(t, got, "f2")
	assert.JSONEq(t, `"https://linkedin.com/in/x"`, string(got["f2"].Value))
	assert.Equal(t, 0.9, got["f2"].Confidence)
	assert.JSONEq(t, `"https://github.com/x"`, string(got["gh"].Value))
	assert.NotContains(t, got, "web", "empty portfolio must be omitted")
}

func TestHeuristicAnswers_WorkAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		options []string
		want    string
	}{
		{"free text", "Are you legally able to work here?", nil, "EU citizen"},
		{"authorization option", "Work authorization status", []string{"US citizen", "EU Citizen (no visa needed)"}, "EU Citizen (no visa needed)"},
		{"yes fallback", "Are you authorized to work in the EU?", []string{"Yes", "No"}, "Yes"},
		{"no option match", "Eligible to work?", []string{"Maybe", "Unsure"}, "EU citizen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HeuristicAnswers(testProfile(), []types.FieldQuestion{
				{FieldID: "w", Label: tt.label, Options: tt.options},
			})
			require.Len(t, got, 1)
			assert.JSONEq(t, `"`+tt.want+`"`, string(got[0].Value))
			assert.Equal(t, 0.78, got[0].Confidence)
		})
	}
}

func TestHeuristicAnswers_Location(t *testing.T) {
	got := HeuristicAnswers(testProfile(), []types.FieldQuestion{
		{FieldID: "free", Label: "Current city"},
		{FieldID: "pick", Label: "Where are you based?", Options: []string{"Paris, France", "Berlin, Germany"}},
		{FieldID: "miss", Label: "Location", Options: []string{"Remote"}},
	})
	byID := answersByID(got)

	assert.Equal(t, 0.9, byID["free"].Confidence)
	assert.JSONEq(t, `"Berlin, Germany"`, string(byID["pick"].Value))
	assert.Equal(t, 0.82, byID["pick"].Confidence)
	assert.JSONEq(t, `"Berlin, Germany"`, string(byID["miss"].Value))
	assert.Equal(t, 0.9, byID["miss"].Confidence)
}

func TestHeuristicAnswers_FirstIntentWins(t *testing.T) {
	got := HeuristicAnswers(testProfile(), []types.FieldQuestion{
		{FieldID: "both", Label: "LinkedIn/Portfolio"},
		{FieldID: "sponsor-auth", Label: "Are you authorized to work without sponsorship?", Options: []string{"Yes", "No"}},
	})
	byID := answersByID(got)

	assert.JSONEq(t, `"https://linkedin.com/in/x"`, string(byID["both"].Value))
	assert.Equal(t, 0.82, byID["sponsor-auth"].Confidence)
	assert.JSONEq(t, `"Yes"`, string(byID["sponsor-auth"].Value))
}

func TestHeuristicAnswers_OmitsUnknownAndEmpty(t *testing.T) {
	p := testProfile()
	p.Personal.Location = ""

	got := HeuristicAnswers(p, []types.FieldQuestion{
		{FieldID: "salary", Label: "Desired salary"},
		{FieldID: "loc", Label: "Location"},
		{FieldID: "blank", Label: ""},
	})
	assert.Empty(t, got)
}

func TestHeuristicAnswers_MatchesWholeWordsOnly(t *testing.T) {
	labels := []string{
		"What is your ethnicity?",
		"Are you a US resident?",
		"Describe your capacity to travel",
		"Have you worked with a team velocity target?",
		"Name a president you admire",
		"Have you ever taken unauthorized leave?",
		"Link to your websites list",
	}
	for _, label := range labels {
		t.Run(label, func(t *testing.T) {
			got := HeuristicAnswers(testProfile(), []types.FieldQuestion{{FieldID: "f", Label: label}})
			assert.Empty(t, got)
		})
	}
}

func TestHeuristicAnswers_PhraseAndWordForms(t *testing.T) {
	got := HeuristicAnswers(testProfile(), []types.FieldQuestion{
		{FieldID: "city", Label: "City / Town"},
		{FieldID: "sponsored", Label: "Will you need to be sponsored?", Options: []string{"Yes", "No"}},
		{FieldID: "based", Label: "Where are you currently based?"},
	})
	byID := answersByID(got)

	assert.JSONEq(t, `"Berlin, Germany"`, string(byID["city"].Value))
	assert.JSONEq(t, `"Yes"`, string(byID["sponsored"].Value))
	assert.Equal(t, 0.82, byID["sponsored"].Confidence)
	assert.JSONEq(t, `"Berlin, Germany"`, string(byID["based"].Value))
}

func TestMatchOption_TermsOuterOptionsInner(t *testing.T) {
	opt, ok := MatchOption([]string{"Yes, I am", "EU citizen"}, []string{"EU citizen", "Yes"})
	require.True(t, ok)
	assert.Equal(t, "EU citizen", opt)

	opt, ok = MatchOption([]string{"No", "Yes"}, []string{"", "yes"})
	require.True(t, ok)
	assert.Equal(t, "Yes", opt)

	_, ok = MatchOption([]string{"No"}, []string{"Yes"})
	assert.False(t, ok)
}
