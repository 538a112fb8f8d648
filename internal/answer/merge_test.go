package answer

import (
	"testing"

	"jobcopilot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ans(id, value string, confidence float64, source string) types.FieldAnswer {
	return types.FieldAnswer{FieldID: id, Value: types.StringValue(value), Confidence: confidence, Source: source}
}

func TestMerge(t *testing.T) {
	fields := []types.FieldQuestion{{FieldID: "f1"}, {FieldID: "f2"}, {FieldID: "f3"}}

	tests := []struct {
		name      string
		heuristic []types.FieldAnswer
		llm       []types.FieldAnswer
		wantKeys  []string
		wantValue map[string]string
	}{
		{
			name:      "lower llm confidence keeps heuristic",
			heuristic: []types.FieldAnswer{ans("f1", "Yes", 0.82, types.SourceProfile)},
			llm:       []types.FieldAnswer{ans("f1", "No", 0.6, types.SourceInferred)},
			wantKeys:  []string{"f1"},
			wantValue: map[string]string{"f1": "Yes"},
		},
		{
			name:      "equal confidence favors llm",
			heuristic: []types.FieldAnswer{ans("f1", "Yes", 0.82, types.SourceProfile)},
			llm:       []types.FieldAnswer{ans("f1", "No", 0.82, types.SourceInferred)},
			wantKeys:  []string{"f1"},
			wantValue: map[string]string{"f1": "No"},
		},
		{
			name:      "llm fills gaps after heuristic entries",
			heuristic: []types.FieldAnswer{ans("f2", "b", 0.9, types.SourceProfile)},
			llm:       []types.FieldAnswer{ans("f3", "c", 0.1, types.SourceResume), ans("f1", "a", 0.5, types.SourceResume)},
			wantKeys:  []string{"f2", "f3", "f1"},
			wantValue: map[string]string{"f1": "a", "f2": "b", "f3": "c"},
		},
		{
			name:      "unknown field ids dropped",
			heuristic: []types.FieldAnswer{ans("nope", "x", 0.9, types.SourceProfile)},
			llm:       []types.FieldAnswer{ans("ghost", "y", 1, types.SourceInferred)},
			wantKeys:  nil,
		},
		{
			name:      "later llm answer for same field overwrites on tie",
			llm:       []types.FieldAnswer{ans("f1", "first", 0.7, types.SourceInferred), ans("f1", "second", 0.7, types.SourceInferred)},
			wantKeys:  []string{"f1"},
			wantValue: map[string]string{"f1": "second"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(fields, tt.heuristic, tt.llm)
			assert.Equal(t, tt.wantKeys, got.Keys())
			for id, v := range tt.wantValue {
				a, ok := got.Get(id)
				require.True(t, ok)
				assert.JSONEq(t, `"`+v+`"`, string(a.Value))
			}
		})
	}
}

func TestMerge_ClampsAndIsDeterministic(t *testing.T) {
	fields := []types.FieldQuestion{{FieldID: "a"}, {FieldID: "b"}}
	llm := []types.FieldAnswer{ans("a", "x", 1.5, types.SourceInferred), ans("b", "y", -0.3, types.SourceInferred)}

	first := Merge(fields, nil, llm)
	second := Merge(fields, nil, llm)
	assert.Equal(t, first.Values(), second.Values())

	a, _ := first.Get("a")
	b, _ := first.Get("b")
	assert.Equal(t, 1.0, a.Confidence)
	assert.Equal(t, 0.0, b.Confidence)

	assert.Equal(t, map[string]int{types.SourceInferred: 2}, CountBySource(first))
}
