package answer

import "jobcopilot/internal/types"

// Merge seeds the result with heuristic answers, then lets each LLM answer
// overwrite its field when nothing is there yet or its confidence is greater
// than or equal to the existing one. Answers for field ids that are not in
// fields are dropped.
func Merge(fields []types.FieldQuestion, heuristic, llm []types.FieldAnswer) *types.OrderedAnswers {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f.FieldID] = struct{}{}
	}

	merged := types.NewOrderedAnswers()
	for _, a := range heuristic {
		if _, ok := known[a.FieldID]; !ok {
			continue
		}
		a.Confidence = types.ClampConfidence(a.Confidence)
		merged.Set(a)
	}

	for _, a := range llm {
		if _, ok := known[a.FieldID]; !ok {
			continue
		}
		a.Confidence = types.ClampConfidence(a.Confidence)
		existing, ok := merged.Get(a.FieldID)
		if !ok || a.Confidence >= existing.Confidence {
			merged.Set(a)
		}
	}
	return merged
}

// CountBySource tallies the winning answers per source
func CountBySource(answers *types.OrderedAnswers) map[string]int {
	counts := make(map[string]int)
	for _, a := range answers.Values() {
		counts[a.Source]++
	}
	return counts
}
