package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"triage-assistant/internal/domain"
)

func buildAnalysisMessages(symptoms string, ctx domain.ClinicalContext) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: buildSystemPrompt()},
		{Role: domain.RoleUser, Content: buildAnalysisContent(symptoms, ctx)},
	}
}

// buildFollowUpMessages produces a single self-contained user turn. The
// oracle keeps no thread between calls, so the whole history travels inline
// and no system instruction is re-issued.
func buildFollowUpMessages(input string, history []domain.SessionRecord, exchanges []domain.Exchange) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleUser, Content: buildFollowUpContent(input, history, exchanges)},
	}
}

func buildSystemPrompt() string {
	return strings.Join([]string{
		"Role:",
		"You are a cautious clinical triage assistant.",
		"You must NOT provide a medical diagnosis.",
		"",
		"Task:",
		"Given the symptoms and clinical context, return the TOP 3 likely DIFFERENTIAL diagnoses as JSON.",
		"",
		"Behavior Rules:",
		behaviorRules(),
		"",
		"Output Contract:",
		outputContract(),
		"",
		"Refusal Contract:",
		refusalContract(),
	}, "\n")
}

func behaviorRules() string {
	return strings.Join([]string{
		"1) Be concise and evidence-based; assume the adult general population unless the context says otherwise.",
		"2) Give each diagnosis a calibrated probability percentage; the percentages must sum to 100.",
		"3) Add a one-sentence rationale per diagnosis.",
		"4) Add a short red_flags note advising urgent care if any red flags are present.",
		"5) Never claim certainty. Never give treatment plans or drug dosing.",
		"6) Suggest exactly three natural follow-up questions the patient might want to ask the assistant, such as \"What does this mean for me?\" or \"What should I ask my doctor next?\". Do NOT suggest questions a doctor would ask the patient.",
		"7) Treat context fields marked \"" + domain.UnsetValue + "\" as unknown; do not assume a value for them.",
		fmt.Sprintf("8) Always set disclaimer to exactly %q.", domain.Disclaimer),
	}, "\n")
}

func outputContract() string {
	return "Return JSON only with keys differentials (array of 3 objects with diagnosis (string), " +
		"probability_percent (number) and rationale (string)), clarifying_questions (array of 3 strings), " +
		"red_flags (string) and disclaimer (string)."
}

func refusalContract() string {
	return fmt.Sprintf("If the user input does not describe symptoms, return differentials with one item "+
		"{\"diagnosis\": null, \"probability_percent\": 0, \"rationale\": %q}, "+
		"clarifying_questions = [], red_flags = null and the same disclaimer.", domain.RefusalRationale)
}

func buildAnalysisContent(symptoms string, ctx domain.ClinicalContext) string {
	var b strings.Builder
	b.WriteString("Symptoms:\n")
	b.WriteString(normalizePromptInput(symptoms))
	b.WriteString("\n\nClinical Context:")
	for _, f := range ctx.Fields() {
		fmt.Fprintf(&b, "\n- %s: %s", f.Name, normalizePromptInput(f.Value))
	}
	return b.String()
}

func buildFollowUpContent(input string, history []domain.SessionRecord, exchanges []domain.Exchange) string {
	var b strings.Builder
	b.WriteString("User input:\n")
	b.WriteString(strings.TrimSpace(input))
	b.WriteString("\n\nPrior differential analyses for reference:\n")
	b.WriteString(encodeForPrompt(promptRecords(history)))
	b.WriteString("\n\nChat history:")
	if len(exchanges) == 0 {
		b.WriteString("\n(none)")
	}
	for _, ex := range exchanges {
		fmt.Fprintf(&b, "\nUser: %s\nAssistant: %s", strings.TrimSpace(ex.Question), strings.TrimSpace(ex.Answer))
	}
	return b.String()
}

// promptRecord is a SessionRecord as the oracle sees it. Every context field
// is present, with unset ones carrying the unset marker.
type promptRecord struct {
	Symptoms string            `json:"symptoms"`
	Context  map[string]string `json:"context"`
	Response domain.Analysis   `json:"response"`
}

func promptRecords(history []domain.SessionRecord) []promptRecord {
	out := make([]promptRecord, len(history))
	for i, rec := range history {
		fields := rec.Context.Fields()
		ctx := make(map[string]string, len(fields))
		for _, f := range fields {
			ctx[f.Name] = f.Value
		}
		out[i] = promptRecord{Symptoms: rec.Symptoms, Context: ctx, Response: rec.Response}
	}
	return out
}

// encodeForPrompt renders typed records as JSON. Records are built from
// strings, numbers and slices only, so marshalling cannot fail.
func encodeForPrompt(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func normalizePromptInput(s string) string {
	return strings.Join(strings.Fields(strings.TrimSpace(s)), " ")
}
