package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"triage-assistant/internal/domain"
)

func TestBuildSystemPrompt_IncludesRules(t *testing.T) {
	content := buildSystemPrompt()
	require.Contains(t, content, "Role:")
	require.Contains(t, content, "must NOT provide a medical diagnosis")
	require.Contains(t, content, "Behavior Rules:")
	require.Contains(t, content, "sum to 100")
	require.Contains(t, content, "one-sentence rationale")
	require.Contains(t, content, "exactly three natural follow-up questions")
	require.Contains(t, content, domain.Disclaimer)
	require.Contains(t, content, "Output Contract:")
	require.Contains(t, content, "Refusal Contract:")
	require.Contains(t, content, domain.RefusalRationale)
}

func TestBuildAnalysisMessages_SystemThenUser(t *testing.T) {
	sex := "Female"
	msgs := buildAnalysisMessages("fever,\n  cough", domain.ClinicalContext{Age: intPtr(34), Sex: &sex})
	require.Len(t, msgs, 2)
	require.Equal(t, domain.RoleSystem, msgs[0].Role)
	require.Equal(t, buildSystemPrompt(), msgs[0].Content)
	require.Equal(t, domain.RoleUser, msgs[1].Role)

	user := msgs[1].Content
	require.Contains(t, user, "Symptoms:\nfever, cough")
	require.Contains(t, user, "- age: 34")
	require.Contains(t, user, "- sex: Female")
	require.Contains(t, user, "- pregnancy: unset")
	require.Equal(t, 10, strings.Count(user, ": unset"))
}

func TestBuildFollowUpMessages_NoSystemInstruction(t *testing.T) {
	history := []domain.SessionRecord{{Symptoms: "fever", Response: domain.Analysis{Disclaimer: domain.Disclaimer}}}
	msgs := buildFollowUpMessages("  What now? ", history, nil)
	require.Len(t, msgs, 1)
	require.Equal(t, domain.RoleUser, msgs[0].Role)
	require.True(t, strings.HasPrefix(msgs[0].Content, "User input:\nWhat now?"))
	require.Contains(t, msgs[0].Content, `"symptoms":"fever"`)
	require.Contains(t, msgs[0].Content, "Chat history:\n(none)")
}

func TestBuildFollowUpMessages_HistoryMarksUnsetContext(t *testing.T) {
	age := 34
	history := []domain.SessionRecord{{
		Symptoms: "fever",
		Context:  domain.ClinicalContext{Age: &age},
		Response: domain.Analysis{Disclaimer: domain.Disclaimer},
	}}
	content := buildFollowUpMessages("What now?", history, nil)[0].Content

	require.Contains(t, content, `"age":"34"`)
	for _, name := range []string{"sex", "duration", "onset", "fever", "pregnancy", "comorbidities", "medications", "allergies", "smoking", "travel", "noticed"} {
		require.Contains(t, content, `"`+name+`":"unset"`)
	}
}
