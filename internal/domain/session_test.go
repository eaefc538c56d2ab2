package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int        { return &n }

func threeWayAnalysis() Analysis {
	return Analysis{
		Differentials: []DifferentialItem{
			{Diagnosis: strPtr("Viral upper respiratory infection"), ProbabilityPercent: 50, Rationale: "Common with fever and cough."},
			{Diagnosis: strPtr("Community-acquired pneumonia"), ProbabilityPercent: 30, Rationale: "Shortness of breath raises concern."},
			{Diagnosis: strPtr("Influenza"), ProbabilityPercent: 20, Rationale: "Seasonal pattern fits."},
		},
		ClarifyingQuestions: []string{"What does this mean for me?", "Should I be worried?", "What should I ask my doctor?"},
		RedFlags:            strPtr("Seek urgent care for chest pain or confusion."),
		Disclaimer:          Disclaimer,
	}
}

func refusalAnalysis() Analysis {
	return Analysis{
		Differentials:       []DifferentialItem{{Rationale: RefusalRationale}},
		ClarifyingQuestions: []string{},
		Disclaimer:          Disclaimer,
	}
}

func TestSession_StartsEmpty(t *testing.T) {
	var s Session
	require.Equal(t, StateEmpty, s.State())
	_, ok := s.Analysis()
	require.False(t, ok)
	require.Empty(t, s.History())
	require.Nil(t, s.SuggestedQuestions())
}

func TestSession_WithAnalysis_MovesToAnalyzed(t *testing.T) {
	var s Session
	next := s.WithAnalysis(SessionRecord{Symptoms: "fever", Context: ClinicalContext{Age: intPtr(34)}, Response: threeWayAnalysis()})

	require.Equal(t, StateEmpty, s.State(), "receiver must not change")
	require.Equal(t, StateAnalyzed, next.State())
	require.Len(t, next.History(), 1)
	require.Equal(t, threeWayAnalysis().ClarifyingQuestions, next.SuggestedQuestions())
}

func TestSession_WithExchange_RequiresAnalysis(t *testing.T) {
	var s Session
	_, err := s.WithExchange(Exchange{Question: "q", Answer: "a"})
	require.ErrorIs(t, err, ErrNoAnalysis)
}

func TestSession_WithExchange_WithdrawsSuggestions(t *testing.T) {
	s := Session{}.WithAnalysis(SessionRecord{Symptoms: "fever", Response: threeWayAnalysis()})

	next, err := s.WithExchange(Exchange{Question: "What does this mean for me?", Answer: "It may be viral."})
	require.NoError(t, err)
	require.Equal(t, StateConversing, next.State())
	require.Nil(t, next.SuggestedQuestions())
	require.Len(t, next.Exchanges(), 1)

	require.Equal(t, StateAnalyzed, s.State())
	require.Empty(t, s.Exchanges())
}

func TestSession_NewAnalysisClearsExchangesAndKeepsHistory(t *testing.T) {
	s := Session{}.WithAnalysis(SessionRecord{Symptoms: "fever", Response: threeWayAnalysis()})
	s, err := s.WithExchange(Exchange{Question: "q1", Answer: "a1"})
	require.NoError(t, err)
	s, err = s.WithExchange(Exchange{Question: "q2", Answer: "a2"})
	require.NoError(t, err)
	require.Len(t, s.Exchanges(), 2)

	s = s.WithAnalysis(SessionRecord{Symptoms: "headache", Response: threeWayAnalysis()})
	require.Equal(t, StateAnalyzed, s.State())
	require.Empty(t, s.Exchanges())
	require.Len(t, s.History(), 2)
	require.Equal(t, "fever", s.History()[0].Symptoms)
	require.Equal(t, "headache", s.History()[1].Symptoms)
}

func TestSession_AccessorsReturnCopies(t *testing.T) {
	s := Session{}.WithAnalysis(SessionRecord{Symptoms: "fever", Response: threeWayAnalysis()})

	a, ok := s.Analysis()
	require.True(t, ok)
	a.ClarifyingQuestions[0] = "mutated"
	*a.Differentials[0].Diagnosis = "mutated"

	again, _ := s.Analysis()
	require.Equal(t, "What does this mean for me?", again.ClarifyingQuestions[0])
	require.Equal(t, "Viral upper respiratory infection", again.Differentials[0].DiagnosisName())

	suggestions := s.SuggestedQuestions()
	suggestions[0] = "mutated"
	require.Equal(t, "What does this mean for me?", s.SuggestedQuestions()[0])
}

func TestSession_SuggestionsEmptyForRefusal(t *testing.T) {
	s := Session{}.WithAnalysis(SessionRecord{Symptoms: "", Response: refusalAnalysis()})
	require.Equal(t, StateAnalyzed, s.State())
	require.Nil(t, s.SuggestedQuestions())
}

func TestSession_BranchesDoNotShareExchanges(t *testing.T) {
	base := Session{}.WithAnalysis(SessionRecord{Symptoms: "fever", Response: threeWayAnalysis()})
	base, err := base.WithExchange(Exchange{Question: "q1", Answer: "a1"})
	require.NoError(t, err)

	left, err := base.WithExchange(Exchange{Question: "left", Answer: "l"})
	require.NoError(t, err)
	right, err := base.WithExchange(Exchange{Question: "right", Answer: "r"})
	require.NoError(t, err)

	require.Equal(t, "left", left.Exchanges()[1].Question)
	require.Equal(t, "right", right.Exchanges()[1].Question)
	require.Len(t, base.Exchanges(), 1)
}
