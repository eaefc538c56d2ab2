package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalysis_Drift(t *testing.T) {
	require.Empty(t, threeWayAnalysis().Drift())
	require.Empty(t, refusalAnalysis().Drift())
	require.True(t, refusalAnalysis().IsRefusal())
	require.False(t, threeWayAnalysis().IsRefusal())

	short := threeWayAnalysis()
	short.Differentials = short.Differentials[:2]
	require.ElementsMatch(t, []DriftKind{DriftDifferentialCount, DriftProbabilitySum}, short.Drift())

	skewed := threeWayAnalysis()
	skewed.Differentials[0].ProbabilityPercent = 60
	require.Equal(t, []DriftKind{DriftProbabilitySum}, skewed.Drift())

	rounded := threeWayAnalysis()
	rounded.Differentials[0].ProbabilityPercent = 50.3
	require.Empty(t, rounded.Drift())

	noQuestions := threeWayAnalysis()
	noQuestions.ClarifyingQuestions = nil
	require.Equal(t, []DriftKind{DriftQuestionCount}, noQuestions.Drift())

	reworded := refusalAnalysis()
	reworded.Disclaimer = "Not advice."
	require.Equal(t, []DriftKind{DriftDisclaimer}, reworded.Drift())
}

func TestDifferentialItem_DiagnosisName(t *testing.T) {
	require.Equal(t, "none", DifferentialItem{}.DiagnosisName())
	require.Equal(t, "Influenza", DifferentialItem{Diagnosis: strPtr("Influenza")}.DiagnosisName())
}

func TestClinicalContext_FieldsRenderUnset(t *testing.T) {
	fields := ClinicalContext{Age: intPtr(34), Sex: strPtr(" Female ")}.Fields()
	require.Len(t, fields, 12)
	require.Equal(t, ContextField{Name: "age", Value: "34", Set: true}, fields[0])
	require.Equal(t, ContextField{Name: "sex", Value: "Female", Set: true}, fields[1])
	for _, f := range fields[2:] {
		require.False(t, f.Set, f.Name)
		require.Equal(t, UnsetValue, f.Value, f.Name)
	}
	require.Equal(t, "noticed", fields[11].Name)
}

func TestClinicalContext_Normalize(t *testing.T) {
	in := ClinicalContext{Age: intPtr(0), Duration: strPtr("  "), Allergies: strPtr(" penicillin ")}
	out := in.Normalize()
	require.Nil(t, out.Age)
	require.Nil(t, out.Duration)
	require.Equal(t, "penicillin", *out.Allergies)
	require.Equal(t, " penicillin ", *in.Allergies)
}

func TestClinicalContext_Validate(t *testing.T) {
	require.NoError(t, ClinicalContext{}.Validate())
	require.NoError(t, ClinicalContext{Age: intPtr(120), Sex: strPtr("Prefer not to say"), Onset: strPtr("SUDDEN")}.Validate())

	err := ClinicalContext{Age: intPtr(121)}.Validate()
	require.ErrorContains(t, err, "age")

	err = ClinicalContext{Fever: strPtr("maybe")}.Validate()
	require.ErrorContains(t, err, "fever must be one of")

	err = ClinicalContext{Smoking: strPtr("daily")}.Validate()
	require.ErrorContains(t, err, "smoking")
}
