package domain

import "math"

// Disclaimer is the fixed text every analysis must carry.
const Disclaimer = "This is not medical advice. Seek professional evaluation."

// RefusalRationale is the rationale the model returns when the input held no symptoms.
const RefusalRationale = "Please provide symptoms for analysis."

const (
	expectedDifferentials = 3
	expectedQuestions     = 3
	probabilityTotal      = 100.0
	probabilityTolerance  = 0.5
)

// DriftKind names a soft contract violation in an otherwise readable analysis.
type DriftKind string

const (
	DriftProbabilitySum    DriftKind = "probability_sum"
	DriftDifferentialCount DriftKind = "differential_count"
	DriftQuestionCount     DriftKind = "question_count"
	DriftDisclaimer        DriftKind = "disclaimer"
)

// DifferentialItem is one candidate explanation. Diagnosis is nil only in the
// refusal shape.
type DifferentialItem struct {
	Diagnosis          *string `json:"diagnosis" yaml:"diagnosis"`
	ProbabilityPercent float64 `json:"probability_percent" yaml:"probability_percent"`
	Rationale          string  `json:"rationale" yaml:"rationale"`
}

// DiagnosisName returns the diagnosis or "none" for the placeholder item.
func (d DifferentialItem) DiagnosisName() string {
	if d.Diagnosis == nil {
		return "none"
	}
	return *d.Diagnosis
}

// Analysis is the typed form of the model's structured reply.
type Analysis struct {
	Differentials       []DifferentialItem `json:"differentials" yaml:"differentials"`
	ClarifyingQuestions []string           `json:"clarifying_questions" yaml:"clarifying_questions"`
	RedFlags            *string            `json:"red_flags" yaml:"red_flags"`
	Disclaimer          string             `json:"disclaimer" yaml:"disclaimer"`
}

// IsRefusal reports whether a is the "no symptoms provided" placeholder.
func (a Analysis) IsRefusal() bool {
	return len(a.Differentials) == 1 &&
		a.Differentials[0].Diagnosis == nil &&
		a.Differentials[0].ProbabilityPercent == 0 &&
		len(a.ClarifyingQuestions) == 0
}

// Drift lists the soft invariants a violates. The model is asked, not forced,
// to return three differentials summing to 100 and three questions, so these
// are reported rather than rejected.
func (a Analysis) Drift() []DriftKind {
	var out []DriftKind
	if !a.IsRefusal() {
		if len(a.Differentials) != expectedDifferentials {
			out = append(out, DriftDifferentialCount)
		}
		if math.Abs(a.ProbabilitySum()-probabilityTotal) > probabilityTolerance {
			out = append(out, DriftProbabilitySum)
		}
		if len(a.ClarifyingQuestions) != expectedQuestions {
			out = append(out, DriftQuestionCount)
		}
	}
	if a.Disclaimer != Disclaimer {
		out = append(out, DriftDisclaimer)
	}
	return out
}

// ProbabilitySum adds up the differential probabilities.
func (a Analysis) ProbabilitySum() float64 {
	var sum float64
	for _, d := range a.Differentials {
		sum += d.ProbabilityPercent
	}
	return sum
}

func (a Analysis) clone() Analysis {
	out := Analysis{
		Differentials:       make([]DifferentialItem, len(a.Differentials)),
		ClarifyingQuestions: make([]string, len(a.ClarifyingQuestions)),
		Disclaimer:          a.Disclaimer,
	}
	for i, d := range a.Differentials {
		if d.Diagnosis != nil {
			name := *d.Diagnosis
			d.Diagnosis = &name
		}
		out.Differentials[i] = d
	}
	copy(out.ClarifyingQuestions, a.ClarifyingQuestions)
	if a.RedFlags != nil {
		flags := *a.RedFlags
		out.RedFlags = &flags
	}
	return out
}
