package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"triage-assistant/internal/domain"
)

const (
	maxDifferentials = 3
	maxQuestions     = 3
)

// analysisWire is the untyped edge of the oracle contract. Pointers tell a
// missing key apart from a zero value.
type analysisWire struct {
	Differentials       *[]differentialWire `json:"differentials"`
	ClarifyingQuestions *[]string           `json:"clarifying_questions"`
	RedFlags            *string             `json:"red_flags"`
	Disclaimer          *string             `json:"disclaimer"`
}

type differentialWire struct {
	Diagnosis          *string  `json:"diagnosis"`
	ProbabilityPercent *float64 `json:"probability_percent"`
	Rationale          *string  `json:"rationale"`
}

// parseAnalysis decodes oracle text into an Analysis. It enforces shape only:
// fewer than three items or probabilities that miss 100 still parse and are
// reported through Analysis.Drift.
func parseAnalysis(raw string) (domain.Analysis, error) {
	a, err := decodeAnalysis(stripCodeFence(raw))
	if err != nil {
		return domain.Analysis{}, &ParseError{Raw: raw, Err: err}
	}
	return a, nil
}

func decodeAnalysis(text string) (domain.Analysis, error) {
	var w analysisWire
	dec := json.NewDecoder(bytes.NewBufferString(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&w); err != nil {
		return domain.Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return domain.Analysis{}, errors.New("decode analysis: multiple JSON values")
		}
		return domain.Analysis{}, fmt.Errorf("decode analysis trailing data: %w", err)
	}

	switch {
	case w.Differentials == nil:
		return domain.Analysis{}, errors.New("missing differentials")
	case w.ClarifyingQuestions == nil:
		return domain.Analysis{}, errors.New("missing clarifying_questions")
	case w.Disclaimer == nil:
		return domain.Analysis{}, errors.New("missing disclaimer")
	}
	if n := len(*w.Differentials); n == 0 || n > maxDifferentials {
		return domain.Analysis{}, fmt.Errorf("differentials: got %d items, want 1 to %d", n, maxDifferentials)
	}
	if n := len(*w.ClarifyingQuestions); n > maxQuestions {
		return domain.Analysis{}, fmt.Errorf("clarifying_questions: got %d items, want at most %d", n, maxQuestions)
	}

	out := domain.Analysis{
		Differentials:       make([]domain.DifferentialItem, 0, len(*w.Differentials)),
		ClarifyingQuestions: append([]string{}, *w.ClarifyingQuestions...),
		RedFlags:            w.RedFlags,
		Disclaimer:          *w.Disclaimer,
	}
	for i, d := range *w.Differentials {
		item, err := d.toDomain()
		if err != nil {
			return domain.Analysis{}, fmt.Errorf("differentials[%d]: %w", i, err)
		}
		out.Differentials = append(out.Differentials, item)
	}
	return out, nil
}

func (d differentialWire) toDomain() (domain.DifferentialItem, error) {
	if d.ProbabilityPercent == nil {
		return domain.DifferentialItem{}, errors.New("missing probability_percent")
	}
	if p := *d.ProbabilityPercent; p < 0 || p > 100 {
		return domain.DifferentialItem{}, fmt.Errorf("probability_percent %v outside 0-100", p)
	}
	if d.Rationale == nil {
		return domain.DifferentialItem{}, errors.New("missing rationale")
	}
	return domain.DifferentialItem{
		Diagnosis:          d.Diagnosis,
		ProbabilityPercent: *d.ProbabilityPercent,
		Rationale:          *d.Rationale,
	}, nil
}

// stripCodeFence removes a single markdown fence some models wrap JSON in.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.Contains(s[:nl], "{") {
		s = s[nl+1:]
	}
	return strings.TrimSpace(s)
}
