package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"triage-assistant/internal/domain"
	"triage-assistant/internal/usecase"
)

const (
	formatHuman = "human"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// analysisOutput is the machine-readable form of one analysis.
type analysisOutput struct {
	Symptoms string                 `json:"symptoms" yaml:"symptoms"`
	Context  domain.ClinicalContext `json:"context" yaml:"context"`
	Analysis domain.Analysis        `json:"analysis" yaml:"analysis"`
	Drift    []domain.DriftKind     `json:"drift" yaml:"drift"`
}

func validFormat(format string) error {
	switch format {
	case formatHuman, formatJSON, formatYAML:
		return nil
	}
	return fmt.Errorf("cli: unknown output format %q (want human, json or yaml)", format)
}

func writeOutput(w io.Writer, format string, sess domain.Session) error {
	history := sess.History()
	if len(history) == 0 {
		return errors.New("cli: no analysis to display")
	}
	last := history[len(history)-1]
	out := analysisOutput{
		Symptoms: last.Symptoms,
		Context:  last.Context,
		Analysis: last.Response,
		Drift:    last.Response.Drift(),
	}
	if out.Drift == nil {
		out.Drift = []domain.DriftKind{}
	}

	switch format {
	case formatJSON:
		raw, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("cli: encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(raw))
		return err
	case formatYAML:
		raw, err := yaml.Marshal(out)
		if err != nil {
			return fmt.Errorf("cli: encode yaml: %w", err)
		}
		_, err = w.Write(raw)
		return err
	default:
		renderAnalysis(w, out.Analysis)
		renderSuggestions(w, sess.SuggestedQuestions())
		return nil
	}
}

func renderAnalysis(w io.Writer, a domain.Analysis) {
	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	faint := color.New(color.Faint)

	fmt.Fprintln(w)
	if a.IsRefusal() {
		color.New(color.FgYellow).Fprintln(w, a.Differentials[0].Rationale)
		fmt.Fprintln(w)
		faint.Fprintln(w, a.Disclaimer)
		return
	}

	cyan.Fprintln(w, "Possible explanations:")
	for i, d := range a.Differentials {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, d.DiagnosisName(), probabilityColor(d.ProbabilityPercent).Sprintf("(%.0f%%)", d.ProbabilityPercent))
		if d.Rationale != "" {
			fmt.Fprintf(w, "     %s\n", d.Rationale)
		}
	}
	fmt.Fprintln(w)

	if a.RedFlags != nil && strings.TrimSpace(*a.RedFlags) != "" {
		red.Fprintln(w, "Seek care urgently if:")
		fmt.Fprintf(w, "  %s\n\n", *a.RedFlags)
	}

	if drift := a.Drift(); len(drift) > 0 {
		kinds := make([]string, len(drift))
		for i, k := range drift {
			kinds[i] = string(k)
		}
		faint.Fprintf(w, "note: reply did not fully match the expected format (%s)\n\n", strings.Join(kinds, ", "))
	}
	faint.Fprintln(w, a.Disclaimer)
}

func renderSuggestions(w io.Writer, questions []string) {
	if len(questions) == 0 {
		return
	}
	fmt.Fprintln(w)
	color.New(color.FgGreen, color.Bold).Fprintln(w, "You could ask:")
	for i, q := range questions {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, q)
	}
}

func renderAnswer(w io.Writer, ex domain.Exchange) {
	fmt.Fprintln(w)
	color.New(color.FgCyan).Fprintln(w, ex.Answer)
}

func probabilityColor(p float64) *color.Color {
	switch {
	case p >= 50:
		return color.New(color.FgRed)
	case p >= 25:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

// describeError turns a failed operation into a message for the terminal.
func describeError(err error) string {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		return "Something went wrong: " + err.Error()
	}
	switch ue.Code {
	case usecase.ErrorTransport:
		if ue.Reason == "oracle_timeout" {
			return "The model did not answer in time. Please try again."
		}
		return "The model could not be reached. Please try again."
	case usecase.ErrorParse:
		return "The model's reply could not be read. Please try again."
	case usecase.ErrorInvalidInput:
		switch ue.Reason {
		case "input_too_long":
			return "That input is too long. Please shorten it."
		case "empty_question":
			return "Please type a question."
		case "invalid_context":
			if ue.Err != nil {
				return "The clinical context is invalid: " + ue.Err.Error()
			}
			return "The clinical context is invalid."
		}
	case usecase.ErrorInvalidState:
		return "Describe your symptoms first."
	}
	return "Something went wrong: " + err.Error()
}
