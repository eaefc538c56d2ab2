package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"triage-assistant/internal/domain"
)

// contextFlags collects clinical context from an optional YAML file and
// individual flags. Flags override the file.
type contextFlags struct {
	file string

	age  int
	text map[string]*string
}

var contextFlagNames = []struct {
	name  string
	usage string
}{
	{"sex", "male, female, other or prefer not to say"},
	{"duration", "how long the symptoms have lasted"},
	{"onset", "sudden or gradual"},
	{"fever", "yes, no or unknown"},
	{"pregnancy", "pregnant, not pregnant or unknown"},
	{"comorbidities", "known conditions"},
	{"medications", "current medications"},
	{"allergies", "known allergies"},
	{"smoking", "never, former or current"},
	{"travel", "recent travel"},
	{"noticed", "anything else noticed"},
}

func bindContextFlags(cmd *cobra.Command) *contextFlags {
	cf := &contextFlags{text: make(map[string]*string, len(contextFlagNames))}
	cmd.Flags().StringVar(&cf.file, "context", "", "YAML file with clinical context")
	cmd.Flags().IntVar(&cf.age, "age", 0, "age in years (0 leaves it unset)")
	for _, f := range contextFlagNames {
		v := new(string)
		cmd.Flags().StringVar(v, f.name, "", f.usage)
		cf.text[f.name] = v
	}
	return cf
}

func (cf *contextFlags) resolve(cmd *cobra.Command) (domain.ClinicalContext, error) {
	var cc domain.ClinicalContext
	if cf.file != "" {
		raw, err := os.ReadFile(cf.file)
		if err != nil {
			return cc, fmt.Errorf("cli: read context file: %w", err)
		}
		if cc, err = decodeContextYAML(raw); err != nil {
			return cc, err
		}
	}

	if cmd.Flags().Changed("age") {
		age := cf.age
		cc.Age = &age
	}
	targets := map[string]**string{
		"sex":           &cc.Sex,
		"duration":      &cc.Duration,
		"onset":         &cc.Onset,
		"fever":         &cc.Fever,
		"pregnancy":     &cc.Pregnancy,
		"comorbidities": &cc.Comorbidities,
		"medications":   &cc.Medications,
		"allergies":     &cc.Allergies,
		"smoking":       &cc.Smoking,
		"travel":        &cc.Travel,
		"noticed":       &cc.Noticed,
	}
	for name, dst := range targets {
		if !cmd.Flags().Changed(name) {
			continue
		}
		v := *cf.text[name]
		*dst = &v
	}
	return cc, nil
}

func decodeContextYAML(raw []byte) (domain.ClinicalContext, error) {
	var cc domain.ClinicalContext
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cc); err != nil && !errors.Is(err, io.EOF) {
		return domain.ClinicalContext{}, fmt.Errorf("cli: decode context file: %w", err)
	}
	return cc, nil
}
