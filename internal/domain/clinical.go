package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	maxAge = 120

	// UnsetValue marks a context field the user left empty. It is rendered
	// explicitly so the model never assumes a default.
	UnsetValue = "unset"
)

var (
	sexOptions       = []string{"male", "female", "other", "prefer not to say"}
	onsetOptions     = []string{"sudden", "gradual"}
	feverOptions     = []string{"yes", "no", "unknown"}
	pregnancyOptions = []string{"pregnant", "not pregnant", "unknown"}
	smokingOptions   = []string{"never", "former", "current"}
)

// ClinicalContext is the optional structured context submitted alongside the
// symptom text. A nil field is unset.
type ClinicalContext struct {
	Age           *int    `json:"age,omitempty" yaml:"age,omitempty"`
	Sex           *string `json:"sex,omitempty" yaml:"sex,omitempty"`
	Duration      *string `json:"duration,omitempty" yaml:"duration,omitempty"`
	Onset         *string `json:"onset,omitempty" yaml:"onset,omitempty"`
	Fever         *string `json:"fever,omitempty" yaml:"fever,omitempty"`
	Pregnancy     *string `json:"pregnancy,omitempty" yaml:"pregnancy,omitempty"`
	Comorbidities *string `json:"comorbidities,omitempty" yaml:"comorbidities,omitempty"`
	Medications   *string `json:"medications,omitempty" yaml:"medications,omitempty"`
	Allergies     *string `json:"allergies,omitempty" yaml:"allergies,omitempty"`
	Smoking       *string `json:"smoking,omitempty" yaml:"smoking,omitempty"`
	Travel        *string `json:"travel,omitempty" yaml:"travel,omitempty"`
	Noticed       *string `json:"noticed,omitempty" yaml:"noticed,omitempty"`
}

// ContextField is one named context entry in prompt order.
type ContextField struct {
	Name  string
	Value string
	Set   bool
}

// Fields returns every context field in a fixed order, unset ones included.
func (c ClinicalContext) Fields() []ContextField {
	fields := []ContextField{ageField(c.Age)}
	for _, f := range []struct {
		name string
		val  *string
	}{
		{"sex", c.Sex},
		{"duration", c.Duration},
		{"onset", c.Onset},
		{"fever", c.Fever},
		{"pregnancy", c.Pregnancy},
		{"comorbidities", c.Comorbidities},
		{"medications", c.Medications},
		{"allergies", c.Allergies},
		{"smoking", c.Smoking},
		{"travel", c.Travel},
		{"noticed", c.Noticed},
	} {
		fields = append(fields, stringField(f.name, f.val))
	}
	return fields
}

// Normalize returns a copy where blank strings and a zero age are unset and
// the remaining values are trimmed. The original form used 0 for "no age".
func (c ClinicalContext) Normalize() ClinicalContext {
	out := ClinicalContext{
		Sex:           normalizeString(c.Sex),
		Duration:      normalizeString(c.Duration),
		Onset:         normalizeString(c.Onset),
		Fever:         normalizeString(c.Fever),
		Pregnancy:     normalizeString(c.Pregnancy),
		Comorbidities: normalizeString(c.Comorbidities),
		Medications:   normalizeString(c.Medications),
		Allergies:     normalizeString(c.Allergies),
		Smoking:       normalizeString(c.Smoking),
		Travel:        normalizeString(c.Travel),
		Noticed:       normalizeString(c.Noticed),
	}
	if c.Age != nil && *c.Age != 0 {
		age := *c.Age
		out.Age = &age
	}
	return out
}

// Validate checks the age range and the fields that accept a fixed set of
// options. Matching is case-insensitive.
func (c ClinicalContext) Validate() error {
	if c.Age != nil && (*c.Age < 0 || *c.Age > maxAge) {
		return fmt.Errorf("domain: age %d out of range 0-%d", *c.Age, maxAge)
	}
	for _, f := range []struct {
		name    string
		val     *string
		options []string
	}{
		{"sex", c.Sex, sexOptions},
		{"onset", c.Onset, onsetOptions},
		{"fever", c.Fever, feverOptions},
		{"pregnancy", c.Pregnancy, pregnancyOptions},
		{"smoking", c.Smoking, smokingOptions},
	} {
		if f.val == nil {
			continue
		}
		if !containsFold(f.options, *f.val) {
			return fmt.Errorf("domain: %s must be one of %s", f.name, strings.Join(f.options, ", "))
		}
	}
	return nil
}

func ageField(age *int) ContextField {
	if age == nil {
		return ContextField{Name: "age", Value: UnsetValue}
	}
	return ContextField{Name: "age", Value: strconv.Itoa(*age), Set: true}
}

func stringField(name string, v *string) ContextField {
	if v == nil || strings.TrimSpace(*v) == "" {
		return ContextField{Name: name, Value: UnsetValue}
	}
	return ContextField{Name: name, Value: strings.TrimSpace(*v), Set: true}
}

func normalizeString(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}

func containsFold(options []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, o := range options {
		if strings.EqualFold(o, v) {
			return true
		}
	}
	return false
}
