package validator

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake"
)

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	if err == nil {
		return nil
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	return ve.Fields
}

func validProblem() intake.ProblemRequest {
	return intake.ProblemRequest{
		ReporterName: "Maria Souza",
		ReporterID:   "c123456",
		Unit:         "Agência Centro",
		Email:        "maria.souza@example.com",
		Description:  "Fila longa no atendimento presencial",
		Process:      "Atendimento",
		Category:     "customer service",
	}
}

func TestValidateIdeaRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       intake.IdeaRequest
		wantField string
	}{
		{"valid minimal", intake.IdeaRequest{ExperimentName: "Chatbot"}, ""},
		{"missing name", intake.IdeaRequest{Challenge: "x"}, "experiment_name"},
		{"blank name", intake.IdeaRequest{ExperimentName: "   "}, "experiment_name"},
		{"long challenge", intake.IdeaRequest{ExperimentName: "n", Challenge: strings.Repeat("á", 2001)}, "challenge"},
		{"long hypothesis", intake.IdeaRequest{ExperimentName: "n", Hypothesis: strings.Repeat("h", 1001)}, "hypothesis"},
		{"bad horizon", intake.IdeaRequest{ExperimentName: "n", Horizon: "H9"}, "horizon"},
		{"bad category", intake.IdeaRequest{ExperimentName: "n", Category: "INOVACAO"}, "category"},
		{"bad status", intake.IdeaRequest{ExperimentName: "n", Status: "ABERTO"}, "status"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := fields(t, ValidateIdeaRequest(&tc.req))
			if tc.wantField == "" {
				if got != nil {
					t.Errorf("unexpected errors %v", got)
				}
				return
			}
			if _, ok := got[tc.wantField]; !ok {
				t.Errorf("expected error on %s, got %v", tc.wantField, got)
			}
		})
	}
}

func TestValidateIdeaRequestAcceptsMaxLength(t *testing.T) {
	req := intake.IdeaRequest{ExperimentName: "n", Challenge: strings.Repeat("ç", 2000)}
	if err := ValidateIdeaRequest(&req); err != nil {
		t.Errorf("2000 characters must be accepted: %v", err)
	}
}

func TestValidateProblemRequest(t *testing.T) {
	neg := -1.0
	negPeople := -3
	tests := []struct {
		name      string
		mutate    func(*intake.ProblemRequest)
		wantField string
	}{
		{"valid", func(*intake.ProblemRequest) {}, ""},
		{"missing reporter", func(r *intake.ProblemRequest) { r.ReporterName = "" }, "reporter_name"},
		{"missing process", func(r *intake.ProblemRequest) { r.Process = " " }, "process"},
		{"missing description", func(r *intake.ProblemRequest) { r.Description = "" }, "description"},
		{"bad email", func(r *intake.ProblemRequest) { r.Email = "not-an-email" }, "email"},
		{"display-name email", func(r *intake.ProblemRequest) { r.Email = "Maria <maria@example.com>" }, "email"},
		{"missing category", func(r *intake.ProblemRequest) { r.Category = "" }, "category"},
		{"unknown category", func(r *intake.ProblemRequest) { r.Category = "OUTROS" }, "category"},
		{"negative financial impact", func(r *intake.ProblemRequest) { r.FinancialImpact = &neg }, "financial_impact"},
		{"negative people impact", func(r *intake.ProblemRequest) { r.PeopleImpact = &negPeople }, "people_impact"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := validProblem()
			tc.mutate(&req)
			got := fields(t, ValidateProblemRequest(&req))
			if tc.wantField == "" {
				if got != nil {
					t.Errorf("unexpected errors %v", got)
				}
				return
			}
			if _, ok := got[tc.wantField]; !ok {
				t.Errorf("expected error on %s, got %v", tc.wantField, got)
			}
		})
	}
}

func TestValidateProblemRequestReportsAllFields(t *testing.T) {
	got := fields(t, ValidateProblemRequest(&intake.ProblemRequest{}))
	for _, f := range []string{"reporter_name", "reporter_id", "unit", "email", "description", "process", "category"} {
		if _, ok := got[f]; !ok {
			t.Errorf("missing error for %s", f)
		}
	}
}

func TestValidationErrorIsSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "two", "a": "one"}}
	if got := err.Error(); got != "a:one; b:two" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidateMatchingScore(t *testing.T) {
	for _, s := range []float64{0, 0.5, 87} {
		if err := ValidateMatchingScore(s); err != nil {
			t.Errorf("score %v rejected: %v", s, err)
		}
	}
	for _, s := range []float64{-0.1, math.NaN(), math.Inf(1)} {
		if err := ValidateMatchingScore(s); err == nil {
			t.Errorf("score %v accepted", s)
		}
	}
}
