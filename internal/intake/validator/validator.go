// Package validator checks idea and problem requests and reports every
// failing field at once.
package validator

import (
	"fmt"
	"math"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/intake"
)

const (
	maxNameLength      = 255
	maxLongTextLength  = 2000
	maxHypothesisLen   = 1000
	maxShortTextLength = 500
)

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, field := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", field, e.Fields[field]))
	}
	return strings.Join(parts, "; ")
}

type checker map[string]string

func (c checker) required(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		c[field] = field + " is required"
		return false
	}
	return true
}

func (c checker) maxLen(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		c[field] = fmt.Sprintf("%s must be at most %d characters", field, limit)
	}
}

func (c checker) err() error {
	if len(c) == 0 {
		return nil
	}
	return &ValidationError{Fields: c}
}

// ValidateIdeaRequest checks an idea body. Only the experiment name is
// mandatory; enumerations must parse when present.
func ValidateIdeaRequest(req *intake.IdeaRequest) error {
	c := checker{}

	if c.required("experiment_name", req.ExperimentName) {
		c.maxLen("experiment_name", req.ExperimentName, maxNameLength)
	}
	c.maxLen("proponent_name", req.ProponentName, maxNameLength)
	c.maxLen("proponent_id", req.ProponentID, maxNameLength)
	c.maxLen("proponent_unit", req.ProponentUnit, maxNameLength)
	c.maxLen("team", req.Team, maxShortTextLength)
	c.maxLen("challenge", req.Challenge, maxLongTextLength)
	c.maxLen("solution", req.Solution, maxLongTextLength)
	c.maxLen("methodology", req.Methodology, maxLongTextLength)
	c.maxLen("hypothesis", req.Hypothesis, maxHypothesisLen)
	c.maxLen("baseline", req.Baseline, maxLongTextLength)
	c.maxLen("expected_results", req.ExpectedResults, maxLongTextLength)
	c.maxLen("kpis", req.KPIs, maxLongTextLength)

	if _, err := intake.ParseHorizon(req.Horizon); err != nil {
		c["horizon"] = "horizon must be one of H1, H2, H3"
	}
	if strings.TrimSpace(req.Category) != "" {
		if _, err := intake.ParseCategory(req.Category); err != nil {
			c["category"] = "unknown category"
		}
	}
	if strings.TrimSpace(req.Status) != "" {
		if _, err := intake.ParseStatus(req.Status); err != nil {
			c["status"] = "unknown status"
		}
	}
	return c.err()
}

// ValidateProblemRequest checks a problem body. Reporter identity, contact,
// description, process and category are mandatory.
func ValidateProblemRequest(req *intake.ProblemRequest) error {
	c := checker{}

	for field, value := range map[string]string{
		"reporter_name": req.ReporterName,
		"reporter_id":   req.ReporterID,
		"unit":          req.Unit,
		"process":       req.Process,
	} {
		if c.required(field, value) {
			c.maxLen(field, value, maxNameLength)
		}
	}
	if c.required("description", req.Description) {
		c.maxLen("description", req.Description, maxLongTextLength)
	}
	if c.required("email", req.Email) {
		if addr, err := mail.ParseAddress(req.Email); err != nil || addr.Address != strings.TrimSpace(req.Email) {
			c["email"] = "email must be a valid address"
		}
	}
	if c.required("category", req.Category) {
		if _, err := intake.ParseCategory(req.Category); err != nil {
			c["category"] = "unknown category"
		}
	}
	if strings.TrimSpace(req.Status) != "" {
		if _, err := intake.ParseStatus(req.Status); err != nil {
			c["status"] = "unknown status"
		}
	}
	c.maxLen("expected_solution", req.ExpectedSolution, maxShortTextLength)
	if req.FinancialImpact != nil && (*req.FinancialImpact < 0 || math.IsNaN(*req.FinancialImpact) || math.IsInf(*req.FinancialImpact, 0)) {
		c["financial_impact"] = "financial_impact must be a non-negative amount"
	}
	if req.PeopleImpact != nil && *req.PeopleImpact < 0 {
		c["people_impact"] = "people_impact must not be negative"
	}
	return c.err()
}

// ValidateMatchingScore rejects scores that are negative or not finite.
func ValidateMatchingScore(score float64) error {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return &ValidationError{Fields: map[string]string{"score": "score must be a non-negative number"}}
	}
	return nil
}
