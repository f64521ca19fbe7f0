// Package intake defines the problem and idea records, their closed
// enumerations and the request/response shapes of the intake API.
package intake

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/idea-intake-platform/internal/similarity/scorer"
	apperrors "github.com/Adithya-Monish-Kumar-K/idea-intake-platform/pkg/errors"
)

// Category classifies problems and ideas.
type Category string

const (
	CategoryOperational     Category = "OPERATIONAL"
	CategoryTechnology      Category = "TECHNOLOGY"
	CategoryProcess         Category = "PROCESS"
	CategoryCustomerService Category = "CUSTOMER_SERVICE"
	CategoryCompliance      Category = "COMPLIANCE"
	CategoryManagement      Category = "MANAGEMENT"
	CategorySustainability  Category = "SUSTAINABILITY"
	CategoryEcosystem       Category = "ECOSYSTEM"
	CategoryRetail          Category = "RETAIL"
	CategoryWholesale       Category = "WHOLESALE"
	CategoryHousing         Category = "HOUSING"
	CategoryGovernment      Category = "GOVERNMENT"
	CategoryInvestmentFunds Category = "INVESTMENT_FUNDS"
	CategoryFinance         Category = "FINANCE"
	CategoryLogistics       Category = "LOGISTICS"
	CategoryRisk            Category = "RISK"
	CategoryPeople          Category = "PEOPLE"
)

var categories = []Category{
	CategoryOperational, CategoryTechnology, CategoryProcess,
	CategoryCustomerService, CategoryCompliance, CategoryManagement,
	CategorySustainability, CategoryEcosystem, CategoryRetail,
	CategoryWholesale, CategoryHousing, CategoryGovernment,
	CategoryInvestmentFunds, CategoryFinance, CategoryLogistics,
	CategoryRisk, CategoryPeople,
}

// Categories lists every valid category in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}

// ParseCategory maps user input onto a Category. Input is trimmed and
// upper-cased, and dashes or spaces become underscores. Anything outside the
// closed set fails with ErrInvalidCategory.
func ParseCategory(s string) (Category, error) {
	key := canonical(s)
	for _, c := range categories {
		if string(c) == key {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidCategory, s)
}

// Status tracks a record through review.
type Status string

const (
	StatusOpen        Status = "OPEN"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusInProgress  Status = "IN_PROGRESS"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
	StatusImplemented Status = "IMPLEMENTED"
	StatusResolved    Status = "RESOLVED"
	StatusClosed      Status = "CLOSED"
)

var statuses = []Status{
	StatusOpen, StatusUnderReview, StatusInProgress, StatusApproved,
	StatusRejected, StatusImplemented, StatusResolved, StatusClosed,
}

// Statuses lists every valid status.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

// ParseStatus is the Status counterpart of ParseCategory.
func ParseStatus(s string) (Status, error) {
	key := canonical(s)
	for _, st := range statuses {
		if string(st) == key {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, s)
}

func canonical(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}

// Horizon is the innovation horizon of an idea.
type Horizon string

const (
	HorizonH1 Horizon = "H1"
	HorizonH2 Horizon = "H2"
	HorizonH3 Horizon = "H3"
)

// ParseHorizon accepts H1, H2 or H3 in any case. Blank input yields "".
func ParseHorizon(s string) (Horizon, error) {
	switch h := Horizon(strings.ToUpper(strings.TrimSpace(s))); h {
	case "", HorizonH1, HorizonH2, HorizonH3:
		return h, nil
	}
	return "", fmt.Errorf("%w: horizon %q", apperrors.ErrInvalidInput, s)
}

// Idea is a proposed experiment.
type Idea struct {
	ID              string    `json:"id"`
	ProponentName   string    `json:"proponent_name"`
	ProponentID     string    `json:"proponent_id"`
	ProponentUnit   string    `json:"proponent_unit"`
	ExperimentName  string    `json:"experiment_name"`
	Team            string    `json:"team"`
	Challenge       string    `json:"challenge"`
	Solution        string    `json:"solution"`
	Methodology     string    `json:"methodology"`
	Hypothesis      string    `json:"hypothesis"`
	Horizon         Horizon   `json:"horizon,omitempty"`
	Baseline        string    `json:"baseline"`
	ExpectedResults string    `json:"expected_results"`
	KPIs            string    `json:"kpis"`
	Category        Category  `json:"category,omitempty"`
	Status          Status    `json:"status"`
	AIReview        string    `json:"ai_review"`
	HumanReview     string    `json:"human_review"`
	CreatedAt       time.Time `json:"created_at"`
}

func (i Idea) RecordID() string       { return i.ID }
func (i Idea) RecordCategory() string { return string(i.Category) }

func (i Idea) FieldText(f scorer.Field) string {
	switch f {
	case scorer.FieldChallenge:
		return i.Challenge
	case scorer.FieldSolution:
		return i.Solution
	case scorer.FieldExperimentName:
		return i.ExperimentName
	case scorer.FieldMethodology:
		return i.Methodology
	default:
		return ""
	}
}

// Problem is a pain point reported by an employee.
type Problem struct {
	ID               string    `json:"id"`
	ReporterName     string    `json:"reporter_name"`
	ReporterID       string    `json:"reporter_id"`
	Unit             string    `json:"unit"`
	Email            string    `json:"email"`
	Description      string    `json:"description"`
	Process          string    `json:"process"`
	Category         Category  `json:"category"`
	FinancialImpact  *float64  `json:"financial_impact,omitempty"`
	PeopleImpact     *int      `json:"people_impact,omitempty"`
	ExpectedSolution string    `json:"expected_solution"`
	Status           Status    `json:"status"`
	MatchingScore    *float64  `json:"matching_score,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// QueryText is the free text used to look for ideas related to the problem.
func (p Problem) QueryText() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Description, p.Process, p.ExpectedSolution} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// IdeaRequest is the JSON body accepted when creating or replacing an idea.
type IdeaRequest struct {
	ProponentName   string `json:"proponent_name"`
	ProponentID     string `json:"proponent_id"`
	ProponentUnit   string `json:"proponent_unit"`
	ExperimentName  string `json:"experiment_name"`
	Team            string `json:"team"`
	Challenge       string `json:"challenge"`
	Solution        string `json:"solution"`
	Methodology     string `json:"methodology"`
	Hypothesis      string `json:"hypothesis"`
	Horizon         string `json:"horizon"`
	Baseline        string `json:"baseline"`
	ExpectedResults string `json:"expected_results"`
	KPIs            string `json:"kpis"`
	Category        string `json:"category"`
	Status          string `json:"status"`
}

// ProblemRequest is the JSON body accepted when creating or replacing a
// problem.
type ProblemRequest struct {
	ReporterName     string   `json:"reporter_name"`
	ReporterID       string   `json:"reporter_id"`
	Unit             string   `json:"unit"`
	Email            string   `json:"email"`
	Description      string   `json:"description"`
	Process          string   `json:"process"`
	Category         string   `json:"category"`
	FinancialImpact  *float64 `json:"financial_impact"`
	PeopleImpact     *int     `json:"people_impact"`
	ExpectedSolution string   `json:"expected_solution"`
	Status           string   `json:"status"`
}

// IdeaFilter narrows ListIdeas. Zero values match everything.
type IdeaFilter struct {
	NameContains string
	Status       Status
	Category     Category
}

// ProblemFilter narrows ListProblems. Zero values match everything.
type ProblemFilter struct {
	Status   Status
	Email    string
	Category Category
}

// IdeaMatch is one ranked idea as rendered to clients.
type IdeaMatch struct {
	Idea       Idea     `json:"idea"`
	Score      float64  `json:"score"`
	Percentage float64  `json:"percentage"`
	Level      string   `json:"level"`
	Criteria   []string `json:"criteria"`
}

// SimilarIdeasResponse is the ordered outcome of a similarity lookup. Clients
// render it as-is.
type SimilarIdeasResponse struct {
	BaseID    string      `json:"base_id"`
	BaseLabel string      `json:"base_label"`
	Count     int         `json:"count"`
	Matches   []IdeaMatch `json:"matches"`
}

// ProblemWithIdeasResponse pairs a problem with the ideas that address it.
type ProblemWithIdeasResponse struct {
	Problem      Problem              `json:"problem"`
	RelatedIdeas SimilarIdeasResponse `json:"related_ideas"`
}
