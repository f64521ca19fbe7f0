package scorer

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type rec struct {
	id       string
	category string
	fields   map[Field]string
}

func (r rec) RecordID() string         { return r.id }
func (r rec) RecordCategory() string   { return r.category }
func (r rec) FieldText(f Field) string { return r.fields[f] }

const epsilon = 1e-9

var texts = []string{
	"Automatizar a conciliação bancária diária",
	"conciliação manual de extratos bancários",
	"Reduzir a fila de atendimento presencial",
	"painel de indicadores de atendimento",
	"de para com",
	"",
	"   ",
}

func TestJaccardReflexive(t *testing.T) {
	for _, a := range texts[:4] {
		if got := Jaccard(a, a); got != 1.0 {
			t.Errorf("Jaccard(%q, itself) = %v, want 1", a, got)
		}
	}
}

func TestJaccardSymmetricAndBounded(t *testing.T) {
	for _, a := range texts {
		for _, b := range texts {
			ab, ba := Jaccard(a, b), Jaccard(b, a)
			if ab != ba {
				t.Errorf("Jaccard(%q, %q) = %v but reversed = %v", a, b, ab, ba)
			}
			if ab < 0 || ab > 1 {
				t.Errorf("Jaccard(%q, %q) = %v out of [0,1]", a, b, ab)
			}
		}
	}
}

func TestJaccardBlank(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"empty left", "", "conciliação bancária"},
		{"empty right", "conciliação bancária", ""},
		{"whitespace", "  \t", "conciliação bancária"},
		{"stop-words only", "de para com", "de para com"},
		{"short words only", "ti rh", "ti rh"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Jaccard(tc.a, tc.b); got != 0 {
				t.Errorf("Jaccard = %v, want 0", got)
			}
		})
	}
}

func TestJaccardValue(t *testing.T) {
	got := Jaccard("conciliação bancária automática", "conciliação manual")
	if math.Abs(got-0.25) > epsilon {
		t.Errorf("Jaccard = %v, want 0.25", got)
	}
}

func identical(id, category string) rec {
	return rec{
		id:       id,
		category: category,
		fields: map[Field]string{
			FieldChallenge:      "Retrabalho constante na conciliação de extratos",
			FieldSolution:       "Robô que cruza lançamentos automaticamente",
			FieldExperimentName: "Conciliação automática",
			FieldMethodology:    "Piloto com duas agências",
		},
	}
}

func TestCompareIdenticalRecordsReachMaximum(t *testing.T) {
	bd := Compare(identical("a", "PROCESS"), identical("b", "PROCESS"))
	if math.Abs(bd.Score-MaxScore()) > epsilon {
		t.Errorf("Score = %v, want %v", bd.Score, MaxScore())
	}
	if !bd.Category {
		t.Error("expected category match")
	}
	if bd.Evaluated != 4 {
		t.Errorf("Evaluated = %d, want 4", bd.Evaluated)
	}
}

func TestCompareDisjointRecords(t *testing.T) {
	a := rec{id: "a", category: "PROCESS", fields: map[Field]string{
		FieldChallenge:      "fila presencial demorada",
		FieldSolution:       "agendamento online",
		FieldExperimentName: "agenda digital",
	}}
	b := rec{id: "b", category: "TECHNOLOGY", fields: map[Field]string{
		FieldChallenge:      "contratos impressos extraviados",
		FieldSolution:       "assinatura eletrônica",
		FieldExperimentName: "papel zero",
	}}
	bd := Compare(a, b)
	if bd.Score != 0 {
		t.Errorf("Score = %v, want 0", bd.Score)
	}
	if bd.Category {
		t.Error("categories differ, Category must be false")
	}
}

func TestCompareNothingEvaluable(t *testing.T) {
	bd := Compare(rec{id: "a"}, rec{id: "b", category: "PROCESS"})
	want := Breakdown{}
	if diff := cmp.Diff(want, bd); diff != "" {
		t.Errorf("Breakdown mismatch (-want +got):\n%s", diff)
	}
}

func TestCompareCategoryOnly(t *testing.T) {
	bd := Compare(rec{id: "a", category: "RISK"}, rec{id: "b", category: "RISK"})
	if bd.Score != CategoryWeight {
		t.Errorf("Score = %v, want %v", bd.Score, CategoryWeight)
	}
	if bd.Evaluated != 1 || len(bd.Fields) != 0 {
		t.Errorf("unexpected breakdown %+v", bd)
	}
}

func TestCompareFieldBreakdown(t *testing.T) {
	a := rec{id: "a", fields: map[Field]string{
		FieldChallenge: "conciliação bancária automática",
		FieldSolution:  "robô conciliador",
	}}
	b := rec{id: "b", fields: map[Field]string{
		FieldChallenge:   "conciliação manual",
		FieldSolution:    "robô conciliador",
		FieldMethodology: "ignored by record weights",
	}}
	bd := Compare(a, b)
	want := []FieldScore{
		{Field: FieldChallenge, Similarity: 0.25, Contribution: 0.0625},
		{Field: FieldSolution, Similarity: 1, Contribution: 0.25},
	}
	if diff := cmp.Diff(want, bd.Fields, cmpopts.EquateApprox(0, epsilon)); diff != "" {
		t.Errorf("Fields mismatch (-want +got):\n%s", diff)
	}
	if math.Abs(bd.Score-0.3125) > epsilon {
		t.Errorf("Score = %v, want 0.3125", bd.Score)
	}
}

func TestCompareTextChallengeOnly(t *testing.T) {
	candidate := rec{id: "c", category: "PROCESS", fields: map[Field]string{
		FieldChallenge:      "fila atendimento",
		FieldSolution:       "assinatura eletrônica",
		FieldExperimentName: "papel zero",
	}}
	bd := CompareText("fila atendimento demorada agência", candidate)
	want := 0.5 * 0.45
	if math.Abs(bd.Score-want) > epsilon {
		t.Errorf("Score = %v, want %v", bd.Score, want)
	}
	if bd.Evaluated != 3 {
		t.Errorf("Evaluated = %d, want 3", bd.Evaluated)
	}
}

func TestCompareTextBlankQuery(t *testing.T) {
	for _, q := range []string{"", "   "} {
		bd := CompareText(q, identical("a", "PROCESS"))
		if bd.Score != 0 || bd.Evaluated != 0 {
			t.Errorf("CompareText(%q) = %+v, want zero", q, bd)
		}
	}
}

func TestWeightTablesSumToOne(t *testing.T) {
	if math.Abs(MaxScore()-1) > epsilon {
		t.Errorf("MaxScore = %v, want 1", MaxScore())
	}
	if math.Abs(MaxTextScore()-1) > epsilon {
		t.Errorf("MaxTextScore = %v, want 1", MaxTextScore())
	}
}

func TestWeightAccessorsReturnCopies(t *testing.T) {
	ws := RecordWeights()
	ws[0].Weight = 99
	if RecordWeights()[0].Weight == 99 {
		t.Error("RecordWeights exposed the package table")
	}
}
