package tokenizer

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sorted(s Set) []string {
	out := make([]string, 0, len(s))
	for w := range s {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty",
			text: "",
			want: []string{},
		},
		{
			name: "whitespace only",
			text: "   \t\n ",
			want: []string{},
		},
		{
			name: "lower-cases and removes stop-words",
			text: "Automação DO processo de Cadastro para clientes",
			want: []string{"automação", "cadastro", "clientes", "processo"},
		},
		{
			name: "drops words of two letters or fewer",
			text: "ir ao rh ti bot",
			want: []string{"bot"},
		},
		{
			name: "strips punctuation and digits in place",
			text: "redução de 30% no retrabalho, (urgente)!",
			want: []string{"redução", "retrabalho", "urgente"},
		},
		{
			name: "joins words split by hyphen like the legacy filter",
			text: "pré-aprovação",
			want: []string{"préaprovação"},
		},
		{
			name: "deduplicates",
			text: "fila fila FILA atendimento",
			want: []string{"atendimento", "fila"},
		},
		{
			name: "sistema is a stop-word",
			text: "sistema legado",
			want: []string{"legado"},
		},
		{
			name: "only stop-words",
			text: "para com por que não também",
			want: []string{},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := sorted(Tokenize(tc.text))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tc.text, diff)
			}
		})
	}
}

func TestTokenizeNormalisesDecomposedAccents(t *testing.T) {
	precomposed := Tokenize("ação")
	decomposed := Tokenize("ac\u0327a\u0303o")
	if diff := cmp.Diff(sorted(precomposed), sorted(decomposed)); diff != "" {
		t.Errorf("decomposed text tokenised differently (-want +got):\n%s", diff)
	}
}

func TestTokenizeIsIdempotent(t *testing.T) {
	texts := []string{
		"Melhorar o tempo de resposta do atendimento ao cliente via chatbot",
		"Digitalização de contratos com assinatura eletrônica!",
		"",
	}
	for _, text := range texts {
		first := Tokenize(text)
		second := Tokenize(strings.Join(sorted(first), " "))
		if diff := cmp.Diff(sorted(first), sorted(second)); diff != "" {
			t.Errorf("re-tokenising %q changed the set (-first +second):\n%s", text, diff)
		}
	}
}

func TestTokenizeIsDeterministic(t *testing.T) {
	text := "Redução de custos operacionais na logística reversa"
	want := sorted(Tokenize(text))
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(want, sorted(Tokenize(text))); diff != "" {
			t.Fatalf("run %d differs:\n%s", i, diff)
		}
	}
}

func TestWordsKeepsFirstAppearanceOrder(t *testing.T) {
	got := Words("Painel de indicadores e painel gerencial de indicadores")
	want := []string{"painel", "indicadores", "gerencial"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Words mismatch (-want +got):\n%s", diff)
	}
}

func TestIsStopWord(t *testing.T) {
	for _, w := range []string{"através", "também", "sistema", "pelos"} {
		if !IsStopWord(w) {
			t.Errorf("expected %q to be a stop-word", w)
		}
	}
	if IsStopWord("processo") {
		t.Error("processo must not be a stop-word")
	}
}

var sampleTexts = map[string]string{
	"short": "Automatizar a conciliação bancária diária",
	"medium": `O processo atual de conciliação exige que analistas cruzem extratos
        manualmente com o razão contábil, gerando atrasos no fechamento mensal e
        retrabalho frequente. A proposta é usar regras configuráveis para casar
        lançamentos automaticamente e destacar apenas as divergências.`,
	"long": strings.Repeat(`Clientes relatam demora no atendimento telefônico e
        dificuldade em acompanhar solicitações abertas. Um painel único com o
        histórico de interações reduziria transferências entre áreas e permitiria
        medir o tempo médio de resolução por canal. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Tokenize(text)
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	text := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = Tokenize(text)
		}
	})
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	baseWord := "conciliação automática de lançamentos contábeis "
	for _, size := range []int{10, 100, 500, 1000, 5000} {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = Tokenize(text)
			}
		})
	}
}
