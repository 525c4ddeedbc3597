package domain

import (
	"testing"
)

func TestCriteriaPredicates(t *testing.T) {
	c := Criteria{Companies: []string{"AAPL"}}
	if !c.HasCompanies() {
		t.Error("expected HasCompanies for explicit ticker list")
	}
	if c.HasSectorOrIndex() {
		t.Error("did not expect HasSectorOrIndex without sector/index")
	}
	if c.HasEconomicSeries() {
		t.Error("did not expect HasEconomicSeries without series")
	}

	c = Criteria{Sector: "Technology"}
	if c.HasCompanies() {
		t.Error("did not expect HasCompanies for bare sector filter")
	}
	if !c.HasSectorOrIndex() {
		t.Error("expected HasSectorOrIndex for sector filter")
	}

	c = Criteria{EconomicSeries: []string{"GDP", "UNRATE"}}
	if !c.HasEconomicSeries() {
		t.Error("expected HasEconomicSeries for macro series list")
	}
}

func TestCriteriaPureWebIntelligence(t *testing.T) {
	tests := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"sentiment only", Criteria{AnalysisType: AnalysisSentiment}, true},
		{"sentiment with companies", Criteria{AnalysisType: AnalysisSentiment, Companies: []string{"TSLA"}}, true},
		{"sentiment with sector", Criteria{AnalysisType: AnalysisSentiment, Sector: "Energy"}, false},
		{"sentiment with series", Criteria{AnalysisType: AnalysisSentiment, EconomicSeries: []string{"GDP"}}, false},
		{"fundamental", Criteria{AnalysisType: AnalysisFundamental, Companies: []string{"AAPL"}}, false},
		{"empty", Criteria{}, false},
	}
	for _, tt := range tests {
		if got := tt.c.PureWebIntelligence(); got != tt.want {
			t.Errorf("%s: PureWebIntelligence() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNormalizedCompanies(t *testing.T) {
	c := Criteria{Companies: []string{" aapl", "MSFT", "aapl", "", "msft "}}
	got := c.NormalizedCompanies()
	want := []string{"AAPL", "MSFT"}
	if len(got) != len(want) {
		t.Fatalf("NormalizedCompanies() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizedCompanies()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCollectorInfoProduces(t *testing.T) {
	ci := CollectorInfo{
		Name:     "sec-edgar",
		Quadrant: QuadrantGovernmentAPI,
		Kinds:    []DataKind{KindFilings, KindBars},
	}
	if !ci.Produces(KindFilings) {
		t.Error("expected Produces(KindFilings)")
	}
	if ci.Produces(KindArticles) {
		t.Error("did not expect Produces(KindArticles)")
	}
}

func TestFeatureRowZeroValue(t *testing.T) {
	row := FeatureRow{}
	if row.Symbol != "" || !row.Date.IsZero() {
		t.Error("expected zero-value FeatureRow to have empty symbol and zero date")
	}
	if row.NextDayUp {
		t.Error("expected zero-value label to be false")
	}
}
