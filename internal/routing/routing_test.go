package routing_test

import (
	"reflect"
	"testing"

	"github.com/javariai/javari-core/internal/routing"
	"github.com/javariai/javari-core/pkg/models"
)

var allModes = []models.Mode{models.ModeBuild, models.ModeAnalyze, models.ModeExecute, models.ModeRecover}
var allComplexities = []models.Complexity{models.ComplexityLow, models.ComplexityMedium, models.ComplexityHigh}

func TestEveryCellIsPopulated(t *testing.T) {
	r := routing.New()

	for _, m := range allModes {
		for _, c := range allComplexities {
			got := r.SelectCheapestCapable(m, c)
			if got.ModelID == "" {
				t.Errorf("SelectCheapestCapable(%v, %v) returned empty model", m, c)
			}
			if got.CostPerMillionTokens <= 0 {
				t.Errorf("SelectCheapestCapable(%v, %v) cost = %v, want > 0", m, c, got.CostPerMillionTokens)
			}
			if got.Rationale == "" {
				t.Errorf("SelectCheapestCapable(%v, %v) has no rationale", m, c)
			}
			if len(got.Fallbacks) == 0 {
				t.Errorf("SelectCheapestCapable(%v, %v) has no fallbacks", m, c)
			}
		}
	}
}

func TestFallbacksNeverContainPrimary(t *testing.T) {
	r := routing.New()

	for _, m := range allModes {
		for _, c := range allComplexities {
			got := r.SelectCheapestCapable(m, c)
			for _, fb := range got.Fallbacks {
				if fb == got.ModelID {
					t.Errorf("(%v, %v): fallback list contains the primary %q", m, c, got.ModelID)
				}
			}
		}
	}
}

func TestCostNeverDecreasesWithComplexity(t *testing.T) {
	r := routing.New()

	for _, m := range allModes {
		low := r.SelectCheapestCapable(m, models.ComplexityLow)
		med := r.SelectCheapestCapable(m, models.ComplexityMedium)
		high := r.SelectCheapestCapable(m, models.ComplexityHigh)

		if low.CostPerMillionTokens > med.CostPerMillionTokens {
			t.Errorf("%v: low cost %v > medium cost %v", m, low.CostPerMillionTokens, med.CostPerMillionTokens)
		}
		if med.CostPerMillionTokens > high.CostPerMillionTokens {
			t.Errorf("%v: medium cost %v > high cost %v", m, med.CostPerMillionTokens, high.CostPerMillionTokens)
		}
	}
}

func TestSelectionIsDeterministic(t *testing.T) {
	r := routing.New()

	first := r.SelectCheapestCapable(models.ModeBuild, models.ComplexityMedium)
	second := r.SelectCheapestCapable(models.ModeBuild, models.ComplexityMedium)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated selection differs: %+v vs %+v", first, second)
	}
}

func TestDeclaredCostMatchesCostTable(t *testing.T) {
	r := routing.New()

	for _, m := range allModes {
		for _, c := range allComplexities {
			got := r.SelectCheapestCapable(m, c)
			if want := routing.ModelCost(got.ModelID); got.CostPerMillionTokens != want {
				t.Errorf("(%v, %v): declared cost %v != table cost %v for %s", m, c, got.CostPerMillionTokens, want, got.ModelID)
			}
		}
	}
}

func TestUnknownInputsFallBackToRecoverLow(t *testing.T) {
	r := routing.New()

	want := r.SelectCheapestCapable(models.ModeRecover, models.ComplexityLow)
	got := r.SelectCheapestCapable(models.Mode("NOPE"), models.Complexity("huge"))
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unknown cell = %+v, want RECOVER/low cell %+v", got, want)
	}
}
