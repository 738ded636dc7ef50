package sector

import (
	"math"
	"testing"
)

func TestScoreRevenueDominantSegment(t *testing.T) {
	tax := DefaultTaxonomy()
	scores, quality := tax.scoreRevenue(map[string]float64{
		"반도체 사업부문": 40,
		"디스플레이":    35,
		"기타":       25,
	})
	if quality.Status != QualityOK {
		t.Fatalf("quality = %q (%v), want OK", quality.Status, quality.Codes)
	}
	// 40% base plus the dominance bonus: margin 5 points, share >= 30%.
	if got := scores[SecSemi]; math.Abs(got-0.6) > 1e-9 {
		t.Fatalf("semi score = %v, want 0.6", got)
	}
	if got := scores[SecElectronics]; math.Abs(got-0.35) > 1e-9 {
		t.Fatalf("electronics score = %v, want 0.35", got)
	}
	if quality.NeutralRatio != 25 {
		t.Fatalf("neutral ratio = %v, want 25", quality.NeutralRatio)
	}
}

func TestScoreRevenueNoBonusWithoutMargin(t *testing.T) {
	tax := DefaultTaxonomy()
	scores, _ := tax.scoreRevenue(map[string]float64{
		"반도체":   40,
		"디스플레이": 38,
		"기타":    22,
	})
	// Margin under 5 points leaves the base score untouched.
	if got := scores[SecSemi]; math.Abs(got-0.4) > 1e-9 {
		t.Fatalf("semi score = %v, want 0.4", got)
	}
}

func TestScoreRevenueQualityCodes(t *testing.T) {
	tax := DefaultTaxonomy()

	_, quality := tax.scoreRevenue(nil)
	if quality.Status != QualityBad || quality.CodeString() != CodeNoRevenueData {
		t.Fatalf("empty revenue quality = %q %q", quality.Status, quality.CodeString())
	}

	_, quality = tax.scoreRevenue(map[string]float64{"반도체": 50})
	if quality.Status != QualityBad {
		t.Fatalf("sum 50 quality = %q, want BAD", quality.Status)
	}
	if quality.Codes[0] != CodeSumOutOfRange {
		t.Fatalf("codes = %v, want SUM_OUT_OF_RANGE first", quality.Codes)
	}

	_, quality = tax.scoreRevenue(map[string]float64{"반도체": 45, "디스플레이": 30})
	if quality.Status != QualityWarn || quality.Codes[0] != CodeSumMarginal {
		t.Fatalf("sum 75 quality = %q %v", quality.Status, quality.Codes)
	}

	_, quality = tax.scoreRevenue(map[string]float64{"기타": 60, "반도체": 20, "조선": 20})
	if quality.Status != QualityWarn {
		t.Fatalf("neutral-heavy quality = %q, want WARN", quality.Status)
	}
	found := false
	for _, code := range quality.Codes {
		if code == CodeNeutralRatioHigh {
			found = true
		}
	}
	if !found {
		t.Fatalf("codes = %v, want NEUTRAL_RATIO_HIGH", quality.Codes)
	}
}

func TestWeightsForQualitySumToOne(t *testing.T) {
	for _, status := range []string{QualityOK, QualityWarn, QualityBad} {
		w := weightsForQuality(RevenueQuality{Status: status})
		if sum := w.Revenue + w.Keyword + w.Product; math.Abs(sum-1.0) > 1e-9 {
			t.Fatalf("weights for %s sum to %v", status, sum)
		}
	}
}
