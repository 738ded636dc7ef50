package sector

import "strings"

// Revenue quality statuses and reason codes. Codes are stored joined
// with ";" in the assignment rationale.
const (
	QualityOK   = "OK"
	QualityWarn = "WARN"
	QualityBad  = "BAD"

	CodeNoRevenueData    = "NO_REVENUE_DATA"
	CodeSumOutOfRange    = "SUM_OUT_OF_RANGE"
	CodeSumMarginal      = "SUM_MARGINAL"
	CodeNeutralRatioHigh = "NEUTRAL_RATIO_HIGH"
	CodeSegmentsTooFew   = "SEGMENTS_TOO_FEW"
)

// RevenueQuality summarizes how trustworthy the disclosed revenue
// breakdown is; the dynamic evidence weights key off Status.
type RevenueQuality struct {
	Status       string   `json:"status"`
	Codes        []string `json:"codes,omitempty"`
	SumPct       float64  `json:"sum_pct"`
	NeutralRatio float64  `json:"neutral_ratio"`
	MappedRatio  float64  `json:"mapped_ratio"`
}

func (q RevenueQuality) CodeString() string {
	return strings.Join(q.Codes, ";")
}

func (q *RevenueQuality) degrade(status, code string) {
	if status == QualityBad || (status == QualityWarn && q.Status == QualityOK) {
		q.Status = status
	}
	q.Codes = append(q.Codes, code)
}

// evidenceWeights are the per-channel weights for a classification run.
// They always sum to 1 so a missing channel only removes weight mass.
type evidenceWeights struct {
	Revenue float64 `json:"w_revenue"`
	Keyword float64 `json:"w_keyword"`
	Product float64 `json:"w_product"`
}

func weightsForQuality(q RevenueQuality) evidenceWeights {
	switch q.Status {
	case QualityOK:
		return evidenceWeights{Revenue: 0.6, Keyword: 0.2, Product: 0.2}
	case QualityWarn:
		return evidenceWeights{Revenue: 0.2, Keyword: 0.4, Product: 0.4}
	default:
		return evidenceWeights{Revenue: 0, Keyword: 0.5, Product: 0.5}
	}
}

// scoreRevenue maps each disclosed segment to a sector and accumulates
// revenue share as the sector's base score, then applies a dominance
// bonus when the top sector clears the runner-up by at least 5 points
// of revenue share: +0.2 at 30%+, +0.1 at 20%+. Scores cap at 1.0.
func (t *Taxonomy) scoreRevenue(revenueBySegment map[string]float64) (map[string]float64, RevenueQuality) {
	quality := RevenueQuality{Status: QualityOK}
	scores := make(map[string]float64)
	if len(revenueBySegment) == 0 {
		quality.degrade(QualityBad, CodeNoRevenueData)
		return scores, quality
	}

	var sum, neutral, mapped float64
	nonNeutralSegments := 0
	for raw, pct := range revenueBySegment {
		if pct < 0 {
			continue
		}
		sum += pct
		normalized := NormalizeSegmentName(raw)
		if isNeutralSegment(normalized) {
			neutral += pct
			continue
		}
		nonNeutralSegments++
		sec, ok := t.mapSegmentToSector(normalized)
		if !ok {
			continue
		}
		mapped += pct
		scores[sec] += pct / 100.0
	}

	quality.SumPct = sum
	if sum > 0 {
		quality.NeutralRatio = neutral / sum * 100.0
		quality.MappedRatio = mapped / sum * 100.0
	}
	switch {
	case sum < 70 || sum > 130:
		quality.degrade(QualityBad, CodeSumOutOfRange)
	case sum < 80 || sum > 120:
		quality.degrade(QualityWarn, CodeSumMarginal)
	}
	if quality.NeutralRatio >= 50 {
		quality.degrade(QualityWarn, CodeNeutralRatioHigh)
	}
	if nonNeutralSegments <= 1 {
		quality.degrade(QualityWarn, CodeSegmentsTooFew)
	}

	top, second := topTwo(scores)
	if top != "" {
		topPct := scores[top] * 100.0
		margin := (scores[top] - scores[second]) * 100.0
		if margin >= 5.0 {
			switch {
			case topPct >= 30:
				scores[top] += 0.2
			case topPct >= 20:
				scores[top] += 0.1
			}
		}
		if scores[top] > 1.0 {
			scores[top] = 1.0
		}
	}
	return scores, quality
}

func topTwo(scores map[string]float64) (top, second string) {
	for sec, s := range scores {
		switch {
		case top == "" || s > scores[top] || (s == scores[top] && sec < top):
			top, second = sec, top
		case second == "" || s > scores[second] || (s == scores[second] && sec < second):
			second = sec
		}
	}
	return top, second
}
