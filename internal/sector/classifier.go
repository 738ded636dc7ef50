// Package sector assigns companies to market sectors from weighted
// evidence channels: disclosed revenue segments, business keywords and
// product lines. Pinned overrides and holding/financial detectors run
// before scoring; every assignment carries a confidence tier and the
// audit trail that produced it.
package sector

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"

	types "github.com/yungbote/finsight-backend/internal/domain"
	pkgerrors "github.com/yungbote/finsight-backend/internal/pkg/errors"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
)

// Hold reason codes. A HOLD assignment without one is a configuration
// defect, never a valid state.
const (
	HoldLowConf             = "HOLD_LOW_CONF"
	HoldUnmappedRevenueHigh = "HOLD_UNMAPPED_REVENUE_HIGH"
	HoldNoEvidence          = "HOLD_NO_EVIDENCE"
)

const (
	tierHighRevenueTop  = 0.5
	tierHighRevenueMin  = 0.25
	tierMediumThreshold = 0.5
	tierLowThreshold    = 0.3
	maxAssignments      = 3
)

// Evidence is everything known about a company at classification time.
// Any field may be empty; missing channels only shed weight mass.
type Evidence struct {
	CompanyID        string
	Name             string
	Keywords         []string
	Products         []string
	RevenueBySegment map[string]float64
	RegistryIndustry string
	BusinessSummary  string
}

type Classifier struct {
	tax *Taxonomy
	log *logger.Logger
}

func NewClassifier(tax *Taxonomy, baseLog *logger.Logger) *Classifier {
	return &Classifier{tax: tax, log: baseLog.With("component", "sector_classifier")}
}

type rationale struct {
	RevenueQuality RevenueQuality     `json:"revenue_quality"`
	Weights        evidenceWeights    `json:"weights"`
	RevenueScore   float64            `json:"revenue_score"`
	KeywordScore   float64            `json:"keyword_score"`
	ProductScore   float64            `json:"product_score"`
	HoldingScore   float64            `json:"holding_score,omitempty"`
	Detector       string             `json:"detector,omitempty"`
	AllScores      map[string]float64 `json:"all_scores,omitempty"`
}

// Classify scores every sector against the evidence and returns the
// surviving assignments, primary already marked. The result is never
// empty: with no usable evidence a single HOLD row explains why.
func (c *Classifier) Classify(ctx context.Context, ev Evidence) ([]*types.SectorAssignment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if ov, ok := c.tax.companyOverrides[ev.CompanyID]; ok {
		a := c.newAssignment(ev.CompanyID, ov.MajorSector, 1.0, types.MethodOverride, rationale{Detector: "company_override"})
		a.SubSector = ov.SubSector
		a.ValueChainPosition = ov.ValueChainPosition
		a.ConfidenceTier = types.TierHigh
		a.OverrideFired = true
		return c.finish(ev, []*types.SectorAssignment{a})
	}

	if isFin, isFinHolding, conf := detectFinancial(ev.Name, ev.RegistryIndustry, ev.BusinessSummary); isFin && isFinHolding {
		a := c.newAssignment(ev.CompanyID, SecHolding, conf, types.MethodOverride, rationale{Detector: "financial_holding"})
		a.SubSector = SubFinancialHolding
		a.ConfidenceTier = types.TierHigh
		a.OverrideFired = true
		return c.finish(ev, []*types.SectorAssignment{a})
	} else if isFin && conf >= 0.9 {
		a := c.newAssignment(ev.CompanyID, financialSectorFor(ev.Name), conf, types.MethodOverride, rationale{Detector: "financial_name"})
		a.ConfidenceTier = types.TierHigh
		a.OverrideFired = true
		return c.finish(ev, []*types.SectorAssignment{a})
	}

	revScores, quality := c.tax.scoreRevenue(ev.RevenueBySegment)
	weights := weightsForQuality(quality)
	combined := combinedText(ev)

	totals := make(map[string]float64)
	kwScores := make(map[string]float64)
	prodScores := make(map[string]float64)
	for sec, signals := range sectorKeywords {
		kw := keywordChannelScore(signals.Keywords, combined)
		prod := productChannelScore(signals.Products, ev.Products)
		kwScores[sec], prodScores[sec] = kw, prod
		total := weights.Revenue*revScores[sec] + weights.Keyword*kw + weights.Product*prod
		if total > 0 {
			totals[sec] = total
		}
	}
	for sec, rs := range revScores {
		if _, seen := totals[sec]; !seen && weights.Revenue*rs > 0 {
			totals[sec] = weights.Revenue * rs
		}
	}

	// The holding detector feeds the candidate pool rather than firing an
	// override: a conglomerate can be a holding and an operator at once,
	// and the primary tie-break demotes SEC_HOLDING anyway.
	isHolding, holdingSub, holdingScore := detectHolding(ev.Name, ev.BusinessSummary, ev.Keywords)
	if isHolding && holdingScore > totals[SecHolding] {
		totals[SecHolding] = holdingScore
	}

	var assignments []*types.SectorAssignment
	for _, sec := range sortedByScore(totals) {
		total := totals[sec]
		if total < tierLowThreshold {
			continue
		}
		r := rationale{
			RevenueQuality: quality,
			Weights:        weights,
			RevenueScore:   revScores[sec],
			KeywordScore:   kwScores[sec],
			ProductScore:   prodScores[sec],
		}
		a := c.newAssignment(ev.CompanyID, sec, total, methodFor(revScores[sec], kwScores[sec], weights), r)
		a.ConfidenceTier = tierFor(revScores[sec], total, quality)
		if sec == SecHolding && isHolding {
			a.SubSector = holdingSub
			a.Rationale = mustJSON(rationale{RevenueQuality: quality, Weights: weights, HoldingScore: holdingScore, Detector: "holding"})
		}
		assignments = append(assignments, a)
		if len(assignments) == maxAssignments {
			break
		}
	}

	if len(assignments) == 0 {
		a := c.newAssignment(ev.CompanyID, "", 0, types.MethodHold, rationale{RevenueQuality: quality, Weights: weights, AllScores: totals})
		a.ConfidenceTier = types.TierHold
		code := holdReason(ev, quality)
		a.HoldReasonCode = &code
		assignments = append(assignments, a)
	}

	return c.finish(ev, assignments)
}

func (c *Classifier) finish(ev Evidence, assignments []*types.SectorAssignment) ([]*types.SectorAssignment, error) {
	combined := combinedText(ev)
	for _, a := range assignments {
		if a.ValueChainPosition == "" && a.MajorSector != "" {
			a.ValueChainPosition = classifyValueChain(a.MajorSector, combined, ev.Products)
		}
		if a.ConfidenceTier == types.TierHold && a.HoldReasonCode == nil {
			return nil, fmt.Errorf("hold assignment for %q without reason code: %w", ev.CompanyID, pkgerrors.ErrConfigurationDefect)
		}
	}
	MarkPrimary(assignments)
	c.log.Debug("classified", "company_id", ev.CompanyID, "assignments", len(assignments), "tier", assignments[0].ConfidenceTier)
	return assignments, nil
}

func (c *Classifier) newAssignment(companyID, sec string, score float64, method string, r rationale) *types.SectorAssignment {
	return &types.SectorAssignment{
		CompanyID:            companyID,
		MajorSector:          sec,
		ClassificationMethod: method,
		SectorScore:          score,
		PriceSensitivity:     c.tax.PriceSensitivity(sec),
		IsCurrent:            true,
		Rationale:            mustJSON(r),
	}
}

// tierFor implements the confidence ladder: dominant good revenue is
// HIGH, a solid combined score is MEDIUM, a weak one LOW.
func tierFor(revScore, total float64, quality RevenueQuality) string {
	if quality.Status != QualityBad && revScore >= tierHighRevenueTop {
		return types.TierHigh
	}
	if quality.Status == QualityOK && revScore >= tierHighRevenueMin && total >= tierMediumThreshold {
		return types.TierHigh
	}
	if total >= tierMediumThreshold {
		return types.TierMedium
	}
	return types.TierLow
}

func methodFor(revScore, kwScore float64, w evidenceWeights) string {
	if w.Revenue*revScore >= w.Keyword*kwScore {
		return types.MethodRevenue
	}
	return types.MethodKeyword
}

func holdReason(ev Evidence, quality RevenueQuality) string {
	if len(ev.RevenueBySegment) == 0 && len(ev.Keywords) == 0 && len(ev.Products) == 0 &&
		ev.BusinessSummary == "" && ev.RegistryIndustry == "" {
		return HoldNoEvidence
	}
	if len(ev.RevenueBySegment) > 0 && quality.MappedRatio < 50 {
		return HoldUnmappedRevenueHigh
	}
	return HoldLowConf
}

// MarkPrimary marks exactly one assignment primary. Holding and REIT
// rows lose the tie-break to any operating sector; among the rest the
// order is price sensitivity, then score.
func MarkPrimary(assignments []*types.SectorAssignment) {
	if len(assignments) == 0 {
		return
	}
	for _, a := range assignments {
		a.IsPrimary = false
	}
	candidates := make([]*types.SectorAssignment, 0, len(assignments))
	for _, a := range assignments {
		if !nonPrimarySectors[a.MajorSector] {
			candidates = append(candidates, a)
		}
	}
	if len(candidates) == 0 {
		candidates = assignments
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].SectorScore > candidates[j].SectorScore
		})
	} else {
		sort.SliceStable(candidates, func(i, j int) bool {
			if candidates[i].PriceSensitivity != candidates[j].PriceSensitivity {
				return candidates[i].PriceSensitivity > candidates[j].PriceSensitivity
			}
			return candidates[i].SectorScore > candidates[j].SectorScore
		})
	}
	candidates[0].IsPrimary = true
}

// classifyValueChain picks the chain position whose keyword table scores
// highest: +2 per keyword present in the combined text, +3 per keyword
// hit inside a named product. Defaults to MIDSTREAM on silence.
func classifyValueChain(sec, combined string, products []string) string {
	tables, ok := valueChainKeywords[sec]
	if !ok {
		tables = genericValueChainKeywords
	}
	best, bestScore := types.PositionMidstream, 0
	for _, pos := range []string{types.PositionUpstream, types.PositionMidstream, types.PositionDownstream} {
		score := 0
		for _, kw := range tables[pos] {
			lk := strings.ToLower(kw)
			if strings.Contains(combined, lk) {
				score += 2
			}
			for _, p := range products {
				if strings.Contains(strings.ToLower(p), lk) {
					score += 3
					break
				}
			}
		}
		if score > bestScore {
			best, bestScore = pos, score
		}
	}
	return best
}

// keywordChannelScore saturates at three keyword hits.
func keywordChannelScore(sectorKws []string, combined string) float64 {
	hits := 0
	for _, kw := range sectorKws {
		if strings.Contains(combined, strings.ToLower(kw)) {
			hits++
		}
	}
	score := float64(hits) / 3.0
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// productChannelScore saturates at two product hits.
func productChannelScore(sectorProducts, products []string) float64 {
	hits := 0
	for _, sp := range sectorProducts {
		lsp := strings.ToLower(sp)
		for _, p := range products {
			if strings.Contains(strings.ToLower(p), lsp) {
				hits++
				break
			}
		}
	}
	score := float64(hits) / 2.0
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func combinedText(ev Evidence) string {
	parts := make([]string, 0, len(ev.Keywords)+3)
	parts = append(parts, ev.Name, ev.RegistryIndustry, ev.BusinessSummary)
	parts = append(parts, ev.Keywords...)
	return strings.ToLower(strings.Join(parts, " "))
}

func sortedByScore(scores map[string]float64) []string {
	secs := make([]string, 0, len(scores))
	for sec := range scores {
		secs = append(secs, sec)
	}
	sort.Slice(secs, func(i, j int) bool {
		if scores[secs[i]] != scores[secs[j]] {
			return scores[secs[i]] > scores[secs[j]]
		}
		return secs[i] < secs[j]
	})
	return secs
}

func mustJSON(v any) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte(`{}`))
	}
	return datatypes.JSON(raw)
}
