package sector

import (
	"regexp"
	"strings"
)

var (
	reParenContent = regexp.MustCompile(`\([^)]*\)`)
	reSeparators   = regexp.MustCompile(`[-/·,]+`)
	reNonWord      = regexp.MustCompile(`[^0-9a-z가-힣\s]+`)
	reSpaces       = regexp.MustCompile(`\s+`)
)

// segmentSynonyms unifies spelling variants before table lookup.
var segmentSynonyms = map[string]string{
	"이차전지": "2차전지",
	"코스메틱": "화장품",
	"si":   "시스템통합",
	"ict":  "it",
	"정제유":  "정유",
}

// businessSuffixes are trailing tokens that name the org unit rather
// than the business ("반도체 사업부문" → "반도체").
var businessSuffixes = []string{
	"사업부문", "사업부", "사업", "부문", "부서", "영역",
	"division", "segment", "business", "unit", "sector",
}

// NormalizeSegmentName canonicalizes a disclosed revenue segment label
// for table lookup. Returns the stripped original when normalization
// would empty the string.
func NormalizeSegmentName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	s = reParenContent.ReplaceAllString(s, " ")
	s = reSeparators.ReplaceAllString(s, " ")
	s = reNonWord.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "기 타", "기타")
	if mapped, ok := segmentSynonyms[strings.ReplaceAll(s, " ", "")]; ok {
		s = mapped
	}
	for _, suffix := range businessSuffixes {
		compact := strings.ReplaceAll(s, " ", "")
		if strings.HasSuffix(compact, suffix) && compact != suffix {
			s = strings.TrimSpace(strings.TrimSuffix(compact, suffix))
			break
		}
	}
	if s == "" {
		return strings.TrimSpace(raw)
	}
	return s
}

// isNeutralSegment reports whether a normalized segment label carries no
// sector signal (totals, geography splits, "other" buckets). Prefix
// containment catches compounds like 기타사업부문 without letting a
// trailing generic token ("~제품") swallow a real business line.
func isNeutralSegment(normalized string) bool {
	compact := strings.ReplaceAll(normalized, " ", "")
	if compact == "" {
		return true
	}
	for _, n := range neutralSegments {
		if compact == n {
			return true
		}
		if strings.HasPrefix(compact, n) && len([]rune(n)) >= 2 {
			return true
		}
	}
	return false
}

// mapSegmentToSector resolves a normalized segment label to a sector
// code, longest keyword first. Keywords under 4 runes match exactly
// unless allowlisted; guarded sectors additionally require 3+ rune
// keywords for containment, which keeps "항공" out of the fuel bucket.
func (t *Taxonomy) mapSegmentToSector(normalized string) (string, bool) {
	compact := strings.ReplaceAll(normalized, " ", "")
	if compact == "" {
		return "", false
	}
	for _, kw := range t.segmentKeywords {
		sec := t.segmentSectorMap[kw]
		kwLen := len([]rune(kw))
		if compact == kw {
			if sec == SecEnergy && kw != "항공유" && strings.Contains(compact, "항공") {
				continue
			}
			return sec, true
		}
		if !strings.Contains(compact, kw) {
			continue
		}
		if kwLen < 4 && !shortKeywordAllowlist[kw] {
			continue
		}
		if min, ok := criticalSectorMinLen[sec]; ok && kwLen < min {
			continue
		}
		// A segment about 항공 (airlines) must not land in energy via a
		// fuel keyword unless it is literally about 항공유 (jet fuel).
		if sec == SecEnergy && strings.Contains(compact, "항공") && !strings.Contains(compact, "항공유") {
			continue
		}
		return sec, true
	}
	return "", false
}
