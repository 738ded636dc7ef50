// Package textnorm provides the deterministic text normalizers that feed
// fingerprinting and entity resolution. The rules here are versioned
// implicitly through the identity rule version: changing any of them
// changes which texts collapse to the same fingerprint.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	thousandsSep  = regexp.MustCompile(`(\d),(\d)`)

	datePattern   = regexp.MustCompile(`\d{2,4}[-./]\d{1,2}[-./]\d{1,2}`)
	numberPattern = regexp.MustCompile(`\d+(\.\d+)?%?`)
	entityPattern = regexp.MustCompile(`[가-힣]+(전자|건설|증권|화학|제약|반도체|통신|금융|은행|보험|자동차|중공업|에너지|물산|상사)`)
	// Case-insensitive: fuzzy masking runs on already-lowercased text.
	tickerAlpha   = regexp.MustCompile(`(?i)\([a-z]{2,5}\)`)
	tickerNumeric = regexp.MustCompile(`\(\d{6}\)`)
	numRun        = regexp.MustCompile(`(<NUM>\s*)+`)
	entityRun     = regexp.MustCompile(`(<ENTITY>\s*)+`)

	corpDecoration = regexp.MustCompile(`\(주\)|주식회사|\(cnt\)|㈜|\(\)|\(`)
	closingParen   = regexp.MustCompile(`\)`)
)

// NormalizeForIdentity canonicalizes claim text so that formatting noise
// (case, whitespace, thousands separators, arrow glyphs) does not change
// the resulting fingerprint. Idempotent: applying it twice yields the
// same output.
func NormalizeForIdentity(text string) string {
	if text == "" {
		return ""
	}
	normalized := strings.ToLower(text)
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")
	normalized = strings.TrimSpace(normalized)
	normalized = thousandsSep.ReplaceAllString(normalized, "$1$2")
	normalized = strings.ReplaceAll(normalized, "->", "→")
	normalized = strings.ReplaceAll(normalized, "=>", "→")
	return normalized
}

// NormalizeForFuzzy applies NormalizeForIdentity and then masks the
// volatile spans: dates, numbers, Korean corporate names with common
// suffixes, and parenthesized tickers. Two claims that differ only in
// those spans collapse to the same fuzzy form. Dates and tickers are
// masked before bare numbers so they do not degrade into runs of <NUM>
// tokens.
func NormalizeForFuzzy(text string) string {
	if text == "" {
		return ""
	}
	normalized := NormalizeForIdentity(text)
	normalized = datePattern.ReplaceAllString(normalized, "<DATE>")
	normalized = tickerAlpha.ReplaceAllString(normalized, "<TICKER>")
	normalized = tickerNumeric.ReplaceAllString(normalized, "<TICKER>")
	normalized = numberPattern.ReplaceAllString(normalized, "<NUM>")
	normalized = entityPattern.ReplaceAllString(normalized, "<ENTITY>")
	normalized = numRun.ReplaceAllString(normalized, "<NUM> ")
	normalized = entityRun.ReplaceAllString(normalized, "<ENTITY> ")
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

// NormalizeCompanyName strips corporate decorations and whitespace from a
// raw company name. Pure-ASCII names are uppercased; Korean names keep
// their original form.
//
//	"㈜삼성전기"                 -> "삼성전기"
//	"삼성전기(주)"               -> "삼성전기"
//	"Samsung Electro-Mechanics" -> "SAMSUNGELECTRO-MECHANICS"
func NormalizeCompanyName(raw string) string {
	if raw == "" {
		return ""
	}
	clean := corpDecoration.ReplaceAllString(raw, "")
	clean = closingParen.ReplaceAllString(clean, "")
	clean = whitespaceRun.ReplaceAllString(clean, "")
	if isASCII(clean) {
		clean = strings.ToUpper(clean)
	}
	return strings.TrimSpace(clean)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
