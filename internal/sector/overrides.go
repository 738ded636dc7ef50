package sector

import (
	"regexp"
	"strings"
)

// Holding sub-sector labels.
const (
	SubFinancialHolding  = "FINANCIAL_HOLDING"
	SubIndustrialHolding = "INDUSTRIAL_HOLDING"
	SubGeneralHolding    = "GENERAL_HOLDING"
)

var holdingNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`홀딩스?$`),
	regexp.MustCompile(`지주$`),
	regexp.MustCompile(`지주사$`),
	regexp.MustCompile(`지주회사$`),
}

var holdingSummaryPhrases = []string{
	"지주회사", "지주사업", "자회사 관리", "자회사의 관리", "경영컨설팅",
	"배당금수익", "배당수익", "브랜드사용료", "상표권사용", "경영자문",
}

var holdingKeywords = []string{"지주", "홀딩스", "홀딩"}

// detectHolding scores holding-company signals: a holding-style name is
// the strong signal (+0.6), business-summary phrases add +0.3 and bare
// keywords +0.1. Threshold 0.5 means a name hit alone is decisive but
// summary phrases alone are not.
func detectHolding(name, businessSummary string, keywords []string) (bool, string, float64) {
	compactName := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	summary := strings.ToLower(businessSummary)

	score := 0.0
	for _, re := range holdingNamePatterns {
		if re.MatchString(compactName) {
			score += 0.6
			break
		}
	}
	for _, p := range holdingSummaryPhrases {
		if strings.Contains(summary, strings.ToLower(p)) {
			score += 0.3
			break
		}
	}
	for _, kw := range keywords {
		lk := strings.ToLower(strings.TrimSpace(kw))
		for _, hk := range holdingKeywords {
			if strings.Contains(lk, hk) {
				score += 0.1
				break
			}
		}
		if score >= 1.0 {
			break
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	if score < 0.5 {
		return false, "", score
	}
	return true, holdingSubSector(summary), score
}

func holdingSubSector(summary string) string {
	for _, kw := range []string{"금융지주", "금융그룹", "은행", "증권", "보험"} {
		if strings.Contains(summary, kw) {
			return SubFinancialHolding
		}
	}
	for _, kw := range []string{"제조", "산업"} {
		if strings.Contains(summary, kw) {
			return SubIndustrialHolding
		}
	}
	return SubGeneralHolding
}

var financialHoldingNames = []string{
	"금융지주", "kb금융", "신한지주", "하나금융지주", "우리금융지주",
	"메리츠금융지주", "은행지주", "보험지주",
}

var financialNameTokens = []string{
	"금융", "은행", "증권", "보험", "카드", "캐피탈", "리츠",
	"bank", "securities", "insurance", "card", "capital", "reit",
}

// financialNameSectors maps the name token that fired to the concrete
// financial sector; ordered so the specific businesses win over the
// generic 금융 bucket.
var financialNameSectors = []struct {
	token  string
	sector string
}{
	{"은행", SecBank}, {"bank", SecBank},
	{"증권", SecSecurities}, {"securities", SecSecurities},
	{"보험", SecInsurance}, {"insurance", SecInsurance},
	{"카드", SecCard}, {"card", SecCard},
	{"캐피탈", SecCard}, {"capital", SecCard},
	{"리츠", SecREIT}, {"reit", SecREIT},
	{"금융", SecFinance},
}

// financialSectorFor resolves a detected financial company to its
// sector; falls back to the generic financial bucket.
func financialSectorFor(name string) string {
	lowName := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	for _, m := range financialNameSectors {
		if strings.Contains(lowName, m.token) {
			return m.sector
		}
	}
	return SecFinance
}

// industryEssenceKeywords are terms only a regulated financial business
// would use about itself.
var industryEssenceKeywords = []string{
	"은행업", "보험업", "증권업", "여신전문", "자본시장법", "보험업법",
	"금융업", "투자매매업", "투자중개업", "ib", "브로커리지",
}

var generalFinancialKeywords = []string{
	"대출", "예금", "수신", "여신", "보험료", "펀드", "자산운용", "리스",
}

// detectFinancial classifies financial-company signals on a confidence
// ladder: holding-group name 0.95, financial name token 0.90, industry
// essence keyword 0.85, general financial keyword 0.70. "투자" alone is
// deliberately not financial (every conglomerate invests).
func detectFinancial(name, registryIndustry, businessSummary string) (isFinancial, isFinancialHolding bool, confidence float64) {
	lowName := strings.ToLower(strings.ReplaceAll(name, " ", ""))
	for _, p := range financialHoldingNames {
		if strings.Contains(lowName, p) {
			return true, true, 0.95
		}
	}
	if strings.Contains(lowName, "kb") && strings.Contains(lowName, "금융") {
		return true, true, 0.95
	}
	for _, tok := range financialNameTokens {
		if strings.Contains(lowName, tok) {
			return true, false, 0.90
		}
	}
	text := strings.ToLower(registryIndustry + " " + businessSummary)
	for _, kw := range industryEssenceKeywords {
		if strings.Contains(text, kw) {
			return true, false, 0.85
		}
	}
	for _, kw := range generalFinancialKeywords {
		if strings.Contains(text, kw) {
			return true, false, 0.70
		}
	}
	return false, false, 0
}
