package sector

import "testing"

func TestDetectHolding(t *testing.T) {
	isHolding, sub, score := detectHolding("한국테크홀딩스", "자회사 관리 및 경영컨설팅", nil)
	if !isHolding || sub != SubGeneralHolding {
		t.Fatalf("detectHolding = (%v, %q, %v)", isHolding, sub, score)
	}
	if score < 0.9 {
		t.Fatalf("expected name + summary signals, score %v", score)
	}

	isHolding, _, score = detectHolding("삼성전자", "반도체를 제조하여 판매", nil)
	if isHolding || score != 0 {
		t.Fatalf("operating company detected as holding: %v %v", isHolding, score)
	}

	// Summary phrases alone stay below the threshold.
	isHolding, _, score = detectHolding("어느회사", "배당금수익이 일부 발생", nil)
	if isHolding {
		t.Fatalf("summary-only signal crossed threshold: %v", score)
	}
}

func TestDetectHoldingFinancialSubSector(t *testing.T) {
	isHolding, sub, _ := detectHolding("우리금융지주", "금융그룹의 지주회사로서 은행 자회사를 보유", nil)
	if !isHolding || sub != SubFinancialHolding {
		t.Fatalf("detectHolding = (%v, %q)", isHolding, sub)
	}
}

func TestDetectFinancial(t *testing.T) {
	cases := []struct {
		name      string
		industry  string
		summary   string
		isFin     bool
		isHolding bool
		conf      float64
	}{
		{"신한지주", "", "", true, true, 0.95},
		{"KB금융", "", "", true, true, 0.95},
		{"한국카드", "", "", true, false, 0.90},
		{"어떤회사", "은행업", "", true, false, 0.85},
		{"어떤회사", "", "펀드 판매 및 자산운용", true, false, 0.70},
		{"투자회사", "투자", "투자 전문", false, false, 0},
		{"삼성전자", "반도체 제조업", "", false, false, 0},
	}
	for _, tc := range cases {
		isFin, isHolding, conf := detectFinancial(tc.name, tc.industry, tc.summary)
		if isFin != tc.isFin || isHolding != tc.isHolding || conf != tc.conf {
			t.Fatalf("detectFinancial(%q, %q, %q) = (%v, %v, %v), want (%v, %v, %v)",
				tc.name, tc.industry, tc.summary, isFin, isHolding, conf, tc.isFin, tc.isHolding, tc.conf)
		}
	}
}

func TestFinancialSectorFor(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"국민은행", SecBank},
		{"미래에셋증권", SecSecurities},
		{"삼성화재해상보험", SecInsurance},
		{"신한카드", SecCard},
		{"맥쿼리인프라리츠", SecREIT},
		{"어떤금융", SecFinance},
	}
	for _, tc := range cases {
		if got := financialSectorFor(tc.name); got != tc.want {
			t.Fatalf("financialSectorFor(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
