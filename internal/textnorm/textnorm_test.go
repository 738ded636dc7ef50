package textnorm

import "testing"

func TestNormalizeForIdentity(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "whitespace and thousands separators",
			in:   "  삼성전자는\n영업이익  1,000억원 -> 1,200억원  ",
			want: "삼성전자는 영업이익 1000억원 → 1200억원",
		},
		{
			name: "arrow variants collapse",
			in:   "A -> B => C",
			want: "a → b → c",
		},
		{
			name: "nested thousands separators",
			in:   "1,234,567",
			want: "1234567",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeForIdentity(tc.in)
			if got != tc.want {
				t.Fatalf("NormalizeForIdentity(%q) = %q, want %q", tc.in, got, tc.want)
			}
			if again := NormalizeForIdentity(got); again != got {
				t.Fatalf("not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestNormalizeForFuzzy(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "numbers and corporate entity masked",
			in:   "삼성전자는 2025년 영업이익이 1,000억원 -> 1,200억원으로 증가",
			want: "<ENTITY> 는 <NUM> 년 영업이익이 <NUM> 억원 → <NUM> 억원으로 증가",
		},
		{
			name: "date masked before numbers",
			in:   "발표일 25.12.23 기준",
			want: "발표일 <DATE> 기준",
		},
		{
			name: "numeric ticker masked before numbers",
			in:   "삼성전자(005930) 전망",
			want: "<ENTITY> <TICKER> 전망",
		},
		{
			name: "alpha ticker masked",
			in:   "애플(AAPL) 실적",
			want: "애플<TICKER> 실적",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizeForFuzzy(tc.in)
			if got != tc.want {
				t.Fatalf("NormalizeForFuzzy(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeForFuzzyCollapsesNumericVariants(t *testing.T) {
	a := NormalizeForFuzzy("영업이익 1,000억원 증가")
	b := NormalizeForFuzzy("영업이익 1200억원 증가")
	if a != b {
		t.Fatalf("expected identical fuzzy forms, got %q vs %q", a, b)
	}
}

func TestNormalizeCompanyName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"㈜삼성전기", "삼성전기"},
		{"삼성전기(주)", "삼성전기"},
		{"주식회사 카카오", "카카오"},
		{"Samsung Electro-Mechanics", "SAMSUNGELECTRO-MECHANICS"},
		{"  삼성 전자  ", "삼성전자"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeCompanyName(tc.in); got != tc.want {
			t.Fatalf("NormalizeCompanyName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
