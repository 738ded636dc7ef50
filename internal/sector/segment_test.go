package sector

import "testing"

func TestNormalizeSegmentName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"반도체 사업부문", "반도체"},
		{"반도체 사업부문(메모리)", "반도체"},
		{"DS부문", "ds"},
		{"기 타", "기타"},
		{"이차전지", "2차전지"},
		{"IT서비스 사업", "it서비스"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeSegmentName(tc.in); got != tc.want {
			t.Fatalf("NormalizeSegmentName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIsNeutralSegment(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"기타", true},
		{"기타매출", true},
		{"수출", true},
		{"합계", true},
		{"반도체", false},
		{"화장품", false},
	}
	for _, tc := range cases {
		if got := isNeutralSegment(NormalizeSegmentName(tc.in)); got != tc.want {
			t.Fatalf("isNeutralSegment(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestMapSegmentToSector(t *testing.T) {
	tax := DefaultTaxonomy()
	cases := []struct {
		in     string
		sector string
		ok     bool
	}{
		{"반도체", SecSemi, true},
		{"석유화학제품", SecChem, true},
		{"완성차", SecAuto, true},
		{"배당금수익", SecHolding, true},
		{"항공유", SecEnergy, true},
		{"호텔", SecTravel, true},
		{"아무것도아닌것", "", false},
	}
	for _, tc := range cases {
		sec, ok := tax.mapSegmentToSector(NormalizeSegmentName(tc.in))
		if ok != tc.ok || sec != tc.sector {
			t.Fatalf("mapSegmentToSector(%q) = (%q, %v), want (%q, %v)", tc.in, sec, ok, tc.sector, tc.ok)
		}
	}
}

func TestMapSegmentToSectorAviationGuard(t *testing.T) {
	tax := DefaultTaxonomy()
	// An airline segment mentioning fuel must not land in energy.
	if sec, ok := tax.mapSegmentToSector("항공경유운항"); ok && sec == SecEnergy {
		t.Fatalf("airline segment mapped to energy: %q", sec)
	}
	// Jet fuel itself is an energy product.
	if sec, ok := tax.mapSegmentToSector("항공유판매"); !ok || sec != SecEnergy {
		t.Fatalf("jet fuel segment = (%q, %v), want (%q, true)", sec, ok, SecEnergy)
	}
}
