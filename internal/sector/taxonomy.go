package sector

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	types "github.com/yungbote/finsight-backend/internal/domain"
	"github.com/yungbote/finsight-backend/internal/pkg/logger"
	"github.com/yungbote/finsight-backend/internal/utils"
)

// Sector codes. The taxonomy follows the Korean market convention the
// upstream extractors emit.
const (
	SecSemi        = "SEC_SEMI"
	SecIT          = "SEC_IT"
	SecGame        = "SEC_GAME"
	SecAuto        = "SEC_AUTO"
	SecBattery     = "SEC_BATTERY"
	SecEnergy      = "SEC_ENERGY"
	SecChem        = "SEC_CHEM"
	SecSteel       = "SEC_STEEL"
	SecConst       = "SEC_CONST"
	SecBank        = "SEC_BANK"
	SecInsurance   = "SEC_INS"
	SecSecurities  = "SEC_SEC"
	SecCard        = "SEC_CARD"
	SecFinance     = "SEC_FINANCE"
	SecHolding     = "SEC_HOLDING"
	SecREIT        = "SEC_REIT"
	SecElectronics = "SEC_ELECTRONICS"
	SecBio         = "SEC_BIO"
	SecFood        = "SEC_FOOD"
	SecCosmetic    = "SEC_COSMETIC"
	SecFashion     = "SEC_FASHION"
	SecRetail      = "SEC_RETAIL"
	SecTelecom     = "SEC_TELECOM"
	SecEnt         = "SEC_ENT"
	SecTravel      = "SEC_TRAVEL"
	SecUtil        = "SEC_UTIL"
	SecShip        = "SEC_SHIP"
	SecMach        = "SEC_MACH"
)

// neutralSegments are revenue lines that carry no sector signal
// ("other", geography splits, totals). They are excluded from scoring
// and counted toward the neutral ratio.
var neutralSegments = []string{
	"기타", "other", "그외", "상품", "제품", "용역", "서비스",
	"기타사업", "기타부문", "기타매출", "기타제품", "기타사업부문",
	"상품매출", "제품매출", "용역매출", "기타수입", "기타수익",
	"수출", "내수", "해외", "국내", "미국", "중국", "해외사업부문",
	"완제품", "합계", "매출", "수수료매출",
}

// segmentSectorMap maps revenue segment names to sectors. Matching is
// longest-keyword-first; keywords shorter than 4 runes match exactly
// unless allowlisted for contains matching.
var segmentSectorMap = map[string]string{
	// 건설
	"건설": SecConst, "건설부문": SecConst, "건축": SecConst, "부동산": SecConst,
	"인프라": SecConst, "주택": SecConst, "토목": SecConst, "부동산개발": SecConst,
	"공사": SecConst, "공사수익": SecConst,
	// 유통/상사
	"상사": SecRetail, "트레이딩": SecRetail, "무역": SecRetail, "유통": SecRetail,
	"도매": SecRetail, "물류": SecRetail, "운송": SecRetail, "운송사업": SecRetail,
	// 바이오
	"바이오": SecBio, "제약": SecBio, "의약품": SecBio, "헬스케어": SecBio,
	"의료기기": SecBio, "원료의약품": SecBio, "항생제": SecBio,
	// 자동차
	"차량": SecAuto, "자동차": SecAuto, "완성차": SecAuto, "모빌리티": SecAuto,
	"자동차부품": SecAuto, "타이어": SecAuto, "전장부품": SecAuto,
	// 반도체
	"반도체": SecSemi, "DS": SecSemi, "메모리": SecSemi, "파운드리": SecSemi,
	"비메모리": SecSemi, "반도체소재": SecSemi, "반도체장비": SecSemi,
	// 전자
	"가전": SecElectronics, "DX": SecElectronics, "전자": SecElectronics,
	"디스플레이": SecElectronics, "전자부품": SecElectronics, "전자재료": SecElectronics,
	"OLED": SecElectronics,
	// 에너지(정유/연료)
	"석유": SecEnergy, "정유": SecEnergy, "휘발유": SecEnergy, "경유": SecEnergy,
	"등유": SecEnergy, "연료유": SecEnergy, "윤활유": SecEnergy, "윤활기유": SecEnergy,
	"항공유": SecEnergy,
	// 화학
	"화학": SecChem, "석유화학": SecChem, "케미칼": SecChem, "정밀화학": SecChem,
	"나프타": SecChem, "벤젠": SecChem, "올레핀": SecChem, "아로마틱": SecChem,
	// 금융
	"금융": SecFinance, "금융부문": SecFinance,
	"은행": SecBank, "여신": SecBank, "저축은행": SecBank,
	"보험": SecInsurance, "생명보험": SecInsurance, "손해보험": SecInsurance,
	"증권": SecSecurities, "금융투자": SecSecurities, "자산운용": SecSecurities,
	"카드": SecCard, "신용카드": SecCard, "캐피탈": SecCard,
	// 소비재
	"식품": SecFood, "음료": SecFood, "식자재": SecFood, "사료": SecFood,
	"건강기능식품": SecFood,
	"화장품": SecCosmetic, "뷰티": SecCosmetic, "코스메틱": SecCosmetic,
	"섬유": SecFashion, "패션": SecFashion, "의류": SecFashion,
	// 소재/산업
	"철강": SecSteel, "금속": SecSteel, "1차금속": SecSteel, "강관": SecSteel,
	"통신": SecTelecom, "이동통신": SecTelecom, "정보통신": SecTelecom,
	"미디어": SecEnt, "엔터테인먼트": SecEnt, "콘텐츠": SecEnt, "게임": SecEnt,
	"광고": SecEnt,
	"리조트": SecTravel, "레저": SecTravel, "호텔": SecTravel, "여행사": SecTravel,
	"항공사": SecTravel, "관광": SecTravel,
	"전력": SecUtil, "에너지": SecUtil, "발전": SecUtil, "가스": SecUtil,
	"도시가스": SecUtil, "환경사업": SecUtil,
	"배터리": SecBattery, "이차전지": SecBattery, "2차전지": SecBattery,
	"양극재": SecBattery, "음극재": SecBattery,
	"조선": SecShip, "해운": SecShip, "선박": SecShip,
	"기계": SecMach, "중공업": SecMach, "플랜트": SecMach, "농기계": SecMach,
	"솔루션": SecIT, "시스템통합": SecIT, "소프트웨어": SecIT, "IT서비스": SecIT,
	// 지주회사 특유의 매출 라인
	"배당금수익": SecHolding, "배당수익": SecHolding, "상표권사용": SecHolding,
	"로열티": SecHolding, "브랜드사용료": SecHolding, "임대수익": SecHolding,
	"임대": SecHolding, "투자부문": SecHolding, "자회사": SecHolding,
	"계열사": SecHolding, "지주회사": SecHolding, "지주부문": SecHolding,
}

// shortKeywordAllowlist lists keywords under 4 runes that may match by
// containment. Everything else that short matches exactly only, which
// keeps tokens like "전자" from absorbing unrelated segments.
var shortKeywordAllowlist = map[string]bool{
	"석유": true, "화학": true, "정유": true, "나프타": true, "벤젠": true,
	"경유": true, "등유": true, "연료유": true, "윤활유": true, "항공유": true,
}

// criticalSectorMinLen guards sectors prone to false positives: their
// keywords need at least this many runes to match by containment.
var criticalSectorMinLen = map[string]int{
	SecTravel: 3,
	SecEnt:    3,
}

// sectorKeywords backs the keyword and product evidence channels.
var sectorKeywords = map[string]struct {
	Keywords []string
	Products []string
}{
	SecSemi: {
		Keywords: []string{"반도체", "메모리", "DRAM", "NAND", "HBM", "웨이퍼", "칩", "패키징", "파운드리"},
		Products: []string{"반도체", "메모리", "DRAM", "NAND", "HBM", "SSD", "웨이퍼", "칩"},
	},
	SecIT: {
		Keywords: []string{"소프트웨어", "플랫폼", "클라우드", "SaaS", "보안", "인터넷", "솔루션"},
		Products: []string{"소프트웨어", "플랫폼", "앱", "보안", "클라우드"},
	},
	SecGame: {
		Keywords: []string{"게임", "모바일게임", "온라인게임", "게임개발", "퍼블리싱"},
		Products: []string{"게임", "모바일게임", "온라인게임"},
	},
	SecAuto: {
		Keywords: []string{"자동차", "차량", "전기차", "자동차부품", "전장", "모터"},
		Products: []string{"자동차", "전기차", "부품", "모터"},
	},
	SecBattery: {
		Keywords: []string{"배터리", "2차전지", "양극재", "음극재", "전해액", "리튬", "니켈"},
		Products: []string{"배터리", "2차전지", "양극재", "음극재", "전해액"},
	},
	SecEnergy: {
		Keywords: []string{"석유", "정유", "휘발유", "경유", "등유", "연료유", "윤활유"},
		Products: []string{"석유", "정유", "휘발유", "경유", "연료유"},
	},
	SecChem: {
		Keywords: []string{"화학", "석유화학", "나프타", "벤젠", "올레핀", "폴리머", "수지"},
		Products: []string{"화학", "석유화학", "나프타", "폴리머"},
	},
	SecSteel: {
		Keywords: []string{"철강", "강판", "강재", "제철", "압연"},
		Products: []string{"철강", "강판", "강재"},
	},
	SecConst: {
		Keywords: []string{"건설", "건축", "토목", "인프라", "플랜트", "공사"},
		Products: []string{"건설", "건축", "토목", "인프라"},
	},
	SecBank: {
		Keywords: []string{"은행", "대출", "예금", "저축"},
		Products: []string{"은행", "대출", "예금"},
	},
	SecInsurance: {
		Keywords: []string{"보험", "생명보험", "손해보험", "재보험"},
		Products: []string{"보험", "생명보험", "손해보험"},
	},
	SecSecurities: {
		Keywords: []string{"증권", "자산운용", "브로커리지", "투자은행"},
		Products: []string{"증권", "자산운용"},
	},
	SecHolding: {
		Keywords: []string{"지주", "홀딩스", "배당금수익", "임대수익", "브랜드사용료", "로열티", "계열사", "경영컨설팅"},
		Products: []string{"배당금수익", "임대수익", "브랜드사용료", "로열티", "경영관리용역"},
	},
	SecElectronics: {
		Keywords: []string{"전자", "가전", "TV", "냉장고", "세탁기", "모니터", "디스플레이"},
		Products: []string{"TV", "냉장고", "세탁기", "에어컨", "모니터"},
	},
	SecBio: {
		Keywords: []string{"바이오", "제약", "백신", "신약", "진단", "의약품"},
		Products: []string{"바이오", "제약", "백신", "의약품"},
	},
	SecFood: {
		Keywords: []string{"식품", "음료", "급식", "식자재"},
		Products: []string{"식품", "음료"},
	},
	SecRetail: {
		Keywords: []string{"유통", "물류", "무역", "트레이딩", "도매"},
		Products: []string{"유통", "물류"},
	},
	SecTelecom: {
		Keywords: []string{"통신", "이동통신", "5G", "네트워크"},
		Products: []string{"통신", "네트워크"},
	},
	SecEnt: {
		Keywords: []string{"미디어", "엔터테인먼트", "콘텐츠", "방송"},
		Products: []string{"콘텐츠", "방송"},
	},
	SecTravel: {
		Keywords: []string{"리조트", "호텔", "여행사", "항공사", "관광"},
		Products: []string{"호텔", "여행"},
	},
	SecUtil: {
		Keywords: []string{"전력", "발전", "도시가스", "중전기"},
		Products: []string{"전력", "가스"},
	},
	SecShip: {
		Keywords: []string{"조선", "해운", "선박", "수주"},
		Products: []string{"선박"},
	},
	SecMach: {
		Keywords: []string{"기계", "중공업", "플랜트", "공작기계"},
		Products: []string{"기계", "플랜트"},
	},
}

// valueChainKeywords drives the UPSTREAM/MIDSTREAM/DOWNSTREAM call per
// sector; genericValueChainKeywords covers sectors without a dedicated
// table.
var valueChainKeywords = map[string]map[string][]string{
	SecSemi: {
		types.PositionUpstream:   {"웨이퍼", "소재", "화학약품", "소부장", "실리콘", "장비"},
		types.PositionMidstream:  {"제조", "공정", "패키징", "테스트", "식각", "증착"},
		types.PositionDownstream: {"판매", "고객사", "납품", "모듈", "칩 판매"},
	},
	SecBattery: {
		types.PositionUpstream:   {"양극재", "음극재", "전해액", "분리막", "리튬", "니켈", "원재료"},
		types.PositionMidstream:  {"셀 제조", "배터리팩", "제조", "생산"},
		types.PositionDownstream: {"배터리 판매", "전기차 납품", "판매", "납품"},
	},
	SecAuto: {
		types.PositionUpstream:   {"부품", "소재", "강판", "전자부품", "모터", "센서"},
		types.PositionMidstream:  {"조립", "용접", "도장", "완성차 제조", "생산라인"},
		types.PositionDownstream: {"판매", "딜러", "고객", "정비"},
	},
	SecChem: {
		types.PositionUpstream:   {"나프타", "원유", "원재료", "납사"},
		types.PositionMidstream:  {"분해", "정제", "중합", "생산"},
		types.PositionDownstream: {"판매", "수지 판매", "고객사"},
	},
}

var genericValueChainKeywords = map[string][]string{
	types.PositionUpstream:   {"원재료", "소재", "조달", "채굴", "부품"},
	types.PositionMidstream:  {"제조", "생산", "가공", "조립", "공정"},
	types.PositionDownstream: {"판매", "유통", "서비스", "고객", "납품"},
}

// priceSensitivity weights each sector's stock-price responsiveness to
// sector-level drivers. Used only for the primary tie-break.
var priceSensitivity = map[string]float64{
	SecSemi: 0.9, SecBattery: 0.9, SecGame: 0.85, SecBio: 0.85,
	SecAuto: 0.8, SecChem: 0.8, SecEnergy: 0.8, SecShip: 0.8,
	SecElectronics: 0.75, SecIT: 0.75, SecSteel: 0.7, SecConst: 0.7,
	SecBank: 0.65, SecSecurities: 0.65, SecInsurance: 0.6, SecCard: 0.6,
	SecFinance: 0.6, SecRetail: 0.55, SecFood: 0.5, SecCosmetic: 0.55,
	SecFashion: 0.5, SecTelecom: 0.45, SecEnt: 0.6, SecTravel: 0.6,
	SecUtil: 0.4, SecMach: 0.65, SecHolding: 0.25, SecREIT: 0.2,
}

// nonPrimarySectors never win the primary slot while any other sector
// is assigned.
var nonPrimarySectors = map[string]bool{
	SecHolding: true,
	SecREIT:    true,
}

// Override pins a company to a fixed classification; used for market
// bellwethers where revenue tables routinely mislead (holding-style
// disclosure, consolidated subsidiaries).
type Override struct {
	MajorSector        string `yaml:"major_sector"`
	SubSector          string `yaml:"sub_sector"`
	ValueChainPosition string `yaml:"value_chain_position"`
}

var majorCompanyOverrides = map[string]Override{
	"005930": {SecSemi, "MEMORY", types.PositionMidstream},
	"000660": {SecSemi, "MEMORY", types.PositionMidstream},
	"373220": {SecBattery, "CELL", types.PositionMidstream},
	"006400": {SecBattery, "CELL", types.PositionMidstream},
	"005380": {SecAuto, "OEM", types.PositionDownstream},
	"000270": {SecAuto, "OEM", types.PositionDownstream},
	"012330": {SecAuto, "PARTS", types.PositionMidstream},
	"207940": {SecBio, "CMO", types.PositionMidstream},
	"068270": {SecBio, "BIOTECH", types.PositionMidstream},
	"329180": {SecShip, "SHIPBUILDING", types.PositionMidstream},
	"042660": {SecShip, "SHIPBUILDING", types.PositionMidstream},
	"010140": {SecShip, "SHIPBUILDING", types.PositionMidstream},
	"096770": {SecChem, "PETROCHEM", types.PositionMidstream},
}

// Taxonomy bundles the tables the classifier reads. The built-in tables
// can be extended (never truncated) through a YAML file so taxonomy
// curation does not require a rebuild.
type Taxonomy struct {
	segmentSectorMap map[string]string
	priceSensitivity map[string]float64
	companyOverrides map[string]Override
	// segmentKeywords is segmentSectorMap's keys sorted longest-first so
	// the most specific keyword wins ("석유화학" before "석유").
	segmentKeywords []string
}

type taxonomyFile struct {
	SegmentSectorMap map[string]string   `yaml:"segment_sector_map"`
	PriceSensitivity map[string]float64  `yaml:"price_sensitivity"`
	CompanyOverrides map[string]Override `yaml:"company_overrides"`
}

// DefaultTaxonomy returns the built-in tables.
func DefaultTaxonomy() *Taxonomy {
	t := &Taxonomy{
		segmentSectorMap: make(map[string]string, len(segmentSectorMap)),
		priceSensitivity: make(map[string]float64, len(priceSensitivity)),
		companyOverrides: make(map[string]Override, len(majorCompanyOverrides)),
	}
	for k, v := range segmentSectorMap {
		t.segmentSectorMap[k] = v
	}
	for k, v := range priceSensitivity {
		t.priceSensitivity[k] = v
	}
	for k, v := range majorCompanyOverrides {
		t.companyOverrides[k] = v
	}
	t.rebuildSegmentIndex()
	return t
}

func (t *Taxonomy) rebuildSegmentIndex() {
	t.segmentKeywords = make([]string, 0, len(t.segmentSectorMap))
	for k := range t.segmentSectorMap {
		t.segmentKeywords = append(t.segmentKeywords, k)
	}
	sort.Slice(t.segmentKeywords, func(i, j int) bool {
		ki, kj := t.segmentKeywords[i], t.segmentKeywords[j]
		li, lj := len([]rune(ki)), len([]rune(kj))
		if li != lj {
			return li > lj
		}
		return ki < kj
	})
}

// LoadTaxonomy builds the default taxonomy and merges the YAML file at
// SECTOR_TAXONOMY_PATH over it, if set.
func LoadTaxonomy(baseLog *logger.Logger) (*Taxonomy, error) {
	t := DefaultTaxonomy()
	path := utils.GetEnv("SECTOR_TAXONOMY_PATH", "", baseLog)
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sector taxonomy %s: %w", path, err)
	}
	var f taxonomyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse sector taxonomy %s: %w", path, err)
	}
	for k, v := range f.SegmentSectorMap {
		t.segmentSectorMap[k] = v
	}
	for k, v := range f.PriceSensitivity {
		t.priceSensitivity[k] = v
	}
	for k, v := range f.CompanyOverrides {
		t.companyOverrides[k] = v
	}
	t.rebuildSegmentIndex()
	baseLog.Info("sector taxonomy extended from file", "path", path,
		"segments", len(f.SegmentSectorMap), "overrides", len(f.CompanyOverrides))
	return t, nil
}

func (t *Taxonomy) PriceSensitivity(sector string) float64 {
	return t.priceSensitivity[sector]
}
