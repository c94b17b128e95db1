package classifier

import (
	"regexp"
	"strings"
)

// Reason records which tier decided a sentence verdict
type Reason string

const (
	ReasonSafeIndicator Reason = "safe_indicator"
	ReasonScamIndicator Reason = "scam_indicator"
	ReasonWeightedScore Reason = "weighted_score"
)

// Signal is a weighted pattern used by the fallback scoring tier
type Signal struct {
	Name    string
	Pattern *regexp.Regexp
	Weight  int
}

// DefaultSafeIndicators suppress suspicion (news, official sources).
// Entries containing '.' never match a split sentence.
var DefaultSafeIndicators = []string{
	"ข่าวสาร", "ข่าว", "บทความ", "การศึกษา", "วิจัย", "สถิติ", "รายงาน",
	"ประกาศ", "แจ้งเตือน", "เตือนภัย", "ป้องกัน", "ความปลอดภัย",
	"ธนาคารแห่งประเทศไทย", "ก.ล.ต.", "ตำรวจ", "หน่วยงานราชการ",
	"เว็บไซต์ทางการ", "https://", "www.", ".gov.th", ".ac.th",
}

// DefaultScamIndicators confirm suspicion on their own
var DefaultScamIndicators = []string{
	"โอนเงินด่วน", "โอนเงินทันที", "โอนเงินตอนนี้", "โอนเงินภายใน 1 ชั่วโมง",
	"รางวัลใหญ่", "รางวัลมหาศาล", "รางวัลพิเศษ", "รางวัลเฉพาะคุณ",
	"ฟรี 100%", "ฟรีทันที", "ฟรีไม่มีเงื่อนไข", "ฟรีไม่มีค่าใช้จ่าย",
	"กำไร 500%", "กำไร 1000%", "กำไรมหาศาล", "กำไรทันที",
	"ลงทุนน้อย กำไรมาก", "ลงทุน 1000 ได้ 10000",
	"คลิกลิงก์เพื่อรับ", "คลิกลิงก์เพื่อโอน", "คลิกลิงก์เพื่อยืนยัน",
	"OTP ด่วน", "รหัส OTP", "ยืนยัน OTP", "ส่ง OTP",
	"หมายจับ", "ค่าปรับ", "คดีความ", "ถูกฟ้อง", "ถูกดำเนินคดี",
	"บัญชีถูกระงับ", "บัญชีถูกบล็อก", "บัญชีมีปัญหา",
	"ธนาคารแจ้ง", "ธนาคารขอ", "ธนาคารต้องการ", "ธนาคารติดต่อ",
}

// DefaultSignals are the fallback-tier detectors
func DefaultSignals() []Signal {
	return []Signal{
		{Name: "urgency", Pattern: regexp.MustCompile(`(?i)(ด่วน|ทันที|ตอนนี้|ภายใน|รีบ|เร่ง|ฉุกเฉิน)`), Weight: 2},
		{Name: "pressure", Pattern: regexp.MustCompile(`(?i)(ต้อง|จำเป็น|สำคัญ|ขาดไม่ได้|ห้ามพลาด)`), Weight: 2},
		{Name: "money", Pattern: regexp.MustCompile(`(?i)(เงิน|บาท)`), Weight: 1},
		{Name: "action", Pattern: regexp.MustCompile(`(?i)(คลิก|กด|โอน|ส่ง|ยืนยัน|ให้)`), Weight: 1},
	}
}

// DefaultSuspicionThreshold is the fallback score at which a sentence is suspicious
const DefaultSuspicionThreshold = 4

// ContextRules decide whether a keyword-bearing sentence is suspicious.
// Tiers apply in strict order: safe indicators, scam indicators, weighted signals.
type ContextRules struct {
	safe      []string
	scam      []string
	signals   []Signal
	threshold int
}

// NewContextRules builds rules from indicator lists and signals
func NewContextRules(safe, scam []string, signals []Signal, threshold int) *ContextRules {
	return &ContextRules{
		safe:      lowerAll(safe),
		scam:      lowerAll(scam),
		signals:   signals,
		threshold: threshold,
	}
}

// DefaultContextRules returns the built-in rules
func DefaultContextRules() *ContextRules {
	return NewContextRules(DefaultSafeIndicators, DefaultScamIndicators, DefaultSignals(), DefaultSuspicionThreshold)
}

// Assess returns the verdict for a sentence along with the deciding tier and,
// for the weighted tier, the score.
func (r *ContextRules) Assess(sentence string, matched []string) (bool, Reason, int) {
	lower := strings.ToLower(sentence)

	if containsAny(lower, r.safe) {
		return false, ReasonSafeIndicator, 0
	}
	if containsAny(lower, r.scam) {
		return true, ReasonScamIndicator, 0
	}

	score := len(matched)
	for _, s := range r.signals {
		if s.Pattern.MatchString(sentence) {
			score += s.Weight
		}
	}
	return score >= r.threshold, ReasonWeightedScore, score
}

// IsSuspicious reports the verdict only
func (r *ContextRules) IsSuspicious(sentence string, matched []string) bool {
	suspicious, _, _ := r.Assess(sentence, matched)
	return suspicious
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
