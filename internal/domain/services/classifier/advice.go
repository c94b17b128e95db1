package classifier

import (
	"strings"

	"scamguard-lab/internal/domain/models"
)

const (
	explanationPrefix      = "พบประโยคที่สงสัย: "
	explanationNoSignal    = "ไม่พบสัญญาณการหลอกลวง"
	explanationNoContent   = "ไม่มีเนื้อหาให้วิเคราะห์"
	explanationFailed      = "ไม่สามารถวิเคราะห์ข้อความได้"
	recommendationTryAgain = "🔄 กรุณาลองใหม่อีกครั้ง และระวังข้อความที่ไม่แน่ใจ"
)

var tierAdvice = map[models.RiskLevel][]string{
	models.RiskLevelHigh: {
		"⚠️ พบสัญญาณการหลอกลวง! แนะนำให้ระวังและไม่ดำเนินการตามข้อความนี้",
		"🔒 อย่าให้ข้อมูลส่วนตัว เช่น รหัสผ่าน, OTP, หมายเลขบัตร",
		"💰 อย่าโอนเงินหรือชำระค่าธรรมเนียมใดๆ",
	},
	models.RiskLevelMedium: {
		"⚠️ พบคำเสี่ยงบางคำ แนะนำให้ตรวจสอบให้ดีก่อนดำเนินการ",
		"🔍 ตรวจสอบแหล่งที่มาของข้อความให้แน่ใจ",
	},
	models.RiskLevelLow: {
		"✅ เนื้อหาดูปลอดภัย แต่ควรระวังเสมอ",
	},
}

// typeAdvice is matched by substring against the scam type, in order
var typeAdvice = []struct {
	match  string
	advice string
}{
	{"Call Center", "📞 อย่าเชื่อโทรศัพท์ที่อ้างเป็นธนาคาร/ตำรวจ ให้โทรกลับไปที่หมายเลขจริง"},
	{"Phishing", "🔗 อย่าคลิกลิงก์ที่สงสัย ให้เข้าเว็บไซต์โดยตรง"},
	{"Investment", "📈 ระวังการลงทุนที่สัญญากำไรสูงผิดปกติ"},
}

// Recommendations returns tier advice followed by at most one line of
// scam-type advice
func Recommendations(level models.RiskLevel, scamType string) []string {
	recs := append([]string(nil), tierAdvice[level]...)
	for _, t := range typeAdvice {
		if strings.Contains(scamType, t.match) {
			recs = append(recs, t.advice)
			break
		}
	}
	return recs
}

// Explanation lists the suspicious sentences
func Explanation(sentences []string) string {
	if len(sentences) == 0 {
		return explanationNoSignal
	}
	return explanationPrefix + strings.Join(sentences, "; ")
}

// NoContentResult is returned for empty or whitespace-only input
func NoContentResult() models.AnalysisResult {
	return models.AnalysisResult{
		RiskLevel:       models.RiskLevelLow,
		ScamType:        ScamTypeNoContent,
		Keywords:        []string{},
		Explanation:     explanationNoContent,
		Recommendations: []string{explanationNoContent},
		Source:          models.AnalysisSourceHeuristic,
	}
}

// FailedResult is returned when analysis hit an internal fault
func FailedResult() models.AnalysisResult {
	return models.AnalysisResult{
		RiskLevel:       models.RiskLevelLow,
		ScamType:        ScamTypeUnknown,
		Keywords:        []string{},
		Explanation:     explanationFailed,
		Recommendations: []string{recommendationTryAgain},
		Source:          models.AnalysisSourceHeuristic,
	}
}
