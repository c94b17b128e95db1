package classifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamguard-lab/internal/domain/models"
)

const (
	urgentTransferText = "กรุณาโอนเงินด่วนภายใน 1 ชั่วโมงเพื่อรับรางวัลใหญ่ คลิกลิงก์นี้เพื่อยืนยัน OTP"
	centralBankText    = "ธนาคารแห่งประเทศไทยประกาศเตือนประชาชนเรื่องมิจฉาชีพที่แอบอ้างเป็นธนาคาร"
)

func TestClassifyEmptyInput(t *testing.T) {
	c := Default()

	for _, text := range []string{"", "   ", "\n\t"} {
		result := c.Classify(text, nil)
		assert.False(t, result.IsScam)
		assert.Equal(t, models.RiskLevelLow, result.RiskLevel)
		assert.Equal(t, 0, result.Confidence)
		assert.Equal(t, ScamTypeNoContent, result.ScamType)
		assert.Equal(t, []string{}, result.Keywords)
		assert.Equal(t, []string{"ไม่มีเนื้อหาให้วิเคราะห์"}, result.Recommendations)
	}
}

func TestClassifyUrgentTransfer(t *testing.T) {
	wantKeywords := []string{"โอนเงิน", "รางวัล", "คลิก", "ลิงก์", "OTP", "ยืนยัน"}

	t.Run("without history", func(t *testing.T) {
		result := Default().Classify(urgentTransferText, nil)

		assert.True(t, result.IsScam)
		assert.Equal(t, models.RiskLevelMedium, result.RiskLevel)
		assert.Equal(t, 25, result.Confidence)
		assert.Equal(t, wantKeywords, result.Keywords)
		assert.Equal(t, ScamTypeCallCenter, result.ScamType)
		assert.Equal(t, "พบประโยคที่สงสัย: "+urgentTransferText, result.Explanation)
		assert.Equal(t, []string{
			"⚠️ พบคำเสี่ยงบางคำ แนะนำให้ตรวจสอบให้ดีก่อนดำเนินการ",
			"🔍 ตรวจสอบแหล่งที่มาของข้อความให้แน่ใจ",
			"📞 อย่าเชื่อโทรศัพท์ที่อ้างเป็นธนาคาร/ตำรวจ ให้โทรกลับไปที่หมายเลขจริง",
		}, result.Recommendations)
		assert.Equal(t, models.AnalysisSourceHeuristic, result.Source)
	})

	t.Run("weighted", func(t *testing.T) {
		result := New(Config{Scorer: WeightedScorer{}}).Classify(urgentTransferText, nil)

		assert.Equal(t, models.RiskLevelHigh, result.RiskLevel)
		assert.Equal(t, 50, result.Confidence)
		assert.Equal(t, wantKeywords, result.Keywords)
		assert.Len(t, result.Recommendations, 4)
	})
}

func TestClassifySafeOverride(t *testing.T) {
	for _, scorer := range []RiskScorer{AutoScorer{}, WeightedScorer{}, SentenceCountScorer{}} {
		result := New(Config{Scorer: scorer}).Classify(centralBankText, nil)

		assert.False(t, result.IsScam, scorer.Name())
		assert.Equal(t, models.RiskLevelLow, result.RiskLevel, scorer.Name())
		assert.Equal(t, 0, result.Confidence, scorer.Name())
		assert.Empty(t, result.Keywords, scorer.Name())
		assert.Equal(t, ScamTypeUnknown, result.ScamType, scorer.Name())
		assert.Equal(t, "ไม่พบสัญญาณการหลอกลวง", result.Explanation, scorer.Name())
		assert.Equal(t, []string{"✅ เนื้อหาดูปลอดภัย แต่ควรระวังเสมอ"}, result.Recommendations, scorer.Name())
	}
}

func TestClassifyMultipleSentences(t *testing.T) {
	result := Default().Classify("โอนเงินด่วน! รางวัลใหญ่รอคุณอยู่. สวัสดีครับ", nil)

	assert.Equal(t, models.RiskLevelHigh, result.RiskLevel)
	assert.Equal(t, 50, result.Confidence)
	assert.Equal(t, []string{"โอนเงิน", "รางวัล"}, result.Keywords)
	assert.Equal(t, ScamTypeSocialMedia, result.ScamType)
	assert.Equal(t, "พบประโยคที่สงสัย: โอนเงินด่วน; รางวัลใหญ่รอคุณอยู่", result.Explanation)
	assert.Len(t, result.Recommendations, 3)
}

func TestClassifyDedupesKeywordsAcrossSentences(t *testing.T) {
	result := Default().Classify("โอนเงินด่วน. โอนเงินทันที", nil)

	assert.Equal(t, []string{"โอนเงิน"}, result.Keywords)
	assert.Equal(t, models.RiskLevelHigh, result.RiskLevel)
}

func TestEvaluateSkipsSentencesWithoutKeywords(t *testing.T) {
	verdicts := Default().Evaluate("สวัสดีครับ. รหัส OTP ของคุณ. ข่าวธนาคาร", nil)

	require.Len(t, verdicts, 2)
	assert.Equal(t, "รหัส OTP ของคุณ", verdicts[0].Sentence)
	assert.True(t, verdicts[0].IsSuspicious)
	assert.Equal(t, ReasonScamIndicator, verdicts[0].Reason)
	assert.Equal(t, "ข่าวธนาคาร", verdicts[1].Sentence)
	assert.False(t, verdicts[1].IsSuspicious)
	assert.Equal(t, ReasonSafeIndicator, verdicts[1].Reason)
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := Default()
	texts := []string{urgentTransferText, centralBankText, "", "หุ้น คริปโต บิทคอยน์ iPhone"}

	for _, text := range texts {
		first := c.Classify(text, nil)
		second := c.Classify(text, nil)
		assert.Equal(t, first, second)
	}
}

func TestClassifyIsBounded(t *testing.T) {
	kb := testKnowledgeBase()
	texts := []string{
		urgentTransferText,
		centralBankText,
		"โอนเงินด่วน. รางวัลใหญ่. ฟรีทันที. กำไรมหาศาล. รหัส OTP. หมายจับ. ค่าปรับ",
		"ต้องโอนเงินให้ด่วน! ธนาคารติดต่อมา? ยืนยัน OTP",
	}

	for _, scorer := range []RiskScorer{AutoScorer{}, WeightedScorer{}, SentenceCountScorer{}} {
		c := New(Config{Scorer: scorer})
		for _, text := range texts {
			for _, snapshot := range []*KnowledgeBase{nil, kb} {
				result := c.Classify(text, snapshot)
				assert.GreaterOrEqual(t, result.Confidence, 0)
				assert.LessOrEqual(t, result.Confidence, 100)
				assert.True(t, result.RiskLevel.IsValid())
				assert.Equal(t, result.IsScam, len(result.Keywords) > 0)
			}
		}
	}
}

func TestClassifyKeywordsStayWithinConfiguredSet(t *testing.T) {
	set := NewKeywordSet([]string{"OTP", "คลิก"}, nil)
	result := New(Config{Keywords: set}).Classify(urgentTransferText, nil)

	assert.Equal(t, []string{"OTP", "คลิก"}, result.Keywords)
	assert.Equal(t, ScamTypeUnknown, result.ScamType)
}

func testKnowledgeBase() *KnowledgeBase {
	return NewKnowledgeBase(
		[]models.ScamCategory{
			{Name: "Call Center Scam", Keywords: []string{"ธนาคาร", "OTP", "โอนเงิน"}},
			{Name: "Phishing Link", Keywords: []string{"คลิก", "ลิงก์"}},
		},
		[]models.ScamRecord{
			{ScamType: models.ScamTagInvestment, KeywordsFound: []string{"โอนเงิน"}},
			{ScamType: models.ScamTagPhishingLink, KeywordsFound: []string{"OTP"}},
			{ScamType: models.ScamTagPhishingLink, KeywordsFound: []string{"iPhone"}},
		},
		time.Now(),
	)
}

func TestClassifyWithKnowledgeBase(t *testing.T) {
	kb := testKnowledgeBase()
	result := Default().Classify(urgentTransferText, kb)

	// keywords come from the category set, in category order
	assert.Equal(t, []string{"OTP", "โอนเงิน", "คลิก", "ลิงก์"}, result.Keywords)
	assert.Equal(t, 2, result.MatchedRecords)
	// 5*4 + 15*2 + 10*1 = 60
	assert.Equal(t, models.RiskLevelHigh, result.RiskLevel)
	// 40 + 16 + 10
	assert.Equal(t, 66, result.Confidence)
	// investment and phishing_link tie at one match each, first seen wins
	assert.Equal(t, ScamTypeInvestment, result.ScamType)
	assert.Equal(t, "📈 ระวังการลงทุนที่สัญญากำไรสูงผิดปกติ", result.Recommendations[len(result.Recommendations)-1])
	assert.Equal(t, models.AnalysisSourceKnowledgeBase, result.Source)
}

func TestInferScamType(t *testing.T) {
	tests := []struct {
		name     string
		records  []models.ScamRecord
		keywords []string
		want     string
	}{
		{
			name:     "most common record tag",
			records:  []models.ScamRecord{{ScamType: "investment"}, {ScamType: "sms_email"}, {ScamType: "sms_email"}},
			keywords: []string{"OTP"},
			want:     ScamTypeSMSEmail,
		},
		{
			name:    "unknown tag passes through",
			records: []models.ScamRecord{{ScamType: "romance"}},
			want:    "romance",
		},
		{name: "group priority", keywords: []string{"กำไร", "คลิก", "OTP"}, want: ScamTypeCallCenter},
		{name: "phishing group", keywords: []string{"กำไร", "ลิงก์"}, want: ScamTypePhishing},
		{name: "investment group", keywords: []string{"กำไร"}, want: ScamTypeInvestment},
		{name: "no group", keywords: []string{"หุ้น"}, want: ScamTypeUnknown},
		{name: "nothing", want: ScamTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inferScamType(tt.records, tt.keywords, DefaultGroups))
		})
	}
}

type panicScorer struct{}

func (panicScorer) Name() string { return "panic" }

func (panicScorer) Score(Evidence) (models.RiskLevel, int) { panic("boom") }

func TestClassifyRecoversFromPanic(t *testing.T) {
	var recovered any
	c := New(Config{
		Scorer:  panicScorer{},
		OnPanic: func(r any) { recovered = r },
	})

	result := c.Classify(urgentTransferText, nil)

	assert.Equal(t, "boom", recovered)
	assert.Equal(t, models.RiskLevelLow, result.RiskLevel)
	assert.Equal(t, 0, result.Confidence)
	assert.Equal(t, ScamTypeUnknown, result.ScamType)
	assert.Equal(t, "ไม่สามารถวิเคราะห์ข้อความได้", result.Explanation)
	assert.Empty(t, result.Keywords)
}

func TestNilKnowledgeBaseIsEmpty(t *testing.T) {
	var kb *KnowledgeBase
	assert.False(t, kb.HasRecords())
	assert.Nil(t, kb.KeywordSet())
	assert.Nil(t, kb.MatchingRecords([]string{"OTP"}))
	assert.True(t, kb.LoadedAt().IsZero())
	assert.False(t, EmptyKnowledgeBase().HasRecords())
}

func TestRecommendationsAddOneTypeLine(t *testing.T) {
	recs := Recommendations(models.RiskLevelLow, "Call Center Phishing")

	assert.Equal(t, []string{
		"✅ เนื้อหาดูปลอดภัย แต่ควรระวังเสมอ",
		"📞 อย่าเชื่อโทรศัพท์ที่อ้างเป็นธนาคาร/ตำรวจ ให้โทรกลับไปที่หมายเลขจริง",
	}, recs)
	assert.Equal(t, []string{"✅ เนื้อหาดูปลอดภัย แต่ควรระวังเสมอ"}, Recommendations(models.RiskLevelLow, ScamTypeUnknown))
}
