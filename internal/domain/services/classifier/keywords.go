package classifier

import "strings"

// Scam type labels produced by the classifier
const (
	ScamTypeCallCenter  = "Call Center Scam"
	ScamTypePhishing    = "Phishing Link"
	ScamTypeSocialMedia = "Social Media Scam"
	ScamTypeSMSEmail    = "SMS/Email Fraud"
	ScamTypeInvestment  = "Investment Scam"
	ScamTypeUnknown     = "Unknown Scam Type"
	ScamTypeNoContent   = "No Content"
)

// scamTypeDisplayNames maps historical record tags to labels
var scamTypeDisplayNames = map[string]string{
	"call_center":   ScamTypeCallCenter,
	"phishing_link": ScamTypePhishing,
	"social_media":  ScamTypeSocialMedia,
	"sms_email":     ScamTypeSMSEmail,
	"investment":    ScamTypeInvestment,
}

// DisplayScamType returns the label for a record tag. Unknown tags are returned as-is.
func DisplayScamType(tag string) string {
	if name, ok := scamTypeDisplayNames[tag]; ok {
		return name
	}
	return tag
}

// DefaultKeywords is the built-in keyword list, in match order
var DefaultKeywords = []string{
	"โอนเงิน", "รางวัล", "ฟรี", "คลิก", "ลิงก์", "ธนาคาร", "บัญชีถูกระงับ",
	"OTP", "ยืนยัน", "ตำรวจ", "หมายจับ", "ค่าปรับ", "ลงทุน", "กำไร",
	"หุ้น", "คริปโต", "บิทคอยน์", "แจกรางวัล", "iPhone",
}

// DefaultGroups drive scam-type inference when no historical record matches.
// Order is priority.
var DefaultGroups = []KeywordGroup{
	{Name: ScamTypeCallCenter, Keywords: []string{"ธนาคาร", "OTP"}},
	{Name: ScamTypePhishing, Keywords: []string{"คลิก", "ลิงก์"}},
	{Name: ScamTypeSocialMedia, Keywords: []string{"รางวัล", "แจกรางวัล"}},
	{Name: ScamTypeInvestment, Keywords: []string{"ลงทุน", "กำไร"}},
}

// KeywordGroup is a named set of keywords pointing at one scam type
type KeywordGroup struct {
	Name     string
	Keywords []string
}

// KeywordSet is an ordered, deduplicated keyword list plus the groups used
// for scam-type inference. It is never mutated after construction.
type KeywordSet struct {
	keywords []string
	lowered  []string
	groups   []KeywordGroup
}

// NewKeywordSet builds a KeywordSet. Blank and duplicate keywords are dropped,
// keeping the first occurrence.
func NewKeywordSet(keywords []string, groups []KeywordGroup) *KeywordSet {
	s := &KeywordSet{}
	seen := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		s.keywords = append(s.keywords, k)
		s.lowered = append(s.lowered, strings.ToLower(k))
	}

	for _, g := range groups {
		s.groups = append(s.groups, KeywordGroup{
			Name:     g.Name,
			Keywords: append([]string(nil), g.Keywords...),
		})
	}
	return s
}

// DefaultKeywordSet returns the built-in keyword set
func DefaultKeywordSet() *KeywordSet {
	return NewKeywordSet(DefaultKeywords, DefaultGroups)
}

// Keywords returns a copy of the configured keywords
func (s *KeywordSet) Keywords() []string {
	return append([]string(nil), s.keywords...)
}

// Groups returns the configured keyword groups
func (s *KeywordSet) Groups() []KeywordGroup {
	return s.groups
}

// Len returns the number of keywords
func (s *KeywordSet) Len() int {
	return len(s.keywords)
}

// Match returns the keywords contained in sentence, in configured order.
// Matching is case-insensitive substring containment.
func (s *KeywordSet) Match(sentence string) []string {
	lower := strings.ToLower(sentence)
	var found []string
	for i, k := range s.lowered {
		if strings.Contains(lower, k) {
			found = append(found, s.keywords[i])
		}
	}
	return found
}

// MatchKeywords is Match over an ad-hoc keyword list
func MatchKeywords(sentence string, keywords []string) []string {
	return NewKeywordSet(keywords, nil).Match(sentence)
}
