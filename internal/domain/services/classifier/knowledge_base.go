package classifier

import (
	"sort"
	"time"

	"scamguard-lab/internal/domain/models"
)

// KnowledgeBase is an immutable snapshot of scam categories and historical
// records. A nil *KnowledgeBase is valid and behaves as empty.
type KnowledgeBase struct {
	categories []models.ScamCategory
	records    []models.ScamRecord
	keywords   *KeywordSet
	loadedAt   time.Time
}

// categoryPriority ranks known category tags for scam-type inference.
// Categories not listed here follow in load order.
var categoryPriority = map[string]int{
	"call_center":   0,
	"phishing_link": 1,
	"social_media":  2,
	"investment":    3,
	"sms_email":     4,
}

// NewKnowledgeBase builds a snapshot. When categories are present their
// keywords replace the default keyword set and each category becomes a
// keyword group named after it, ordered by categoryPriority.
func NewKnowledgeBase(categories []models.ScamCategory, records []models.ScamRecord, loadedAt time.Time) *KnowledgeBase {
	kb := &KnowledgeBase{
		categories: append([]models.ScamCategory(nil), categories...),
		records:    append([]models.ScamRecord(nil), records...),
		loadedAt:   loadedAt,
	}

	if len(categories) > 0 {
		var all []string
		groups := make([]KeywordGroup, 0, len(categories))
		for _, c := range categories {
			all = append(all, c.Keywords...)
			groups = append(groups, KeywordGroup{Name: c.Name, Keywords: c.Keywords})
		}
		sort.SliceStable(groups, func(i, j int) bool {
			return groupRank(groups[i].Name) < groupRank(groups[j].Name)
		})
		kb.keywords = NewKeywordSet(all, groups)
	}
	return kb
}

func groupRank(name string) int {
	if rank, ok := categoryPriority[name]; ok {
		return rank
	}
	return len(categoryPriority)
}

// EmptyKnowledgeBase is the degraded snapshot used when no store is reachable
func EmptyKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{}
}

// Categories returns the snapshot categories
func (kb *KnowledgeBase) Categories() []models.ScamCategory {
	if kb == nil {
		return nil
	}
	return kb.categories
}

// Records returns the snapshot's historical records
func (kb *KnowledgeBase) Records() []models.ScamRecord {
	if kb == nil {
		return nil
	}
	return kb.records
}

// HasRecords reports whether any historical records are loaded
func (kb *KnowledgeBase) HasRecords() bool {
	return kb != nil && len(kb.records) > 0
}

// KeywordSet returns the keyword set derived from categories, or nil
func (kb *KnowledgeBase) KeywordSet() *KeywordSet {
	if kb == nil {
		return nil
	}
	return kb.keywords
}

// LoadedAt returns when the snapshot was built
func (kb *KnowledgeBase) LoadedAt() time.Time {
	if kb == nil {
		return time.Time{}
	}
	return kb.loadedAt
}

// MatchingRecords returns records whose keywords_found contains any of keywords
func (kb *KnowledgeBase) MatchingRecords(keywords []string) []models.ScamRecord {
	if kb == nil || len(keywords) == 0 {
		return nil
	}
	var matched []models.ScamRecord
	for i := range kb.records {
		if kb.records[i].HasKeyword(keywords) {
			matched = append(matched, kb.records[i])
		}
	}
	return matched
}
