package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalysisKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{name: "same text", a: "โอนเงินด่วน", b: "โอนเงินด่วน", equal: true},
		{name: "whitespace differences", a: "  โอนเงิน   ด่วน\n", b: "โอนเงิน ด่วน", equal: true},
		{name: "different text", a: "โอนเงินด่วน", b: "รับรางวัลฟรี", equal: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka := AnalysisKey("typhoon", tt.a)
			kb := AnalysisKey("typhoon", tt.b)
			assert.Equal(t, tt.equal, ka == kb)
			assert.True(t, strings.HasPrefix(ka, KeyAnalysisPrefix+"typhoon:"))
		})
	}

	assert.NotEqual(t, AnalysisKey("a", "x"), AnalysisKey("b", "x"), "model is part of the key")
}
