package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentFilterCheck(t *testing.T) {
	filter := NewContentFilter()

	tests := []struct {
		name   string
		text   string
		ok     bool
		reason string
	}{
		{"clean text", "The chess club meets every Thursday in room 204.", true, ""},
		{"empty text", "", true, ""},
		{"banned word", "this is total bullshit", false, "inappropriate_language"},
		{"banned word is word-bounded", "grass and assassin are fine words", true, ""},
		{"http url", "see http://example.com/tickets", false, "url_not_allowed"},
		{"www url", "see www.example.com for details", false, "url_not_allowed"},
		{"email", "write to club@campus.edu", false, "contact_info_not_allowed"},
		{"phone", "call 555-123-4567 tonight", false, "contact_info_not_allowed"},
		{"repeated characters", "sooooo excited!!!!", false, "spam_detected"},
		{"excessive caps", "HUGE NEWS EVERYONE COMING TONIGHT", false, "excessive_caps"},
		{"a little caps is fine", "HUGE news for the WHOLE campus", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := filter.Check(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestContentFilterRejectionMessage(t *testing.T) {
	filter := NewContentFilter()
	assert.Equal(t, "URLs and web links are not allowed.", filter.RejectionMessage("url_not_allowed"))
	assert.Equal(t, "Your submission does not meet our content guidelines.", filter.RejectionMessage("unknown_reason"))
}
