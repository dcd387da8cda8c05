package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDiscordTimestamp(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	assert.Equal(t, "<t:1700000000:R>", FormatDiscordTimestamp(ts, "R"))
}

func TestMentions(t *testing.T) {
	assert.Equal(t, "<@7>", UserMention(7))
	assert.Equal(t, "<#200>", ChannelMention(200))
	assert.Equal(t, "<@&70>", RoleMention(1, 70))
	assert.Equal(t, "@everyone", RoleMention(1, 1))
}

func TestFormatLimit(t *testing.T) {
	assert.Equal(t, "unlimited", FormatLimit(0))
	assert.Equal(t, "5", FormatLimit(5))
}

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		reply string
		yes   bool
		ok    bool
	}{
		{"yes", true, true},
		{" Y ", true, true},
		{"No", false, true},
		{"n", false, true},
		{"maybe", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		yes, ok := ParseYesNo(tt.reply)
		assert.Equal(t, tt.yes, yes, tt.reply)
		assert.Equal(t, tt.ok, ok, tt.reply)
	}
}
