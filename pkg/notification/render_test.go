package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresentationFor(t *testing.T) {
	tests := []struct {
		msgType MessageType
		slack   string
		discord int
		emoji   string
	}{
		{MessageTypeSuccess, "good", 0x2EB67D, "✅"},
		{MessageTypeError, "danger", 0xE01E5A, "❌"},
		{MessageTypeWarning, "warning", 0xECB22E, "⚠️"},
		{MessageTypeInfo, "#36C5F0", 0x36C5F0, "ℹ️"},
		{MessageType("unknown"), "#808080", 0x808080, "📝"},
	}

	for _, tt := range tests {
		t.Run(string(tt.msgType), func(t *testing.T) {
			p := presentationFor(tt.msgType)
			assert.Equal(t, tt.slack, p.slackColor)
			assert.Equal(t, tt.discord, p.discordColor)
			assert.Equal(t, tt.emoji, p.emoji)
		})
	}
}

func TestRenderFields(t *testing.T) {
	fields := renderFields(&Message{
		Fields:     map[string]interface{}{"Listed": 10, "Error": "boom", "Duration": "3s"},
		ConfigName: "nightly",
	})

	assert.Equal(t, []field{
		{name: "Duration", value: "3s"},
		{name: "Error", value: "boom", wide: true},
		{name: "Listed", value: "10"},
		{name: "Configuration", value: "nightly"},
	}, fields)

	assert.Empty(t, renderFields(&Message{}))
}

func TestPruneMessageFor_PlainChannel(t *testing.T) {
	data := &PruneNotificationData{ConfigName: "nightly", Location: "drive:folder-123", Deleted: []string{"a"}}

	assert.Equal(t, CreatePruneSuccessMessage(data).Title, PruneSuccessMessageFor(ChannelChatwork, data).Title)
	assert.Equal(t, "Backup pruning failed for drive:folder-123", PruneErrorMessageFor(ChannelChatwork, data).Text)
}
