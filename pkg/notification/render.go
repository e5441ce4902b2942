package notification

import "fmt"

const footerText = "lazy-prune backup retention"

// presentation is how a message type looks on each channel
type presentation struct {
	slackColor   string
	discordColor int
	emoji        string
}

var presentations = map[MessageType]presentation{
	MessageTypeSuccess: {slackColor: "good", discordColor: 0x2EB67D, emoji: "✅"},
	MessageTypeError:   {slackColor: "danger", discordColor: 0xE01E5A, emoji: "❌"},
	MessageTypeWarning: {slackColor: "warning", discordColor: 0xECB22E, emoji: "⚠️"},
	MessageTypeInfo:    {slackColor: "#36C5F0", discordColor: 0x36C5F0, emoji: "ℹ️"},
}

func presentationFor(msgType MessageType) presentation {
	if p, ok := presentations[msgType]; ok {
		return p
	}
	return presentation{slackColor: "#808080", discordColor: 0x808080, emoji: "📝"}
}

// field is one rendered name/value pair
type field struct {
	name  string
	value string
	wide  bool
}

// values too long to share a row
var wideFields = map[string]bool{"Files": true, "Error": true}

// renderFields returns the message fields by name, then the configuration name
func renderFields(message *Message) []field {
	fields := make([]field, 0, len(message.Fields)+1)
	for _, name := range message.fieldNames() {
		fields = append(fields, field{
			name:  name,
			value: fmt.Sprint(message.Fields[name]),
			wide:  wideFields[name],
		})
	}
	if message.ConfigName != "" {
		fields = append(fields, field{name: "Configuration", value: message.ConfigName})
	}
	return fields
}

// requireString checks that a channel setting is a non-empty string
func requireString(config map[string]interface{}, key string, channel NotificationChannel) error {
	if value, ok := config[key].(string); !ok || value == "" {
		return fmt.Errorf("%s is required for %s", key, channel)
	}
	return nil
}
