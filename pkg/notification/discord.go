package notification

import "time"

// DiscordNotifier posts prune reports to a Discord webhook as a single embed
type DiscordNotifier struct {
	config DiscordConfig
}

func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{config: config}
}

// DiscordPayload is the webhook execute body
type DiscordPayload struct {
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds"`
}

type DiscordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []DiscordField `json:"fields,omitempty"`
	Footer      DiscordFooter  `json:"footer"`
	Timestamp   string         `json:"timestamp"`
}

type DiscordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

func (d *DiscordNotifier) Send(message *Message) error {
	return postJSON("discord webhook", d.config.WebhookURL, d.payload(message))
}

func (d *DiscordNotifier) ValidateConfig(config map[string]interface{}) error {
	return requireString(config, "webhook_url", ChannelDiscord)
}

func (d *DiscordNotifier) GetChannelType() NotificationChannel {
	return ChannelDiscord
}

func (d *DiscordNotifier) payload(message *Message) *DiscordPayload {
	embed := DiscordEmbed{
		Title:       message.Title,
		Description: message.Text,
		Color:       presentationFor(message.Type).discordColor,
		Footer:      DiscordFooter{Text: footerText},
		Timestamp:   message.Timestamp.UTC().Format(time.RFC3339),
	}
	for _, f := range renderFields(message) {
		embed.Fields = append(embed.Fields, DiscordField{Name: f.name, Value: f.value, Inline: !f.wide})
	}

	return &DiscordPayload{
		Username:  d.config.Username,
		AvatarURL: d.config.AvatarURL,
		Embeds:    []DiscordEmbed{embed},
	}
}
