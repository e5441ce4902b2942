package notification

// SlackNotifier posts prune reports to a Slack incoming webhook
type SlackNotifier struct {
	config SlackConfig
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{config: config}
}

// SlackPayload is the incoming webhook body
type SlackPayload struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	IconURL     string            `json:"icon_url,omitempty"`
	Attachments []SlackAttachment `json:"attachments"`
}

// SlackAttachment carries the colored report block
type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text,omitempty"`
	Fields    []SlackField `json:"fields,omitempty"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func (s *SlackNotifier) Send(message *Message) error {
	return postJSON("slack webhook", s.config.WebhookURL, s.payload(message))
}

func (s *SlackNotifier) ValidateConfig(config map[string]interface{}) error {
	return requireString(config, "webhook_url", ChannelSlack)
}

func (s *SlackNotifier) GetChannelType() NotificationChannel {
	return ChannelSlack
}

func (s *SlackNotifier) payload(message *Message) *SlackPayload {
	attachment := SlackAttachment{
		Color:     presentationFor(message.Type).slackColor,
		Title:     message.Title,
		Text:      message.Text,
		Footer:    footerText,
		Timestamp: message.Timestamp.Unix(),
	}
	for _, f := range renderFields(message) {
		attachment.Fields = append(attachment.Fields, SlackField{Title: f.name, Value: f.value, Short: !f.wide})
	}

	return &SlackPayload{
		Channel:     s.config.Channel,
		Username:    s.config.Username,
		IconEmoji:   s.config.IconEmoji,
		IconURL:     s.config.IconURL,
		Attachments: []SlackAttachment{attachment},
	}
}
