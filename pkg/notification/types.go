package notification

import (
	"sort"
	"time"
)

// NotificationChannel names a delivery backend
type NotificationChannel string

const (
	ChannelChatwork NotificationChannel = "chatwork"
	ChannelDiscord  NotificationChannel = "discord"
	ChannelSlack    NotificationChannel = "slack"
)

// MessageType selects how a report is colored
type MessageType string

const (
	MessageTypeSuccess MessageType = "success"
	MessageTypeError   MessageType = "error"
	MessageTypeInfo    MessageType = "info"
	MessageTypeWarning MessageType = "warning"
)

// Message is a channel-neutral report
type Message struct {
	Type       MessageType            `json:"type"`
	Title      string                 `json:"title"`
	Text       string                 `json:"text"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
	Timestamp  time.Time              `json:"timestamp"`
	ConfigName string                 `json:"config_name,omitempty"`
	Location   string                 `json:"location,omitempty"`
}

// fieldNames returns the field keys in a stable order
func (m *Message) fieldNames() []string {
	names := make([]string, 0, len(m.Fields))
	for name := range m.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PruneNotificationData summarizes one prune run
type PruneNotificationData struct {
	ConfigName   string        `json:"config_name"`
	Location     string        `json:"location"`
	Listed       int           `json:"listed"`
	Retained     int           `json:"retained"`
	Deleted      []string      `json:"deleted,omitempty"`
	Failed       int           `json:"failed"`
	DryRun       bool          `json:"dry_run"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Duration     time.Duration `json:"duration"`
	StartedAt    time.Time     `json:"started_at"`
	CompletedAt  time.Time     `json:"completed_at"`
}

// Notifier delivers reports to one channel
type Notifier interface {
	Send(message *Message) error
	// ValidateConfig checks the raw settings map the notifier was built from
	ValidateConfig(config map[string]interface{}) error
	GetChannelType() NotificationChannel
}

// ChatworkConfig targets a room; APIBaseURL overrides the public endpoint
type ChatworkConfig struct {
	APIToken   string `json:"api_token"`
	RoomID     string `json:"room_id"`
	APIBaseURL string `json:"api_base_url,omitempty"`
}

type DiscordConfig struct {
	WebhookURL string `json:"webhook_url"`
	Username   string `json:"username,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
}

type SlackConfig struct {
	WebhookURL string `json:"webhook_url"`
	Channel    string `json:"channel,omitempty"`
	Username   string `json:"username,omitempty"`
	IconEmoji  string `json:"icon_emoji,omitempty"`
	IconURL    string `json:"icon_url,omitempty"`
}

// NotificationResult is the delivery outcome for one config
type NotificationResult struct {
	Name    string              `json:"name"`
	Channel NotificationChannel `json:"channel"`
	Success bool                `json:"success"`
	Error   string              `json:"error,omitempty"`
	SentAt  time.Time           `json:"sent_at"`
}

// NotificationConfig describes one notification target
type NotificationConfig struct {
	Name            string                 `json:"name" yaml:"name"`
	Channel         string                 `json:"channel" yaml:"channel"`
	Config          map[string]interface{} `json:"config" yaml:"config"`
	NotifyOnSuccess bool                   `json:"notify_on_success" yaml:"notifyOnSuccess"`
	NotifyOnError   bool                   `json:"notify_on_error" yaml:"notifyOnError"`
	Enabled         bool                   `json:"enabled" yaml:"enabled"`
}
