package notification

import (
	"fmt"
	"net/url"
	"strings"
)

const defaultChatworkAPI = "https://api.chatwork.com/v2"

// ChatworkNotifier posts prune reports to a Chatwork room through the REST API
type ChatworkNotifier struct {
	config ChatworkConfig
}

func NewChatworkNotifier(config ChatworkConfig) *ChatworkNotifier {
	if config.APIBaseURL == "" {
		config.APIBaseURL = defaultChatworkAPI
	}
	return &ChatworkNotifier{config: config}
}

func (c *ChatworkNotifier) Send(message *Message) error {
	apiURL := fmt.Sprintf("%s/rooms/%s/messages", strings.TrimSuffix(c.config.APIBaseURL, "/"), url.PathEscape(c.config.RoomID))

	form := url.Values{}
	form.Set("body", c.body(message))
	form.Set("self_unread", "0")

	return postForm("chatwork API", apiURL, form, map[string]string{"X-ChatWorkToken": c.config.APIToken})
}

func (c *ChatworkNotifier) ValidateConfig(config map[string]interface{}) error {
	if err := requireString(config, "api_token", ChannelChatwork); err != nil {
		return err
	}
	return requireString(config, "room_id", ChannelChatwork)
}

func (c *ChatworkNotifier) GetChannelType() NotificationChannel {
	return ChannelChatwork
}

// body renders message in Chatwork [info] markup
func (c *ChatworkNotifier) body(message *Message) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[info][title]%s %s[/title]", presentationFor(message.Type).emoji, message.Title)
	if message.Text != "" {
		fmt.Fprintf(&b, "%s\n", message.Text)
	}

	if fields := renderFields(message); len(fields) > 0 {
		b.WriteString("[hr]")
		for _, f := range fields {
			fmt.Fprintf(&b, "%s: %s\n", f.name, f.value)
		}
	}

	fmt.Fprintf(&b, "[hr]%s[/info]", message.Timestamp.UTC().Format("2006-01-02 15:04:05 MST"))
	return b.String()
}
