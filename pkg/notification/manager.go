package notification

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"
)

// Manager fans prune notifications out to the configured channels
type Manager struct {
	configs []NotificationConfig
	mutex   sync.RWMutex
}

// NewManager creates a new notification manager.
// Configurations that fail validation are logged and skipped.
func NewManager(configs []NotificationConfig) *Manager {
	m := &Manager{}
	for _, config := range configs {
		if _, err := createNotifierFromConfig(&config); err != nil {
			log.Printf("Skipping notification config '%s': %v", config.Name, err)
			continue
		}
		m.configs = append(m.configs, config)
	}
	return m
}

// GetNotifierCount returns the number of enabled notification channels
func (m *Manager) GetNotifierCount() int {
	return len(m.getEnabledNotificationConfigs())
}

// SendPruneSuccessNotification notifies every channel that wants success events
func (m *Manager) SendPruneSuccessNotification(data *PruneNotificationData) []NotificationResult {
	return m.send("success", func(c *NotificationConfig) bool { return c.NotifyOnSuccess }, func(channel NotificationChannel) *Message {
		return PruneSuccessMessageFor(channel, data)
	})
}

// SendPruneErrorNotification notifies every channel that wants error events
func (m *Manager) SendPruneErrorNotification(data *PruneNotificationData) []NotificationResult {
	return m.send("error", func(c *NotificationConfig) bool { return c.NotifyOnError }, func(channel NotificationChannel) *Message {
		return PruneErrorMessageFor(channel, data)
	})
}

// send delivers one message per matching channel concurrently
func (m *Manager) send(kind string, wants func(*NotificationConfig) bool, build func(channel NotificationChannel) *Message) []NotificationResult {
	var targets []NotificationConfig
	for _, config := range m.getEnabledNotificationConfigs() {
		if wants(&config) {
			targets = append(targets, config)
		}
	}

	results := make([]NotificationResult, len(targets))
	var wg sync.WaitGroup

	for i := range targets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			config := &targets[i]

			result := NotificationResult{
				Name:    config.Name,
				Channel: NotificationChannel(config.Channel),
				SentAt:  time.Now(),
			}

			notifier, err := createNotifierFromConfig(config)
			if err == nil {
				err = notifier.Send(build(notifier.GetChannelType()))
			}
			if err != nil {
				result.Error = err.Error()
				log.Printf("Failed to send %s notification via %s (config: %s): %v", kind, config.Channel, config.Name, err)
			} else {
				result.Success = true
				log.Printf("Successfully sent %s notification via %s (config: %s)", kind, config.Channel, config.Name)
			}

			results[i] = result
		}(i)
	}

	wg.Wait()
	return results
}

// TestNotification sends a test notification to a specific channel
func (m *Manager) TestNotification(configName string) error {
	config, err := m.getNotificationConfigByName(configName)
	if err != nil {
		return err
	}

	notifier, err := createNotifierFromConfig(config)
	if err != nil {
		return fmt.Errorf("failed to create notifier: %w", err)
	}

	message := &Message{
		Type:      MessageTypeInfo,
		Title:     "Test Notification",
		Text:      fmt.Sprintf("This is a test notification from the Backup Retention Service via %s", config.Channel),
		Timestamp: time.Now(),
		Fields: map[string]interface{}{
			"Channel":       config.Channel,
			"Configuration": configName,
			"Test Status":   "Success",
		},
	}

	return notifier.Send(message)
}

func (m *Manager) getEnabledNotificationConfigs() []NotificationConfig {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var enabled []NotificationConfig
	for _, config := range m.configs {
		if config.Enabled {
			enabled = append(enabled, config)
		}
	}
	return enabled
}

func (m *Manager) getNotificationConfigByName(name string) (*NotificationConfig, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for i := range m.configs {
		if m.configs[i].Name == name {
			config := m.configs[i]
			return &config, nil
		}
	}
	return nil, fmt.Errorf("notification config '%s' not found", name)
}

// createNotifierFromConfig validates a configuration and builds its notifier
func createNotifierFromConfig(config *NotificationConfig) (Notifier, error) {
	switch NotificationChannel(config.Channel) {
	case ChannelChatwork:
		var chatworkConfig ChatworkConfig
		if err := decodeConfig(config.Config, &chatworkConfig); err != nil {
			return nil, fmt.Errorf("failed to parse Chatwork config: %w", err)
		}
		notifier := NewChatworkNotifier(chatworkConfig)
		return notifier, notifier.ValidateConfig(config.Config)

	case ChannelDiscord:
		var discordConfig DiscordConfig
		if err := decodeConfig(config.Config, &discordConfig); err != nil {
			return nil, fmt.Errorf("failed to parse Discord config: %w", err)
		}
		notifier := NewDiscordNotifier(discordConfig)
		return notifier, notifier.ValidateConfig(config.Config)

	case ChannelSlack:
		var slackConfig SlackConfig
		if err := decodeConfig(config.Config, &slackConfig); err != nil {
			return nil, fmt.Errorf("failed to parse Slack config: %w", err)
		}
		notifier := NewSlackNotifier(slackConfig)
		return notifier, notifier.ValidateConfig(config.Config)

	default:
		return nil, fmt.Errorf("unsupported notification channel: %s", config.Channel)
	}
}

// decodeConfig converts a generic configuration map into a typed config
func decodeConfig(config map[string]interface{}, target interface{}) error {
	jsonData, err := json.Marshal(config)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}
