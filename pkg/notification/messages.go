package notification

import (
	"fmt"
	"strings"
	"time"
)

// maxListedFiles caps the deleted file names shown in a message
const maxListedFiles = 10

// summarizeFiles joins file names, truncating long lists
func summarizeFiles(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	if len(names) <= maxListedFiles {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(names[:maxListedFiles], ", "), len(names)-maxListedFiles)
}

func runDuration(data *PruneNotificationData) time.Duration {
	if data.Duration > 0 {
		return data.Duration
	}
	if !data.CompletedAt.IsZero() {
		return data.CompletedAt.Sub(data.StartedAt)
	}
	return time.Since(data.StartedAt)
}

func completedAt(data *PruneNotificationData) time.Time {
	if data.CompletedAt.IsZero() {
		return time.Now()
	}
	return data.CompletedAt
}

// successVerb describes what happened to the files outside the retention window
func successVerb(data *PruneNotificationData) string {
	if data.DryRun {
		return "would be deleted"
	}
	return "deleted"
}

// CreatePruneSuccessMessage creates a formatted success message for a prune run
func CreatePruneSuccessMessage(data *PruneNotificationData) *Message {
	fields := map[string]interface{}{
		"Location": data.Location,
		"Listed":   data.Listed,
		"Retained": data.Retained,
		"Deleted":  len(data.Deleted),
		"Duration": runDuration(data).Round(time.Second).String(),
	}
	if len(data.Deleted) > 0 {
		fields["Files"] = summarizeFiles(data.Deleted)
	}

	title := fmt.Sprintf("Prune Completed: %s", data.ConfigName)
	if data.DryRun {
		title = fmt.Sprintf("Prune Dry Run: %s", data.ConfigName)
	}

	return &Message{
		Type:       MessageTypeSuccess,
		Title:      title,
		Text:       fmt.Sprintf("%d old backups %s in %s", len(data.Deleted), successVerb(data), data.Location),
		Fields:     fields,
		Timestamp:  completedAt(data),
		ConfigName: data.ConfigName,
		Location:   data.Location,
	}
}

// CreatePruneErrorMessage creates a formatted error message for a failed prune run
func CreatePruneErrorMessage(data *PruneNotificationData) *Message {
	fields := map[string]interface{}{
		"Location": data.Location,
		"Deleted":  len(data.Deleted),
		"Failed":   data.Failed,
		"Duration": runDuration(data).Round(time.Second).String(),
		"Error":    data.ErrorMessage,
	}

	return &Message{
		Type:       MessageTypeError,
		Title:      fmt.Sprintf("Prune Failed: %s", data.ConfigName),
		Text:       fmt.Sprintf("Backup pruning failed for %s", data.Location),
		Fields:     fields,
		Timestamp:  completedAt(data),
		ConfigName: data.ConfigName,
		Location:   data.Location,
	}
}

// markup decorates prune messages for channels that render markdown
type markup struct {
	successIcon string
	errorIcon   string
	bold        string
}

var channelMarkup = map[NotificationChannel]markup{
	ChannelSlack:   {successIcon: ":wastebasket:", errorIcon: ":x:", bold: "*"},
	ChannelDiscord: {successIcon: "🗑️", errorIcon: "❌", bold: "**"},
}

// PruneSuccessMessageFor builds the success message as channel renders it
func PruneSuccessMessageFor(channel NotificationChannel, data *PruneNotificationData) *Message {
	message := CreatePruneSuccessMessage(data)
	if m, ok := channelMarkup[channel]; ok {
		message.Title = m.successIcon + " " + message.Title
		message.Text = fmt.Sprintf("%s%d%s old backups %s in `%s`", m.bold, len(data.Deleted), m.bold, successVerb(data), data.Location)
	}
	return message
}

// PruneErrorMessageFor builds the failure message as channel renders it
func PruneErrorMessageFor(channel NotificationChannel, data *PruneNotificationData) *Message {
	message := CreatePruneErrorMessage(data)
	if m, ok := channelMarkup[channel]; ok {
		message.Title = m.errorIcon + " " + message.Title
		message.Text = fmt.Sprintf("Backup pruning failed for `%s`", data.Location)
	}
	return message
}
