package notification

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCreatePruneSuccessMessage(t *testing.T) {
	started := time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)
	data := &PruneNotificationData{
		ConfigName:  "nightly",
		Location:    "drive:folder-123",
		Listed:      10,
		Retained:    7,
		Deleted:     []string{"f7", "f8", "f9"},
		StartedAt:   started,
		CompletedAt: started.Add(4 * time.Second),
	}

	msg := CreatePruneSuccessMessage(data)
	assert.Equal(t, MessageTypeSuccess, msg.Type)
	assert.Equal(t, "Prune Completed: nightly", msg.Title)
	assert.Equal(t, "3 old backups deleted in drive:folder-123", msg.Text)
	assert.Equal(t, 10, msg.Fields["Listed"])
	assert.Equal(t, 7, msg.Fields["Retained"])
	assert.Equal(t, 3, msg.Fields["Deleted"])
	assert.Equal(t, "4s", msg.Fields["Duration"])
	assert.Equal(t, "f7, f8, f9", msg.Fields["Files"])
	assert.Equal(t, data.CompletedAt, msg.Timestamp)
}

func TestCreatePruneSuccessMessage_NothingDeleted(t *testing.T) {
	msg := CreatePruneSuccessMessage(&PruneNotificationData{ConfigName: "nightly", Listed: 3, Retained: 3})
	assert.NotContains(t, msg.Fields, "Files")
	assert.Equal(t, 0, msg.Fields["Deleted"])
	assert.False(t, msg.Timestamp.IsZero())
}

func TestCreatePruneErrorMessage(t *testing.T) {
	data := &PruneNotificationData{
		ConfigName:   "nightly",
		Location:     "drive:folder-123",
		Deleted:      []string{"f7"},
		Failed:       1,
		ErrorMessage: "request error",
		Duration:     1500 * time.Millisecond,
	}

	msg := CreatePruneErrorMessage(data)
	assert.Equal(t, MessageTypeError, msg.Type)
	assert.Equal(t, "Prune Failed: nightly", msg.Title)
	assert.Equal(t, "request error", msg.Fields["Error"])
	assert.Equal(t, 1, msg.Fields["Deleted"])
	assert.Equal(t, 1, msg.Fields["Failed"])
	assert.Equal(t, "2s", msg.Fields["Duration"])
}

func TestSummarizeFiles(t *testing.T) {
	assert.Equal(t, "none", summarizeFiles(nil))
	assert.Equal(t, "a, b", summarizeFiles([]string{"a", "b"}))

	var names []string
	for i := 0; i < 13; i++ {
		names = append(names, fmt.Sprintf("f%d", i))
	}
	assert.Equal(t, "f0, f1, f2, f3, f4, f5, f6, f7, f8, f9 and 3 more", summarizeFiles(names))
}
