package gdrive

import (
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

const (
	// listFields restricts list responses to what retention needs
	listFields googleapi.Field = "nextPageToken, files(id, name, createdTime)"

	// listOrder asks Drive for the newest files first
	listOrder = "createdTime desc"

	// listPageSize is the largest page the Drive API accepts
	listPageSize = 1000
)

var queryEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// FolderQuery builds the Drive search query for the live children of a folder
func FolderQuery(folderID string) string {
	return fmt.Sprintf("'%s' in parents and trashed=false", queryEscaper.Replace(folderID))
}
