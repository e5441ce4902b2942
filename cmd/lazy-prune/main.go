// lazy-prune keeps the newest backups in a Google Drive folder (or a Cloud
// Storage prefix) and deletes the rest.
//
// Usage:
//
//	# Prune once using GDRIVE_CREDENTIALS_JSON and GDRIVE_FOLDER_ID
//	lazy-prune
//
//	# Show what would be deleted
//	lazy-prune --dry-run
//
//	# Prune every night at 02:00 and expose metrics
//	lazy-prune schedule --schedule "0 0 2 * * *" --metrics-addr :9090
//
//	# Show recorded runs
//	lazy-prune history --limit 10
package main

func main() {
	Execute()
}
