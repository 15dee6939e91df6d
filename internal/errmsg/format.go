// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Queue operations
	OpQueueRestore Op = "restore queue"
	OpQueueSave    Op = "save queue"
	OpQueueAdd     Op = "add to queue"
	OpQueueRemove  Op = "remove from queue"
	OpQueueMove    Op = "move queue item"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"

	// Recents and favourites
	OpRecentLoad     Op = "load recent items"
	OpFavouriteLoad  Op = "load favourites"
	OpFavouriteWrite Op = "update favourites"

	// Catalog operations
	OpCatalogScan Op = "scan music sources"

	// Controller surface
	OpRemoteBind Op = "bind playback session"
	OpMprisStart Op = "register media controls"

	// Initialization
	OpOpenState  Op = "open state database"
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
