package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpQueueRestore,
			err:      nil,
			expected: "",
		},
		{
			name:     "queue restore operation",
			op:       OpQueueRestore,
			err:      errors.New("database locked"),
			expected: "Failed to restore queue: database locked",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
		{
			name:     "catalog scan operation",
			op:       OpCatalogScan,
			err:      errors.New("permission denied"),
			expected: "Failed to scan music sources: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpQueueAdd,
			context:  "song.mp3",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpQueueAdd,
			context:  "song.mp3",
			err:      errors.New("not found"),
			expected: "Failed to add to queue 'song.mp3': not found",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpQueueAdd,
			context:  "",
			err:      errors.New("not found"),
			expected: "Failed to add to queue: not found",
		},
		{
			name:     "scan with path context",
			op:       OpCatalogScan,
			context:  "/home/user/music",
			err:      errors.New("directory not found"),
			expected: "Failed to scan music sources '/home/user/music': directory not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	ops := []Op{
		OpQueueRestore, OpQueueSave, OpQueueAdd, OpQueueRemove, OpQueueMove,
		OpPlaybackStart, OpPlaybackSeek,
		OpRecentLoad, OpFavouriteLoad, OpFavouriteWrite,
		OpCatalogScan,
		OpRemoteBind, OpMprisStart,
		OpOpenState, OpInitialize,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}
			expected := "Failed to " + string(op) + ": test error"
			if result := Format(op, testErr); result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
