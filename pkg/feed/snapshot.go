package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is a complete image of every vehicle under a feed path, never a diff
type Snapshot struct {
	Path       string
	Records    map[string]json.RawMessage
	Exists     bool
	ReceivedAt time.Time
}

// DecodeSnapshot turns the JSON value stored at a feed path into a snapshot. A missing
// or null value is an empty snapshot rather than an error.
func DecodeSnapshot(path string, data []byte, receivedAt time.Time) (Snapshot, error) {
	snapshot := Snapshot{
		Path:       path,
		Records:    map[string]json.RawMessage{},
		ReceivedAt: receivedAt,
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return snapshot, nil
	}

	if err := json.Unmarshal(trimmed, &snapshot.Records); err != nil {
		return snapshot, fmt.Errorf("feed %s is not an object keyed by vehicle: %w", path, err)
	}

	for id, record := range snapshot.Records {
		if bytes.Equal(bytes.TrimSpace(record), []byte("null")) {
			delete(snapshot.Records, id)
		}
	}

	snapshot.Exists = true

	return snapshot, nil
}
