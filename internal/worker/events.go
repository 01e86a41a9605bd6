package worker

import "time"

// FileTaggedEvent is published after tags for a file were reported.
type FileTaggedEvent struct {
	Hash          string    `json:"hash"`
	Path          string    `json:"path"`
	Filename      string    `json:"filename"`
	Tags          []string  `json:"tags"`
	TaggedAt      time.Time `json:"tagged_at"`
	CorrelationID string    `json:"correlation_id"`
}
