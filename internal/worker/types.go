package worker

import (
	"context"
	"errors"

	"autotag/features/job"
	"autotag/internal/adapter/metadata"
)

// ErrMetadataUnavailable marks a file whose .info sidecar could not be read or
// lacks the original filename. The file stays untagged and is retried.
var ErrMetadataUnavailable = errors.New("file metadata unavailable")

type MetadataBackend interface {
	ListTags(ctx context.Context) ([]string, error)
	ListUntagged(ctx context.Context) ([]metadata.FileRecord, error)
	SetHashTags(ctx context.Context, hash string, tags []string) error
}

type Inference interface {
	Describe(ctx context.Context, model, prompt, format string, image []byte) (string, error)
	Complete(ctx context.Context, model, prompt string) (string, error)
	EnsureModel(ctx context.Context, model string) error
}

type Journal interface {
	Record(ctx context.Context, f *job.Failure) error
	DeleteByHash(ctx context.Context, hash string) error
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}
