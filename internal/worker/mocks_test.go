package worker_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"autotag/features/job"
	"autotag/internal/adapter/metadata"
)

type MockMetadata struct{ mock.Mock }

func (m *MockMetadata) ListTags(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockMetadata) ListUntagged(ctx context.Context) ([]metadata.FileRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]metadata.FileRecord), args.Error(1)
}

func (m *MockMetadata) SetHashTags(ctx context.Context, hash string, tags []string) error {
	args := m.Called(ctx, hash, tags)
	return args.Error(0)
}

type MockInference struct{ mock.Mock }

func (m *MockInference) Describe(ctx context.Context, model, prompt, format string, image []byte) (string, error) {
	args := m.Called(ctx, model, prompt, format, image)
	return args.String(0), args.Error(1)
}

func (m *MockInference) Complete(ctx context.Context, model, prompt string) (string, error) {
	args := m.Called(ctx, model, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockInference) EnsureModel(ctx context.Context, model string) error {
	args := m.Called(ctx, model)
	return args.Error(0)
}

type MockJournal struct{ mock.Mock }

func (m *MockJournal) Record(ctx context.Context, f *job.Failure) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockJournal) DeleteByHash(ctx context.Context, hash string) error {
	args := m.Called(ctx, hash)
	return args.Error(0)
}

type MockPublisher struct{ mock.Mock }

func (m *MockPublisher) Publish(topic string, body []byte) error {
	args := m.Called(topic, body)
	return args.Error(0)
}
