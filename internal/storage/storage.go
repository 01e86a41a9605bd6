package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("storage: object not found")
	ErrTooLarge    = errors.New("storage: object exceeds size limit")
	ErrInvalidPath = errors.New("storage: path escapes storage root")
)

// InfoSuffix is appended to a content path to locate its sidecar metadata.
const InfoSuffix = ".info"

// Store reads uploaded content and its sidecar metadata.
type Store interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	ReadInfo(ctx context.Context, path string) (*FileInfo, error)
}

// FileInfo is the sidecar written next to every upload by the upload server.
type FileInfo struct {
	ID       string            `json:"ID"`
	Size     int64             `json:"Size"`
	MetaData map[string]string `json:"MetaData"`
}

// Filename is the original name of the upload, including its extension.
func (i *FileInfo) Filename() string {
	return strings.TrimSpace(i.MetaData["filename"])
}

// FileType is the client-reported MIME type, if any.
func (i *FileInfo) FileType() string {
	return i.MetaData["filetype"]
}

// ParseInfo decodes a sidecar document. A document without MetaData.filename
// is rejected since nothing downstream can classify the file.
func ParseInfo(data []byte) (*FileInfo, error) {
	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode sidecar: %w", err)
	}
	if info.Filename() == "" {
		return nil, errors.New("decode sidecar: MetaData.filename missing")
	}
	return &info, nil
}

func cleanKey(path string) string {
	return strings.TrimLeft(strings.TrimSpace(path), "/")
}
