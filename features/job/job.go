package job

import "time"

// Stages a file can fail at.
const (
	StageMetadata = "metadata"
	StageRead     = "read"
	StageExtract  = "extract"
	StageDescribe = "describe"
	StageTag      = "tag"
	StageReport   = "report"
)

// Failure is one journal row: the last error seen for an untagged file.
type Failure struct {
	Hash          string    `json:"hash"`
	Path          string    `json:"path"`
	Filename      string    `json:"filename"`
	Stage         string    `json:"stage"`
	Error         string    `json:"error"`
	Attempts      int       `json:"attempts"`
	FirstFailedAt time.Time `json:"first_failed_at"`
	LastFailedAt  time.Time `json:"last_failed_at"`
}
