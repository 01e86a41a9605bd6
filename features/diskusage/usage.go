package diskusage

import "errors"

var ErrUnsupportedPlatform = errors.New("disk usage not supported on this platform")

// Usage is the filesystem capacity of a mount, in bytes.
type Usage struct {
	Total uint64 `json:"total"`
	Used  uint64 `json:"used"`
	Free  uint64 `json:"free"`
}

// RemainingGB is Free expressed in GiB.
func (u Usage) RemainingGB() float64 {
	return float64(u.Free) / (1024 * 1024 * 1024)
}

// FromBlocks converts statfs block counts. Free counts only blocks available to
// unprivileged users, so Used+Free falls short of Total by the reserved blocks.
func FromBlocks(blocks, bfree, bavail, frsize uint64) Usage {
	return Usage{
		Total: blocks * frsize,
		Used:  (blocks - bfree) * frsize,
		Free:  bavail * frsize,
	}
}

type Stater interface {
	Usage(path string) (Usage, error)
}

// StatfsStater reads usage with the statfs system call.
type StatfsStater struct{}

func NewStatfsStater() StatfsStater {
	return StatfsStater{}
}
