package diskusage

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func (StatfsStater) Usage(path string) (Usage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Usage{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	frsize := uint64(st.Frsize)
	if frsize == 0 {
		frsize = uint64(st.Bsize)
	}
	return FromBlocks(st.Blocks, st.Bfree, st.Bavail, frsize), nil
}
