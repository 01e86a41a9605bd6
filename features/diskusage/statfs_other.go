//go:build !linux

package diskusage

func (StatfsStater) Usage(path string) (Usage, error) {
	return Usage{}, ErrUnsupportedPlatform
}
