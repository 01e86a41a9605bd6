package diskusage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatfsStater_Usage(t *testing.T) {
	u, err := NewStatfsStater().Usage(t.TempDir())
	require.NoError(t, err)

	assert.Positive(t, u.Total)
	assert.LessOrEqual(t, u.Used+u.Free, u.Total)
}

func TestStatfsStater_MissingPath(t *testing.T) {
	_, err := NewStatfsStater().Usage("/definitely/not/here")
	assert.Error(t, err)
}
