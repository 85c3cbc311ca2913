package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnowflake_Generate(t *testing.T) {
	sf, err := NewSnowflake(1)
	require.NoError(t, err)

	seen := make(map[int64]struct{}, 1000)
	prev := int64(0)
	for range 1000 {
		id := sf.Generate()
		assert.Greater(t, id, prev)
		seen[id] = struct{}{}
		prev = id
	}
	assert.Len(t, seen, 1000)
}

func TestNewSnowflake_HostNode(t *testing.T) {
	_, err := NewSnowflake(-1)
	require.NoError(t, err)

	_, err = NewSnowflake(1 << 20)
	assert.Error(t, err)
}

func TestUUID_Generate(t *testing.T) {
	id, err := uuid.Parse(NewUUID().Generate())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}
