package subgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointFor(t *testing.T) {
	url, err := EndpointFor("Flare", nil)
	require.NoError(t, err)
	assert.Equal(t, Networks["flare"], url)

	url, err = EndpointFor("base", map[string]string{"base": "http://localhost:8000/base"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/base", url)

	url, err = EndpointFor("devnet", map[string]string{"devnet": "http://localhost:8000/dev"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000/dev", url)

	_, err = EndpointFor("cosmos", nil)
	assert.ErrorIs(t, err, ErrUnknownNetwork)
}

func TestKnownNetworks(t *testing.T) {
	names := KnownNetworks()
	assert.Len(t, names, len(Networks))
	assert.IsIncreasing(t, names)
}

func TestDayRange(t *testing.T) {
	from, to, err := DayRange(day(2024, 1, 31), day(2024, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 31).Unix(), from)
	assert.Equal(t, day(2024, 2, 2).Unix(), to)

	_, _, err = DayRange(day(2024, 2, 1), day(2024, 1, 31))
	assert.ErrorIs(t, err, ErrInvalidRange)
}
