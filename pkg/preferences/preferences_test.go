package preferences

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaults(t *testing.T) {
	s := NewStore()

	res, err := s.Get(context.Background(), "primary", false)
	require.NoError(t, err)

	assert.Equal(t, 30, res.Duration)
	assert.Equal(t, []string{"morning", "afternoon"}, res.PreferredTimes)
	assert.Equal(t, 15, res.Buffer)
	assert.False(t, res.NeedsInput)
}

func TestGetAskUserWithoutAnswer(t *testing.T) {
	s := NewStore()

	res, err := s.Get(context.Background(), "primary", true)
	require.NoError(t, err)

	assert.True(t, res.NeedsInput)
	assert.Equal(t, 45, res.Duration)
	assert.Equal(t, []string{"afternoon"}, res.PreferredTimes)
	assert.Equal(t, 10, res.Buffer)
}

func TestGetAskUserAfterSupply(t *testing.T) {
	s := NewStore()
	s.Supply("primary", Preferences{Duration: 60, PreferredTimes: []string{"morning"}, Buffer: 5})

	res, err := s.Get(context.Background(), "primary", true)
	require.NoError(t, err)

	assert.False(t, res.NeedsInput)
	assert.Equal(t, 60, res.Duration)

	// Other users still get the override defaults.
	other, err := s.Get(context.Background(), "someone-else", true)
	require.NoError(t, err)
	assert.True(t, other.NeedsInput)
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.Supply("primary", Preferences{Duration: 60})
	s.Clear("primary")

	res, err := s.Get(context.Background(), "primary", true)
	require.NoError(t, err)
	assert.True(t, res.NeedsInput)
}
