package rkiva

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, uint32(640), cfg.Width)
	assert.Equal(t, uint32(360), cfg.Height)
	assert.Equal(t, uint32(10), cfg.FrameRate)
	assert.Equal(t, "/tmp/iva_object_detection_v3_pfp_nn_640x384.data", cfg.ModelFile())
	assert.Equal(t, 640*360*3/2, cfg.FrameSize())

	x, y, w, h := cfg.DetectArea()
	assert.Equal(t, []uint32{0, 0, 640, 360}, []uint32{x, y, w, h})
}

func TestConfigValidate(t *testing.T) {

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"odd height", func(c *Config) { c.Height = 361 }},
		{"zero rate", func(c *Config) { c.FrameRate = 0 }},
		{"no model", func(c *Config) { c.ModelName = "" }},
	}

	for _, tc := range tests {
		cfg := DefaultConfig()
		tc.modify(&cfg)

		err := cfg.Validate()
		require.Error(t, err, tc.name)
		assert.True(t, errors.Is(err, ErrConfig), tc.name)
	}
}

func TestCallError(t *testing.T) {
	err := NewCallError("ROCKIVA_PushFrame", ErrBufferFull)

	var callErr *CallError
	require.True(t, errors.As(err, &callErr))
	assert.True(t, callErr.Negative())
	assert.Contains(t, err.Error(), "ROCKIVA_PushFrame")
	assert.Contains(t, err.Error(), "frame buffer full")
}
