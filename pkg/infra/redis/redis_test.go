package redis_wrapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisConfig_Options(t *testing.T) {
	cfg := &RedisConfig{
		ConnectionURL:      "redis://:secret@localhost:6380/2",
		PoolSize:           16,
		ReadTimeoutSeconds: 3,
		DepthTTLSeconds:    45,
	}

	opts, err := cfg.Options()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, "secret", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 16, opts.PoolSize)
	assert.Equal(t, 3*time.Second, opts.ReadTimeout)
	assert.Equal(t, 45*time.Second, cfg.DepthTTL())
}

func TestRedisConfig_BadURL(t *testing.T) {
	_, err := (&RedisConfig{ConnectionURL: "http://localhost"}).Options()
	assert.Error(t, err)
}
