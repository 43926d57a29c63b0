package client

import (
	"Agora/config"
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisConf(t *testing.T, addr string) *config.Redis {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return &config.Redis{
		Address:       host,
		Port:          p,
		PoolSize:      4,
		MinIdleConns:  1,
		DialTimeoutMs: 500,
		ReadTimeoutMs: 500,
	}
}

func TestDialRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := dialRedis(redisConf(t, mr.Addr()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	opts := client.Options()
	assert.Equal(t, 4, opts.PoolSize)
	assert.Equal(t, 1, opts.MinIdleConns)
	assert.Equal(t, 500*time.Millisecond, opts.DialTimeout)

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestDialRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	conf := redisConf(t, mr.Addr())
	mr.Close()

	_, err := dialRedis(conf)
	assert.Error(t, err)
}
