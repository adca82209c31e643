package redis_client

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gopass/dashboard/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect(t *testing.T) {
	server := miniredis.RunT(t)

	require.NoError(t, Connect(config.RedisSettings{Address: server.Addr()}))
	t.Cleanup(func() { Client.Close() })

	require.NoError(t, Client.Set(context.Background(), "hello", "world", 0).Err())
	value, err := server.Get("hello")
	require.NoError(t, err)
	assert.Equal(t, "world", value)
}

func TestConnectUnreachable(t *testing.T) {
	server := miniredis.RunT(t)
	address := server.Addr()
	server.Close()

	assert.Error(t, Connect(config.RedisSettings{Address: address}))
}
