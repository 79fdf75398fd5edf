package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	server := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), "redis://"+server.Addr()+"/0", time.Second)
	require.NoError(t, err)
	defer client.Close()

	probe := RedisProbe(client)
	require.NoError(t, probe(context.Background()))

	server.Close()
	require.Error(t, probe(context.Background()))
}

func TestConnectRedisRejectsBadInput(t *testing.T) {
	_, err := ConnectRedis(context.Background(), " ", 0)
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), "mysql://nope", 0)
	require.ErrorContains(t, err, "parse redis url")
}
