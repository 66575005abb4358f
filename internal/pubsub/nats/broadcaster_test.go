package nats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	loggerCfg "gitlab.com/nevasik7/alerting/config"
	"gitlab.com/nevasik7/alerting/logger"

	"personastats/internal/config"
)

func newTestLogger() logger.Logger {
	return logger.New(loggerCfg.LoggerCfg{Level: "error", Format: "json"})
}

func runWithServer(t *testing.T, testFunc func(t *testing.T, url string)) {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1 // random port
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	testFunc(t, s.ClientURL())
}

func TestNew_NilConfig(t *testing.T) {
	client, err := New(newTestLogger(), nil)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNew_EmptyURL(t *testing.T) {
	client, err := New(newTestLogger(), &config.NATSConfig{})
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestPublish_PrefixedSubjectAndJSONPayload(t *testing.T) {
	runWithServer(t, func(t *testing.T, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url, BroadcastPrefix: "stats"})
		require.NoError(t, err)
		defer client.Close()

		sub, err := nats.Connect(url)
		require.NoError(t, err)
		defer sub.Close()

		msgCh := make(chan *nats.Msg, 1)
		_, err = sub.ChanSubscribe("stats.daily.2025-03-09", msgCh)
		require.NoError(t, err)
		require.NoError(t, sub.Flush())

		patch := map[string]any{"date": "2025-03-09", "trades": 7}
		require.NoError(t, client.Publish(context.Background(), "daily.2025-03-09", patch))

		select {
		case msg := <-msgCh:
			var got map[string]any
			require.NoError(t, json.Unmarshal(msg.Data, &got))
			assert.Equal(t, "2025-03-09", got["date"])
			assert.EqualValues(t, 7, got["trades"])
		case <-time.After(2 * time.Second):
			t.Fatal("no message received")
		}
	})
}

func TestHealth(t *testing.T) {
	runWithServer(t, func(t *testing.T, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url})
		require.NoError(t, err)

		assert.NoError(t, client.Health(context.Background()))
		assert.True(t, client.Ready())

		require.NoError(t, client.Close())
		assert.Error(t, client.Health(context.Background()))
	})
}

func TestClose_Idempotent(t *testing.T) {
	runWithServer(t, func(t *testing.T, url string) {
		client, err := New(newTestLogger(), &config.NATSConfig{URL: url})
		require.NoError(t, err)

		assert.NoError(t, client.Close())
		assert.NoError(t, client.Close())
		assert.NoError(t, client.Close())
	})
}
