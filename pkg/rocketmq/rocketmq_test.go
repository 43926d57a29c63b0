package rocketmq

import (
	"Agora/config"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_Disabled(t *testing.T) {
	p, cleanup, err := NewPublisher(&config.RocketMQConfig{Topic: "AGORA_ENGAGEMENT"})
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), "like.toggled", "1", map[string]any{"liked": true}))
}

func TestBuildMessage(t *testing.T) {
	payload := map[string]any{"post_id": "10", "liked": true}
	msg, err := buildMessage("AGORA_ENGAGEMENT", "like.toggled", "post:10", payload)
	require.NoError(t, err)

	assert.Equal(t, "AGORA_ENGAGEMENT", msg.Topic)
	assert.Equal(t, "like.toggled", msg.GetTags())
	assert.Equal(t, "post:10", msg.GetKeys())
	assert.Equal(t, "post:10", msg.GetShardingKey())

	var got map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, true, got["liked"])
}

func TestBuildMessage_BadPayload(t *testing.T) {
	_, err := buildMessage("t", "tag", "", make(chan int))
	assert.Error(t, err)
}
