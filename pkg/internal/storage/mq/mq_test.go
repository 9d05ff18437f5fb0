package mq_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/fileuploader/pkg/configs"
	"github.com/yeisme/fileuploader/pkg/internal/storage/mq"
	"github.com/yeisme/fileuploader/pkg/queue"
)

func goChannelConfig() configs.MQConfig {
	return configs.MQConfig{
		Type:      configs.MQTypeGoChannel,
		GoChannel: configs.MQGoChannelConfig{OutputChannelBuffer: 8},
	}
}

func TestGoChannelPublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mq.New(ctx, goChannelConfig())
	require.NoError(t, err)
	defer client.Close()

	assert.Equal(t, configs.MQTypeGoChannel, client.Type())

	ch, err := client.Subscribe(ctx, queue.TopicUploadCommitted)
	require.NoError(t, err)

	require.NoError(t, queue.PublishUploadCommitted(client, queue.UploadCommittedPayload{
		File: queue.FileRef{Name: "a.txt", Size: 1},
	}))

	select {
	case msg := <-ch:
		env, err := queue.ParseUploadCommitted(msg)
		require.NoError(t, err)
		assert.Equal(t, "a.txt", env.Payload.File.Name)
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("message not delivered")
	}
}

func TestHandlerRouter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mq.New(ctx, goChannelConfig(), mq.WithMetrics(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer client.Close()

	got := make(chan string, 1)

	client.AddHandler("test", queue.TopicUploadFailed, func(msg *message.Message) error {
		env, err := queue.ParseWatermillMessage[queue.UploadFailedPayload](msg)
		if err != nil {
			return err
		}

		got <- env.Payload.Stage

		return nil
	})

	go func() { _ = client.Run(ctx) }()

	select {
	case <-client.Running():
	case <-ctx.Done():
		t.Fatal("router not running")
	}

	require.NoError(t, queue.PublishUploadFailed(client, queue.UploadFailedPayload{Stage: "commit", Status: 500}))

	select {
	case stage := <-got:
		assert.Equal(t, "commit", stage)
	case <-ctx.Done():
		t.Fatal("handler not called")
	}
}

func TestUnsupportedType(t *testing.T) {
	_, err := mq.New(context.Background(), configs.MQConfig{Type: "kafka"})
	require.Error(t, err)
}

func TestRunWithoutHandlers(t *testing.T) {
	client, err := mq.New(context.Background(), goChannelConfig())
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Run(context.Background()))
}

func TestRegisteredTypes(t *testing.T) {
	assert.Equal(t, []configs.MQType{configs.MQTypeGoChannel, configs.MQTypeNATS}, mq.RegisteredTypes())
}
