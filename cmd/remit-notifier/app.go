package main

import (
	"context"
	"log/slog"

	"github.com/krishn-cti/remit-go/internal/services/pusher"
)

type notifierOpts struct {
	httpAddr string

	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler func(key, value []byte) error) error
}

func runNotifier(ctx context.Context, opts notifierOpts, p *pusher.Pusher, consumer kafkaConsumer) error {
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runNotifierHTTPServer(ctx, opts, p)
	}()

	consumerErr := make(chan error, 1)
	go func() {
		slog.Info("kafka consumer started", "topic", opts.topic, "group", opts.consumerGroup)
		consumerErr <- consumer.Consume(ctx, func(key, value []byte) error {
			return p.Handle(ctx, key, value)
		})
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	case err := <-consumerErr:
		return err
	}
}
