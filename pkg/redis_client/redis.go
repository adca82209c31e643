package redis_client

import (
	"context"

	"github.com/adjust/rmq/v5"
	"github.com/gopass/dashboard/pkg/config"
	"github.com/redis/go-redis/v9"
)

var Client *redis.Client
var QueueConnection rmq.Connection

const queueConnectionTag = "gopass-dashboard"

func Connect(settings config.RedisSettings) error {
	options := &redis.Options{
		Addr: settings.Address,
		DB:   settings.Database,
	}

	if settings.Password != "" {
		options.Password = settings.Password
	}

	client := redis.NewClient(options)

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return err
	}

	Client = client

	return nil
}

// ConnectQueue opens the rmq connection on top of an already connected Client
func ConnectQueue() error {
	var err error
	QueueConnection, err = rmq.OpenConnectionWithRedisClient(queueConnectionTag, Client, nil)

	return err
}
