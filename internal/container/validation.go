package container

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/samber/do"
	"github.com/serroba/trusted-shortener/internal/checker"
	"github.com/serroba/trusted-shortener/internal/messaging"
	"github.com/serroba/trusted-shortener/internal/metrics"
	"github.com/serroba/trusted-shortener/internal/shortener"
	"github.com/serroba/trusted-shortener/internal/validation"
	"go.uber.org/zap"
)

const (
	validatorsConsumerGroup = "validators"
	retryBackoff            = time.Second
)

// ValidationPackage provides the validation queue, the validator and the worker pool.
func ValidationPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (validation.Queue, error) {
		opts := do.MustInvoke[*Options](i)

		switch opts.ValidationQueue {
		case backendChannel:
			queue := validation.NewChannelQueue(opts.ValidationQueueCapacity)
			do.MustInvoke[*metrics.Metrics](i).QueueDepth(queue.Len)

			return queue, nil
		case backendRedis:
			client := do.MustInvoke[*RedisClient](i)
			logger := do.MustInvoke[*zap.Logger](i)
			publishers, err := do.Invoke[*messaging.PublisherGroup](i)
			if err != nil {
				return nil, err
			}

			subscriber, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
				Client:        client.Client,
				Unmarshaller:  redisstream.DefaultMarshallerUnmarshaller{},
				ConsumerGroup: validatorsConsumerGroup,
			}, messaging.NewZapLogger(logger))
			if err != nil {
				return nil, fmt.Errorf("create validation subscriber: %w", err)
			}

			return validation.NewStreamQueue(context.Background(), publishers.Publisher(), subscriber)
		default:
			return nil, fmt.Errorf("unknown validation queue %q", opts.ValidationQueue)
		}
	})

	do.Provide(i, func(i *do.Injector) (*validation.Validator, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		repo, err := do.Invoke[shortener.Repository](i)
		if err != nil {
			return nil, err
		}

		timeout := time.Duration(opts.CheckTimeout) * time.Second

		var safety validation.SafetyChecker = checker.StaticSafety{Safe: true}
		if opts.SafeBrowsingKey != "" {
			safety = checker.NewSafeBrowsing(opts.SafeBrowsingKey, timeout)
		} else {
			logger.Warn("no safe browsing key configured, every URL is considered safe")
		}

		retries := uint(max(opts.ValidationRetries, 0))

		return validation.NewValidator(
			repo,
			safety,
			checker.NewHTTPReachability(nil, timeout),
			logger,
			validation.WithCheckTimeout(timeout),
			validation.WithRetryPolicy(validation.NewRetryPolicy(retries, retryBackoff)),
			validation.WithObserver(do.MustInvoke[*metrics.Metrics](i)),
		), nil
	})

	do.Provide(i, func(i *do.Injector) (*validation.Pool, error) {
		opts := do.MustInvoke[*Options](i)

		queue, err := do.Invoke[validation.Queue](i)
		if err != nil {
			return nil, err
		}

		validator, err := do.Invoke[*validation.Validator](i)
		if err != nil {
			return nil, err
		}

		return validation.NewPool(queue, validator, opts.ValidationWorkers, do.MustInvoke[*zap.Logger](i),
			validation.WithDrainTimeout(time.Duration(opts.ValidationDrainTimeout)*time.Second),
		), nil
	})
}
