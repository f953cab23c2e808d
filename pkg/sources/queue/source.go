// Package queue provides the redis queue event source. The storefront and
// the pricing jobs push AutomationEvent JSON onto a list; this source drains
// it into the engine.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"

	"github.com/windward-io/windward/pkg/events"
	"github.com/windward-io/windward/pkg/protocol"
)

const popTimeout = 1 * time.Second

type Source struct {
	Addr     string
	Password string
	DB       int
	Queue    string

	client   redis.UniversalClient
	callback protocol.SourceCallback
	logger   *slog.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewSource(addr, password string, db int, queue string, logger *slog.Logger) (*Source, error) {
	if addr == "" {
		addr = "localhost:6379"
	}

	source := &Source{
		Addr:     addr,
		Password: password,
		DB:       db,
		Queue:    queue,
		stopCh:   make(chan struct{}),
		logger: logger.With(
			"module", "queue_source",
			"queue", queue,
		),
	}

	if err := source.Validate(); err != nil {
		return nil, err
	}

	return source, nil
}

func (s *Source) Validate() error {
	if s.Queue == "" {
		return errors.New("queue source queue name is required")
	}

	return nil
}

func (s *Source) Start(ctx context.Context, callback protocol.SourceCallback) error {
	s.logger.InfoContext(ctx, "Starting queue source")
	s.callback = callback

	s.client = redis.NewClient(&redis.Options{
		Addr:     s.Addr,
		Password: s.Password,
		DB:       s.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s.logger.InfoContext(ctx, "Connected to Redis", "addr", s.Addr, "db", s.DB)

	s.wg.Add(1)

	go s.consume(ctx)

	return nil
}

func (s *Source) consume(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			s.logger.InfoContext(ctx, "Queue consumer stopped")

			return
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "Context cancelled, stopping queue consumer")

			return
		default:
			if err := s.processMessage(ctx); err != nil {
				s.logger.ErrorContext(ctx, "Error processing message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

func (s *Source) processMessage(ctx context.Context) error {
	result, err := s.client.BLPop(ctx, popTimeout, s.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	event, err := decodeEvent(result[1])
	if err != nil {
		s.logger.WarnContext(ctx, "Dropping malformed queue message", "error", err)

		return nil
	}

	s.logger.InfoContext(ctx, "Received event from queue",
		"event_id", event.ID,
		"event_type", event.Type,
		"subject_id", event.SubjectID)

	if err := s.callback(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Error handling queue event",
			"event_id", event.ID, "error", err)
	}

	return nil
}

// decodeEvent parses an AutomationEvent, filling in id and timestamp when
// the producer left them out.
func decodeEvent(message string) (events.AutomationEvent, error) {
	var event events.AutomationEvent
	if err := json.Unmarshal([]byte(message), &event); err != nil {
		return events.AutomationEvent{}, fmt.Errorf("invalid event payload: %w", err)
	}

	if event.Type == "" || event.SubjectID == "" {
		return events.AutomationEvent{}, errors.New("event payload missing type or subject_id")
	}

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	return event, nil
}

func (s *Source) Stop(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Stopping queue source")

	close(s.stopCh)
	s.wg.Wait()

	if s.client != nil {
		if err := s.client.Close(); err != nil {
			s.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)
		}
	}

	return nil
}
