package replay

import (
	"context"
	"encoding/json"

	feedv1 "github.com/muhammadchandra19/exchange/internal/domain/feed/v1"
	pkgerrors "github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures a KafkaFeedSource.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// KafkaFeedSource is a feedv1.Source reading one JSON-encoded feed row per
// Kafka message, for live-tailing a feed topic instead of a recorded file.
// ctx bounds each individual read; Next returns a read error if ctx expires
// mid-read.
type KafkaFeedSource struct {
	ctx    context.Context
	reader *kafka.Reader
	log    *logger.Logger
}

// NewKafkaFeedSource constructs a KafkaFeedSource. ctx governs the lifetime
// of every ReadMessage call made from Next.
func NewKafkaFeedSource(ctx context.Context, cfg KafkaConfig, log *logger.Logger) *KafkaFeedSource {
	return &KafkaFeedSource{
		ctx: ctx,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       cfg.Topic,
			GroupID:     cfg.GroupID,
			MinBytes:    1,
			MaxBytes:    10e6,
			StartOffset: kafka.FirstOffset,
		}),
		log: log,
	}
}

// Open is a no-op; the underlying kafka.Reader connects lazily on first read.
func (s *KafkaFeedSource) Open() error { return nil }

// Next reads and decodes the next message. It never returns false on its
// own; a topic is an unbounded source and callers pair it with a
// time-range or count-based stopping rule.
func (s *KafkaFeedSource) Next(out *feedv1.Event) (bool, error) {
	msg, err := s.reader.ReadMessage(s.ctx)
	if err != nil {
		if s.log != nil {
			s.log.Error(pkgerrors.NewTracer("kafka feed read failed").Wrap(err))
		}
		return false, pkgerrors.NewTracer("kafka feed read failed").Wrap(err)
	}

	var row jsonlRow
	if err := json.Unmarshal(msg.Value, &row); err != nil {
		return false, pkgerrors.NewTracer("failed to decode kafka feed message").Wrap(err)
	}
	*out = rowToEvent(row)
	return true, nil
}

// Close closes the underlying kafka.Reader.
func (s *KafkaFeedSource) Close() error {
	if err := s.reader.Close(); err != nil {
		return pkgerrors.NewTracer("failed to close kafka feed reader").Wrap(err)
	}
	return nil
}
