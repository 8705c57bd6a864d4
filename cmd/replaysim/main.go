// Command replaysim paces a recorded JSONL feed through the matching core
// with no strategy attached, for smoke-testing a feed file and eyeballing
// the resulting trade/event flow.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	feedv1 "github.com/muhammadchandra19/exchange/internal/domain/feed/v1"
	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/engine"
	"github.com/muhammadchandra19/exchange/internal/usecase/ingress"
	"github.com/muhammadchandra19/exchange/internal/usecase/replay"
	"github.com/muhammadchandra19/exchange/pkg/config"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

const (
	exitOK         = 0
	exitError      = 1
	exitUsage      = 2
	exitSourceOpen = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type params struct {
	path         string
	speed        float64
	symbolFilter string
	startNs      uint64
	endNs        uint64
	sourceKafka  bool
}

func run(args []string) int {
	p, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: replaysim path [speed] [symbolFilter] [startNs] [endNs] [--minute offsetMin] [--source kafka]")
		return exitUsage
	}

	log, err := logger.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	defer log.Sync()

	engCfg := config.EngineConfig{}
	if err := config.Load(&engCfg); err != nil {
		log.Error(err)
		return exitError
	}

	eng, err := engine.New(engine.Options{
		NumShards:        engCfg.NumShards,
		RingCapacity:     engCfg.RingCapacity,
		MaxLevels:        engCfg.MaxLevels,
		MaxQty:           engCfg.MaxQty,
		MaxNotionalCents: engCfg.MaxNotionalCents,
	}, log)
	if err != nil {
		log.Error(err)
		return exitError
	}

	coord, err := ingress.New(eng, ingress.Options{NumProducers: engCfg.NumProducers, MailboxCapacity: engCfg.MailboxCapacity}, log)
	if err != nil {
		log.Error(err)
		return exitError
	}

	source, err := buildSource(p, log)
	if err != nil {
		log.Error(err)
		return exitSourceOpen
	}
	cfg := replay.DefaultConfig()
	cfg.Speed = p.speed
	cfg.SymbolFilter = p.symbolFilter
	cfg.StartNs = p.startNs
	cfg.EndNs = p.endNs

	driver, err := replay.NewDriver(source, coord, cfg, log)
	if err != nil {
		log.Error(err)
		return exitError
	}

	eng.Start()
	coord.Start()

	var rows int
	runErr := driver.Run(func(evt feedv1.Event, symbolID uint32, order orderv1.Order, submitted bool) {
		_ = evt
		_ = symbolID
		_ = order
		_ = submitted
		rows++
	})

	coord.Stop()
	coord.Wait()
	eng.Shutdown()

	if runErr != nil {
		log.Error(runErr)
		if isSourceOpenError(runErr) {
			return exitSourceOpen
		}
		return exitError
	}

	log.Info("replaysim finished",
		logger.NewField("rows", rows),
		logger.NewField("enqueued", eng.EnqueuedCount()),
		logger.NewField("dropped", eng.DroppedCount()),
		logger.NewField("processed", eng.ProcessedCount()),
		logger.NewField("trades", eng.TradesCount()),
	)
	return exitOK
}

func isSourceOpenError(err error) bool {
	return strings.Contains(err.Error(), "open")
}

// buildSource picks the feed source implementation per p.sourceKafka. The
// file source treats p.path as a filesystem path; the Kafka source treats it
// as an optional topic override on top of pkg/config.KafkaConfig (BROKER,
// TOPIC, GROUP_ID), so the same positional argument slot serves both modes.
func buildSource(p params, log *logger.Logger) (feedv1.Source, error) {
	if !p.sourceKafka {
		return replay.NewJSONLSource(p.path), nil
	}

	kafkaCfg := config.KafkaConfig{}
	if err := config.Load(&kafkaCfg); err != nil {
		return nil, err
	}
	if p.path != "" {
		kafkaCfg.Topic = p.path
	}
	return replay.NewKafkaFeedSource(context.Background(), replay.KafkaConfig{
		Brokers: kafkaCfg.Brokers,
		Topic:   kafkaCfg.Topic,
		GroupID: kafkaCfg.GroupID,
	}, log), nil
}

func parseArgs(args []string) (params, error) {
	p := params{speed: 1.0}

	var minuteOffset int
	haveMinute := false
	positional := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--minute" {
			if i+1 >= len(args) {
				return params{}, fmt.Errorf("--minute requires an offset value")
			}
			v, err := strconv.Atoi(args[i+1])
			if err != nil {
				return params{}, fmt.Errorf("--minute offset %q must be an integer: %w", args[i+1], err)
			}
			minuteOffset = v
			haveMinute = true
			i++
			continue
		}
		if args[i] == "--source" {
			if i+1 >= len(args) {
				return params{}, fmt.Errorf("--source requires a value (file|kafka)")
			}
			switch args[i+1] {
			case "file":
				p.sourceKafka = false
			case "kafka":
				p.sourceKafka = true
			default:
				return params{}, fmt.Errorf("--source %q must be file or kafka", args[i+1])
			}
			i++
			continue
		}
		positional = append(positional, args[i])
	}

	if len(positional) < 1 && !p.sourceKafka {
		return params{}, fmt.Errorf("path is required")
	}
	if len(positional) >= 1 {
		p.path = positional[0]
	}

	if len(positional) >= 2 && positional[1] != "" {
		v, err := strconv.ParseFloat(positional[1], 64)
		if err != nil {
			return params{}, fmt.Errorf("speed %q must be a number: %w", positional[1], err)
		}
		p.speed = v
	}
	if len(positional) >= 3 {
		p.symbolFilter = positional[2]
	}
	if len(positional) >= 4 && positional[3] != "" {
		v, err := strconv.ParseUint(positional[3], 10, 64)
		if err != nil {
			return params{}, fmt.Errorf("startNs %q must be an unsigned integer: %w", positional[3], err)
		}
		p.startNs = v
	}
	if len(positional) >= 5 && positional[4] != "" {
		v, err := strconv.ParseUint(positional[4], 10, 64)
		if err != nil {
			return params{}, fmt.Errorf("endNs %q must be an unsigned integer: %w", positional[4], err)
		}
		p.endNs = v
	}

	if haveMinute {
		offset := uint64(time.Duration(minuteOffset) * time.Minute / time.Nanosecond)
		p.startNs += offset
		if p.endNs != 0 {
			p.endNs += offset
		}
	}

	return p, nil
}
