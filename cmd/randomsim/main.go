// Command randomsim drives the matching core with a synthetic random order
// flow: no feed file, no strategy, just a configurable rate of New/Cancel
// traffic across a symbol universe, useful for smoke-testing the
// engine/ingress wiring and eyeballing throughput.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/engine"
	"github.com/muhammadchandra19/exchange/internal/usecase/ingress"
	"github.com/muhammadchandra19/exchange/pkg/config"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type params struct {
	numShards    int
	ringSize     int
	numProducers int
	mailboxSize  int
	numSymbols   int
	ratePerSec   int
	durationSec  int
	seed         int64
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	p, err := parseArgs(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "usage: randomsim numShards ringSize numProducers mailboxSize numSymbols ratePerSec durationSec [seed]")
		return exitUsage
	}

	log, err := logger.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitError
	}
	defer log.Sync()

	// numShards/ringSize/numProducers/mailboxSize are mandatory positional
	// args per the documented CLI surface; the per-shard matching caps come
	// from the same env-loaded EngineConfig every cmd/ binary shares.
	engCfg := config.EngineConfig{}
	if err := config.Load(&engCfg); err != nil {
		log.Error(err)
		return exitError
	}

	eng, err := engine.New(engine.Options{
		NumShards:        p.numShards,
		RingCapacity:     p.ringSize,
		MaxLevels:        engCfg.MaxLevels,
		MaxQty:           engCfg.MaxQty,
		MaxNotionalCents: engCfg.MaxNotionalCents,
	}, log)
	if err != nil {
		log.Error(err)
		return exitError
	}

	coord, err := ingress.New(eng, ingress.Options{
		NumProducers:    p.numProducers,
		MailboxCapacity: p.mailboxSize,
	}, log)
	if err != nil {
		log.Error(err)
		return exitError
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	eng.Start()
	coord.Start()

	gen := newGenerator(p.seed, p.numSymbols)
	stop := make(chan struct{})
	go func() {
		submitAtRate(ctx, coord, gen, p.ratePerSec)
		close(stop)
	}()

	select {
	case <-time.After(time.Duration(p.durationSec) * time.Second):
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.NewField("signal", sig.String()))
	}

	cancel()
	<-stop
	coord.Stop()
	coord.Wait()
	eng.Shutdown()

	log.Info("randomsim finished",
		logger.NewField("enqueued", eng.EnqueuedCount()),
		logger.NewField("dropped", eng.DroppedCount()),
		logger.NewField("processed", eng.ProcessedCount()),
		logger.NewField("trades", eng.TradesCount()),
	)
	return exitOK
}

func parseArgs(args []string) (params, error) {
	if len(args) < 7 || len(args) > 8 {
		return params{}, fmt.Errorf("expected 7 or 8 positional arguments, got %d", len(args))
	}

	ints := make([]int, 7)
	for i := 0; i < 7; i++ {
		v, err := strconv.Atoi(args[i])
		if err != nil {
			return params{}, fmt.Errorf("argument %d (%q) must be an integer: %w", i+1, args[i], err)
		}
		ints[i] = v
	}

	p := params{
		numShards:    ints[0],
		ringSize:     ints[1],
		numProducers: ints[2],
		mailboxSize:  ints[3],
		numSymbols:   ints[4],
		ratePerSec:   ints[5],
		durationSec:  ints[6],
		seed:         time.Now().UnixNano(),
	}
	if len(args) == 8 {
		seed, err := strconv.ParseInt(args[7], 10, 64)
		if err != nil {
			return params{}, fmt.Errorf("seed %q must be an integer: %w", args[7], err)
		}
		p.seed = seed
	}
	if p.numShards <= 0 || p.ringSize <= 0 || p.numProducers <= 0 || p.mailboxSize <= 0 || p.numSymbols <= 0 || p.ratePerSec <= 0 || p.durationSec <= 0 {
		return params{}, fmt.Errorf("all positional arguments must be positive")
	}
	return p, nil
}

// generator produces a synthetic order flow around a per-symbol random walk
// mid price, mostly resting Day limits with an occasional IOC/FOK/Market/
// Cancel. It exercises the New (limit and market) and Cancel paths in
// shard.process; it generates no Replace or Post-Only orders.
type generator struct {
	rnd        *rand.Rand
	numSymbols int
	mid        []int64
	nextID     uint64
	recent     []uint64 // small ring of recently issued ids, for cancels
}

func newGenerator(seed int64, numSymbols int) *generator {
	g := &generator{
		rnd:        rand.New(rand.NewSource(seed)),
		numSymbols: numSymbols,
		mid:        make([]int64, numSymbols),
		nextID:     1,
	}
	for i := range g.mid {
		g.mid[i] = 10000
	}
	return g
}

func (g *generator) next() orderv1.Order {
	symbolID := uint32(g.rnd.Intn(g.numSymbols))
	g.mid[symbolID] += int64(g.rnd.Intn(21) - 10)
	if g.mid[symbolID] < 100 {
		g.mid[symbolID] = 100
	}

	if len(g.recent) > 8 && g.rnd.Intn(10) == 0 {
		targetID := g.recent[g.rnd.Intn(len(g.recent))]
		return orderv1.Order{
			ID:       g.issueID(),
			SymbolID: symbolID,
			Op:       orderv1.OpCancel,
			TargetID: targetID,
		}
	}

	side := orderv1.SideBuy
	if g.rnd.Intn(2) == 0 {
		side = orderv1.SideSell
	}
	qty := int32(1 + g.rnd.Intn(100))
	jitter := int64(g.rnd.Intn(41) - 20)

	id := g.issueID()
	g.remember(id)

	if g.rnd.Intn(20) == 0 {
		return orderv1.Order{
			ID:       id,
			SymbolID: symbolID,
			Op:       orderv1.OpNew,
			Side:     side,
			Type:     orderv1.TypeMarket,
			TIF:      orderv1.TIFIOC,
			Qty:      qty,
		}
	}

	tif := orderv1.TIFDay
	switch g.rnd.Intn(10) {
	case 0:
		tif = orderv1.TIFIOC
	case 1:
		tif = orderv1.TIFFOK
	}

	return orderv1.Order{
		ID:         id,
		SymbolID:   symbolID,
		Op:         orderv1.OpNew,
		Side:       side,
		Type:       orderv1.TypeLimit,
		TIF:        tif,
		PriceCents: g.mid[symbolID] + jitter,
		Qty:        qty,
	}
}

func (g *generator) issueID() uint64 {
	id := g.nextID
	g.nextID++
	return id
}

func (g *generator) remember(id uint64) {
	const window = 64
	g.recent = append(g.recent, id)
	if len(g.recent) > window {
		g.recent = g.recent[len(g.recent)-window:]
	}
}

func submitAtRate(ctx context.Context, coord *ingress.Coordinator, gen *generator, ratePerSec int) {
	interval := time.Second / time.Duration(ratePerSec)
	if interval <= 0 {
		interval = time.Nanosecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			coord.SubmitFromDecoder(gen.next())
		}
	}
}
