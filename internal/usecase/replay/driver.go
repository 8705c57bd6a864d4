// Package replay implements ReplayDriver: a wall-clock pacer over a
// feedv1.Source that resolves symbols to numeric ids, translates feed rows
// to orders, and submits them through an IngressCoordinator.
package replay

import (
	"time"

	feedv1 "github.com/muhammadchandra19/exchange/internal/domain/feed/v1"
	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/ingress"
	pkgerrors "github.com/muhammadchandra19/exchange/pkg/errors"
	"github.com/muhammadchandra19/exchange/pkg/logger"
)

// Config controls pacing, filtering, and the Execute-mapping policy.
type Config struct {
	// Speed scales the replay clock: 1.0 is wall-clock, higher is faster.
	// Must be > 0.
	Speed float64
	// SymbolFilter restricts replay to one symbol; empty means no filter.
	SymbolFilter string
	// StartNs and EndNs bound the replay window; zero means unbounded on
	// that side.
	StartNs uint64
	EndNs   uint64
	// ExecuteMapping selects how Execute rows are translated; see the
	// ExecuteMapping doc comment.
	ExecuteMapping ExecuteMapping
}

// DefaultConfig returns wall-clock pacing, no filters, and the default
// Execute mapping.
func DefaultConfig() Config {
	return Config{Speed: 1.0, ExecuteMapping: ExecuteAsIOCMarket}
}

// EventHandler is invoked once per feed row that passes the filters, after
// pacing and submission. order is the zero value and submitted is false for
// rows the driver does not forward (Unknown action).
type EventHandler func(evt feedv1.Event, symbolID uint32, order orderv1.Order, submitted bool)

// Driver paces a feedv1.Source and submits translated orders through an
// IngressCoordinator.
type Driver struct {
	source   feedv1.Source
	coord    *ingress.Coordinator
	registry *SymbolRegistry
	cfg      Config
	log      *logger.Logger
}

// NewDriver constructs a Driver over source, submitting through coord.
func NewDriver(source feedv1.Source, coord *ingress.Coordinator, cfg Config, log *logger.Logger) (*Driver, error) {
	if cfg.Speed <= 0 {
		return nil, pkgerrors.NewErrorDetails(
			"replay speed must be positive",
			string(pkgerrors.GeneralBadRequestError),
			"speed",
		)
	}
	return &Driver{
		source:   source,
		coord:    coord,
		registry: NewSymbolRegistry(),
		cfg:      cfg,
		log:      log,
	}, nil
}

// Registry returns the driver's symbol registry, for callers that need to
// resolve numeric ids back to symbol strings after a run.
func (d *Driver) Registry() *SymbolRegistry { return d.registry }

// Run opens the source, paces through every row passing the configured
// filters, translates and submits each, and calls handler (if non-nil) for
// each. It returns once the source is exhausted or returns an error.
func (d *Driver) Run(handler EventHandler) error {
	if err := d.source.Open(); err != nil {
		return pkgerrors.NewTracer("replay source open failed").Wrap(err)
	}
	defer d.source.Close()

	var (
		evt       feedv1.Event
		haveBase  bool
		tsBase    uint64
		wallStart time.Time
	)

	for {
		ok, err := d.source.Next(&evt)
		if err != nil {
			return pkgerrors.NewTracer("replay source read failed").Wrap(err)
		}
		if !ok {
			return nil
		}

		if d.cfg.SymbolFilter != "" && evt.Symbol != d.cfg.SymbolFilter {
			continue
		}
		if d.cfg.StartNs != 0 && evt.TsEventNs < d.cfg.StartNs {
			continue
		}
		if d.cfg.EndNs != 0 && evt.TsEventNs > d.cfg.EndNs {
			continue
		}

		if !haveBase {
			tsBase = evt.TsEventNs
			wallStart = time.Now()
			haveBase = true
		} else {
			d.pace(tsBase, evt.TsEventNs, wallStart)
		}

		symbolID := d.registry.Resolve(evt.Symbol)
		order, submitted := translate(evt, symbolID, d.cfg.ExecuteMapping)
		if submitted {
			d.coord.SubmitFromDecoder(order)
		}

		if handler != nil {
			handler(evt, symbolID, order, submitted)
		}
	}
}

// pace sleeps until wallClock - wallStart >= (tsEvent - tsEventBase) / speed.
func (d *Driver) pace(tsBase, tsEvent uint64, wallStart time.Time) {
	if tsEvent <= tsBase {
		return
	}
	target := time.Duration(float64(tsEvent-tsBase) / d.cfg.Speed)
	for {
		elapsed := time.Since(wallStart)
		if elapsed >= target {
			return
		}
		remaining := target - elapsed
		if remaining > 2*time.Millisecond {
			time.Sleep(remaining - time.Millisecond)
		} else {
			time.Sleep(time.Microsecond * 100)
		}
	}
}
