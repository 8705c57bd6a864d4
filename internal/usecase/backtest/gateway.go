package backtest

import (
	"sync/atomic"

	orderv1 "github.com/muhammadchandra19/exchange/internal/domain/order/v1"
	strategyv1 "github.com/muhammadchandra19/exchange/internal/domain/strategy/v1"
	"github.com/muhammadchandra19/exchange/internal/usecase/ingress"
	"github.com/muhammadchandra19/exchange/internal/usecase/replay"
	pkgerrors "github.com/muhammadchandra19/exchange/pkg/errors"
)

// strategyIDFloor is the first id a Gateway assigns; it is far above any
// realistic feed-replayed id, so strategy-originated and feed-replayed
// orders never collide.
const strategyIDFloor = 1_000_000_000_000

// IngressOrderGateway implements strategyv1.Gateway by submitting through an
// IngressCoordinator, resolving symbol strings with the same registry the
// replay driver uses so strategy orders land on the correct shard.
type IngressOrderGateway struct {
	coord    *ingress.Coordinator
	registry *replay.SymbolRegistry
	nextID   atomic.Uint64
}

// NewIngressOrderGateway constructs a Gateway sharing registry with the
// Backtester's replay driver.
func NewIngressOrderGateway(coord *ingress.Coordinator, registry *replay.SymbolRegistry) *IngressOrderGateway {
	g := &IngressOrderGateway{coord: coord, registry: registry}
	g.nextID.Store(strategyIDFloor)
	return g
}

func (g *IngressOrderGateway) allocID() uint64 {
	return g.nextID.Add(1) - 1
}

func (g *IngressOrderGateway) resolveSymbol(symbol string) (uint32, error) {
	id, ok := g.registry.Lookup(symbol)
	if !ok {
		return 0, pkgerrors.NewErrorDetails(
			"unknown symbol: strategy must reference a symbol already seen in the feed",
			string(pkgerrors.GeneralBadRequestError),
			"symbol",
		)
	}
	return id, nil
}

// SubmitNewLimit submits a new limit order and returns its assigned id.
func (g *IngressOrderGateway) SubmitNewLimit(symbol string, side orderv1.Side, priceCents int64, qty int32, tif orderv1.TIF) (uint64, error) {
	symbolID, err := g.resolveSymbol(symbol)
	if err != nil {
		return 0, err
	}
	id := g.allocID()
	g.coord.SubmitFromDecoder(orderv1.Order{
		ID:         id,
		SymbolID:   symbolID,
		Op:         orderv1.OpNew,
		Side:       side,
		Type:       orderv1.TypeLimit,
		TIF:        tif,
		PriceCents: priceCents,
		Qty:        qty,
	})
	return id, nil
}

// SubmitNewMarket submits a new market order and returns its assigned id.
func (g *IngressOrderGateway) SubmitNewMarket(symbol string, side orderv1.Side, qty int32, tif orderv1.TIF) (uint64, error) {
	symbolID, err := g.resolveSymbol(symbol)
	if err != nil {
		return 0, err
	}
	id := g.allocID()
	g.coord.SubmitFromDecoder(orderv1.Order{
		ID:       id,
		SymbolID: symbolID,
		Op:       orderv1.OpNew,
		Side:     side,
		Type:     orderv1.TypeMarket,
		TIF:      tif,
		Qty:      qty,
	})
	return id, nil
}

// SubmitCancel submits a cancel against targetID.
func (g *IngressOrderGateway) SubmitCancel(symbol string, targetID uint64) error {
	symbolID, err := g.resolveSymbol(symbol)
	if err != nil {
		return err
	}
	g.coord.SubmitFromDecoder(orderv1.Order{
		ID:       g.allocID(),
		SymbolID: symbolID,
		Op:       orderv1.OpCancel,
		TargetID: targetID,
	})
	return nil
}

// SubmitReplace submits a replace against targetID.
func (g *IngressOrderGateway) SubmitReplace(symbol string, targetID uint64, newPriceCents int64, newQty int32) error {
	symbolID, err := g.resolveSymbol(symbol)
	if err != nil {
		return err
	}
	g.coord.SubmitFromDecoder(orderv1.Order{
		ID:            g.allocID(),
		SymbolID:      symbolID,
		Op:            orderv1.OpReplace,
		TargetID:      targetID,
		NewPriceCents: newPriceCents,
		NewQty:        newQty,
	})
	return nil
}

var _ strategyv1.Gateway = (*IngressOrderGateway)(nil)
