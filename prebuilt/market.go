package prebuilt

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Volatility and order book readings reported by a MarketDataProvider.
const (
	VolatilityHigh   = "High"
	VolatilityMedium = "Medium"

	ImbalanceBullish = "bullish"
	ImbalanceBearish = "bearish"
	ImbalanceNeutral = "neutral"
)

// MarketSnapshot is the combined historical and live reading for one asset.
type MarketSnapshot struct {
	Volume24h          float64
	PriceVolatility    string
	CurrentPrice       float64
	OrderBookImbalance string
}

// Map returns the snapshot in the shape stored under research_data.
func (m MarketSnapshot) Map() map[string]any {
	return map[string]any{
		"volume_24h":           m.Volume24h,
		"price_volatility":     m.PriceVolatility,
		"current_price":        m.CurrentPrice,
		"order_book_imbalance": m.OrderBookImbalance,
	}
}

// snapshotFromMap reads back a snapshot stored by Map. Missing keys stay zero.
func snapshotFromMap(data map[string]any) MarketSnapshot {
	var m MarketSnapshot
	m.Volume24h = number(data["volume_24h"])
	m.PriceVolatility, _ = data["price_volatility"].(string)
	m.CurrentPrice = number(data["current_price"])
	m.OrderBookImbalance, _ = data["order_book_imbalance"].(string)
	return m
}

// MarketDataProvider feeds the Researcher step.
type MarketDataProvider interface {
	// Snapshot returns the current market reading for asset.
	Snapshot(ctx context.Context, asset string) (MarketSnapshot, error)

	// LiquidityDraw returns a value in [0, 1) used when screening volatile
	// markets for liquidity risk.
	LiquidityDraw() float64
}

// RandomMarket produces mock readings from a seeded generator. It is safe for
// concurrent use.
type RandomMarket struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomMarket creates a RandomMarket. A zero seed uses the current time.
func NewRandomMarket(seed int64) *RandomMarket {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomMarket{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))}
}

// Snapshot implements MarketDataProvider.
func (m *RandomMarket) Snapshot(ctx context.Context, _ string) (MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return MarketSnapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MarketSnapshot{
		Volume24h:       uniform(m.rng, 1_000_000, 50_000_000),
		PriceVolatility: VolatilityMedium,
	}
	if m.rng.Float64() > 0.5 {
		snap.PriceVolatility = VolatilityHigh
	}
	snap.CurrentPrice = uniform(m.rng, 1500, 3500)
	imbalances := []string{ImbalanceBullish, ImbalanceBearish, ImbalanceNeutral}
	snap.OrderBookImbalance = imbalances[m.rng.IntN(len(imbalances))]
	return snap, nil
}

// LiquidityDraw implements MarketDataProvider.
func (m *RandomMarket) LiquidityDraw() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// FixedMarket always returns the same reading. Err, when set, fails every
// Snapshot call.
type FixedMarket struct {
	Market MarketSnapshot
	Draw   float64
	Err    error
}

// Snapshot implements MarketDataProvider.
func (f FixedMarket) Snapshot(context.Context, string) (MarketSnapshot, error) {
	if f.Err != nil {
		return MarketSnapshot{}, f.Err
	}
	return f.Market, nil
}

// LiquidityDraw implements MarketDataProvider.
func (f FixedMarket) LiquidityDraw() float64 { return f.Draw }
