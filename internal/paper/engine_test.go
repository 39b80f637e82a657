package paper

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/domain"
)

type fakePositions struct {
	byID   map[int64]*domain.PaperPosition
	nextID int64
}

func newFakePositions() *fakePositions {
	return &fakePositions{byID: map[int64]*domain.PaperPosition{}}
}

func (f *fakePositions) GetOpen(symbol string) (*domain.PaperPosition, error) {
	for _, p := range f.byID {
		if p.Symbol == symbol && p.Status == domain.PaperOpen {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePositions) AllOpen() ([]domain.PaperPosition, error) {
	var out []domain.PaperPosition
	for _, p := range f.byID {
		if p.Status == domain.PaperOpen {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePositions) Insert(p domain.PaperPosition) (domain.PaperPosition, error) {
	f.nextID++
	p.ID = f.nextID
	cp := p
	f.byID[p.ID] = &cp
	return p, nil
}

func (f *fakePositions) UpdateStops(id int64, highestPrice, trailingStop float64) error {
	f.byID[id].HighestPrice = highestPrice
	f.byID[id].TrailingStop = trailingStop
	return nil
}

func (f *fakePositions) Close(id int64, closed domain.PaperPosition) error {
	p := f.byID[id]
	p.Status = domain.PaperClosed
	p.ClosedAt = closed.ClosedAt
	p.ClosePrice = closed.ClosePrice
	p.RealizedPnL = closed.RealizedPnL
	return nil
}

type fakeTrades struct {
	trades []domain.PaperTrade
	nextID int64
}

func (f *fakeTrades) Insert(t domain.PaperTrade) (domain.PaperTrade, error) {
	f.nextID++
	t.ID = f.nextID
	f.trades = append(f.trades, t)
	return t, nil
}

func (f *fakeTrades) All() ([]domain.PaperTrade, error) {
	return f.trades, nil
}

func testEngine() (*Engine, *fakePositions, *fakeTrades) {
	positions := newFakePositions()
	trades := &fakeTrades{}
	trading := config.DefaultTradingParams()
	stopLoss := config.DefaultStopLossParams()
	eng := NewEngine(positions, trades, trading, stopLoss, zerolog.Nop())
	return eng, positions, trades
}

func TestProcessSignal_BuyOpensPosition(t *testing.T) {
	eng, positions, _ := testEngine()
	signal := domain.Signal{Symbol: "AAPL", Direction: domain.Buy}
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	trade, err := eng.ProcessSignal(signal, domain.AssetEquity, 100, nil, now)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, domain.ActionBuy, trade.Action)

	open, err := positions.GetOpen("AAPL")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, domain.PaperOpen, open.Status)
}

func TestProcessSignal_BuyNoOpWhenAlreadyOpen(t *testing.T) {
	eng, _, trades := testEngine()
	signal := domain.Signal{Symbol: "AAPL", Direction: domain.Buy}
	now := time.Now()

	_, err := eng.ProcessSignal(signal, domain.AssetEquity, 100, nil, now)
	require.NoError(t, err)

	trade, err := eng.ProcessSignal(signal, domain.AssetEquity, 105, nil, now)
	require.NoError(t, err)
	assert.Nil(t, trade)
	assert.Len(t, trades.trades, 1)
}

func TestProcessSignal_SellClosesOpenPosition(t *testing.T) {
	eng, _, _ := testEngine()
	now := time.Now()
	_, err := eng.ProcessSignal(domain.Signal{Symbol: "AAPL", Direction: domain.Buy}, domain.AssetEquity, 100, nil, now)
	require.NoError(t, err)

	trade, err := eng.ProcessSignal(domain.Signal{Symbol: "AAPL", Direction: domain.Sell}, domain.AssetEquity, 110, nil, now)
	require.NoError(t, err)
	require.NotNil(t, trade)
	assert.Equal(t, domain.ActionSell, trade.Action)
	assert.Greater(t, trade.PnL, 0.0)
}

func TestProcessSignal_SellNoOpWhenNoOpenPosition(t *testing.T) {
	eng, _, _ := testEngine()
	trade, err := eng.ProcessSignal(domain.Signal{Symbol: "AAPL", Direction: domain.Sell}, domain.AssetEquity, 100, nil, time.Now())
	require.NoError(t, err)
	assert.Nil(t, trade)
}

func TestProcessSignal_InsufficientCashIsNoOp(t *testing.T) {
	eng, _, trades := testEngine()
	// price so high that even the full 10% position-size target buys
	// zero shares of an equity (floor to zero).
	trade, err := eng.ProcessSignal(domain.Signal{Symbol: "BRK.A", Direction: domain.Buy}, domain.AssetEquity, 1_000_000, nil, time.Now())
	require.NoError(t, err)
	assert.Nil(t, trade)
	assert.Empty(t, trades.trades)
}

// TestUpdatePositions_TrailingStopScenario exercises spec scenario
// S5: BUY at 100 (ATR=4 -> fixed stop 92), trailing 5%. Ticks
// 100, 110, 108, 104, 103. At 110 the trailing stop lifts to 104.5;
// at 104 the effective stop (max(92, 104.5)) is breached and the
// position closes at 104.
func TestUpdatePositions_TrailingStopScenario(t *testing.T) {
	positions := newFakePositions()
	stopLoss := config.DefaultStopLossParams()
	stopLoss.Trailing = 0.05 // the scenario's 5% trailing stop, not the 7% default
	eng := NewEngine(positions, &fakeTrades{}, config.DefaultTradingParams(), stopLoss, zerolog.Nop())
	now := time.Now()
	atr := 4.0

	_, err := eng.ProcessSignal(domain.Signal{Symbol: "AAPL", Direction: domain.Buy}, domain.AssetEquity, 100, &atr, now)
	require.NoError(t, err)

	open, err := positions.GetOpen("AAPL")
	require.NoError(t, err)
	assert.InDelta(t, 92, open.StopLoss, 1e-9)
	assert.InDelta(t, 95, open.TrailingStop, 1e-9)

	closed, err := eng.UpdatePositions(map[string]float64{"AAPL": 110}, now)
	require.NoError(t, err)
	assert.Empty(t, closed)
	open, _ = positions.GetOpen("AAPL")
	assert.InDelta(t, 104.5, open.TrailingStop, 1e-9)
	assert.InDelta(t, 110, open.HighestPrice, 1e-9)

	closed, err = eng.UpdatePositions(map[string]float64{"AAPL": 108}, now)
	require.NoError(t, err)
	assert.Empty(t, closed)

	closed, err = eng.UpdatePositions(map[string]float64{"AAPL": 104}, now)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, domain.ActionStop, closed[0].Action)
	assert.InDelta(t, 104, closed[0].Price, 1e-9)

	open, err = positions.GetOpen("AAPL")
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestAvailableCash_ReflectsOpenCostBasisOnly(t *testing.T) {
	eng, _, _ := testEngine()
	trading := config.DefaultTradingParams()
	now := time.Now()

	_, err := eng.ProcessSignal(domain.Signal{Symbol: "AAPL", Direction: domain.Buy}, domain.AssetEquity, 100, nil, now)
	require.NoError(t, err)

	cash, err := eng.AvailableCash()
	require.NoError(t, err)
	// position sized at PositionSizePct * InitialCapital, floored to whole shares
	assert.Less(t, cash, trading.InitialCapital)
	assert.Greater(t, cash, 0.0)
}

func TestSummary_TracksRealizedAndUnrealizedPnL(t *testing.T) {
	eng, _, _ := testEngine()
	now := time.Now()

	_, err := eng.ProcessSignal(domain.Signal{Symbol: "AAPL", Direction: domain.Buy}, domain.AssetEquity, 100, nil, now)
	require.NoError(t, err)
	_, err = eng.ProcessSignal(domain.Signal{Symbol: "MSFT", Direction: domain.Buy}, domain.AssetEquity, 200, nil, now)
	require.NoError(t, err)
	_, err = eng.ProcessSignal(domain.Signal{Symbol: "MSFT", Direction: domain.Sell}, domain.AssetEquity, 220, nil, now)
	require.NoError(t, err)

	summary, err := eng.Summary(map[string]float64{"AAPL": 105})
	require.NoError(t, err)
	assert.Greater(t, summary.RealizedPnL, 0.0)
	assert.Greater(t, summary.UnrealizedPnL, 0.0)
	require.Len(t, summary.Positions, 1)
	assert.Equal(t, "AAPL", summary.Positions[0].Symbol)
}
