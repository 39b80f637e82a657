package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/samhoi-x/compass/internal/config"
	"github.com/samhoi-x/compass/internal/database"
	"github.com/samhoi-x/compass/internal/database/repositories"
	"github.com/samhoi-x/compass/internal/domain"
	"github.com/samhoi-x/compass/internal/paper"
)

func buildTestServer(t *testing.T) (*Server, *repositories.SignalRepository) {
	t.Helper()
	log := zerolog.Nop()

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	db.Conn().SetMaxOpenConns(1)
	require.NoError(t, db.Migrate())

	signals := repositories.NewSignalRepository(db.Conn(), log)
	prices := repositories.NewPriceBarRepository(db.Conn(), log)
	alerts := repositories.NewRiskAlertRepository(db.Conn(), log)
	settings := repositories.NewSettingRepository(db.Conn(), log)
	backtests := repositories.NewBacktestRepository(db.Conn(), log)
	positions := repositories.NewPaperPositionRepository(db.Conn(), log)
	trades := repositories.NewPaperTradeRepository(db.Conn(), log)

	engine := paper.NewEngine(positions, trades, config.DefaultTradingParams(), config.DefaultStopLossParams(), log)

	s := New(Config{
		Port:      0,
		Log:       log,
		DevMode:   true,
		Signals:   signals,
		Prices:    prices,
		Alerts:    alerts,
		Settings:  settings,
		Backtests: backtests,
		Positions: positions,
		Trades:    trades,
		Paper:     engine,
	})
	return s, signals
}

func TestHandleHealth(t *testing.T) {
	s, _ := buildTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSystemStatus_NoScheduler(t *testing.T) {
	s, _ := buildTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/system/status", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleRecentSignals_RequiresSymbol(t *testing.T) {
	s, _ := buildTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/signals/", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRecentSignals_ReturnsPersisted(t *testing.T) {
	s, signalsRepo := buildTestServer(t)

	_, err := signalsRepo.Insert(domain.Signal{
		Symbol: "AAPL", Kind: domain.SignalScheduled, Direction: domain.Buy,
		Strength: 0.5, Confidence: 0.6, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/signals/?symbol=AAPL", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"AAPL"`)
}

func TestHandleUnacknowledgedAlerts_Empty(t *testing.T) {
	s, _ := buildTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/alerts/", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]\n", rec.Body.String())
}

func TestHandleGetSetting_NotFound(t *testing.T) {
	s, _ := buildTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/settings/does_not_exist", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePutThenGetSetting_RoundTrips(t *testing.T) {
	s, _ := buildTestServer(t)

	putReq := httptest.NewRequest(http.MethodPut, "/api/settings/custom_flag", strings.NewReader(`true`))
	putRec := httptest.NewRecorder()
	s.router.ServeHTTP(putRec, putReq)
	require.Equal(t, http.StatusOK, putRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/api/settings/custom_flag", nil)
	getRec := httptest.NewRecorder()
	s.router.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
}
