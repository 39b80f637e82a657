package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "compass",
	})
}

// handleSystemStatus reports process-level health and the scheduler's
// current lifecycle state. Host CPU/RAM utilization comes from
// gopsutil rather than Go runtime stats, since runtime.MemStats only
// describes this process's heap, not the machine it runs on.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	state := "unavailable"
	if s.cfg.Scheduler != nil {
		state = string(s.cfg.Scheduler.CurrentState())
	}

	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read host CPU percentage")
		cpuPercent = []float64{0}
	}
	var hostCPU float64
	if len(cpuPercent) > 0 {
		hostCPU = cpuPercent[0]
	}

	var hostRAMPercent float64
	if vm, err := mem.VirtualMemory(); err != nil {
		s.log.Warn().Err(err).Msg("failed to read host memory stats")
	} else {
		hostRAMPercent = vm.UsedPercent
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "running",
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"host_cpu_percent": hostCPU,
		"host_ram_percent": hostRAMPercent,
		"goroutines":       runtime.NumGoroutine(),
		"scheduler_state":  state,
	})
}

// handleTriggerScan kicks off one scan immediately, independent of
// the scheduler's fixed interval.
func (s *Server) handleTriggerScan(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Scheduler == nil {
		s.writeError(w, http.StatusServiceUnavailable, "scheduler not configured")
		return
	}
	s.cfg.Scheduler.TriggerScan()
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

// handleRecentSignals returns the most recently persisted signals for
// a symbol, or a 400 if none is given — there is no unbounded
// "all signals" listing.
func (s *Server) handleRecentSignals(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol query parameter required")
		return
	}
	limit := queryInt(r, "limit", 50)

	signals, err := s.cfg.Signals.RecentBySymbol(symbol, limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, signals)
}

// handleSignalAccuracy reports a symbol's historical correctness rate.
func (s *Server) handleSignalAccuracy(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol query parameter required")
		return
	}
	correct, total, err := s.cfg.Signals.AccuracyBySymbol(symbol)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"symbol": symbol, "correct": correct, "total": total,
	})
}

// handleOpenPositions lists every open paper position.
func (s *Server) handleOpenPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.cfg.Positions.AllOpen()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, positions)
}

// handlePortfolioSummary reports cash/invested/PnL using each open
// position's own latest entry price; precise mark-to-market pricing
// requires the scan loop's live price snapshot, which this read-only
// endpoint does not have.
func (s *Server) handlePortfolioSummary(w http.ResponseWriter, r *http.Request) {
	positions, err := s.cfg.Positions.AllOpen()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	priceMap := make(map[string]float64, len(positions))
	for _, p := range positions {
		priceMap[p.Symbol] = p.EntryPrice
	}
	summary, err := s.cfg.Paper.Summary(priceMap)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

// handleRecentTrades lists every executed paper trade, oldest first.
func (s *Server) handleRecentTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.cfg.Trades.All()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, trades)
}

// handleRecentBacktests lists the most recent backtest runs.
func (s *Server) handleRecentBacktests(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	results, err := s.cfg.Backtests.Recent(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, results)
}

// handleUnacknowledgedAlerts lists every unacknowledged risk alert.
func (s *Server) handleUnacknowledgedAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.cfg.Alerts.Unacknowledged()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, alerts)
}

// handleAcknowledgeAlert marks a risk alert as acknowledged.
func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid alert id")
		return
	}
	if err := s.cfg.Alerts.Acknowledge(id); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

// handleAllSettings lists every tunable setting.
func (s *Server) handleAllSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.cfg.Settings.All()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

// handleGetSetting returns one named setting's raw JSON value.
func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	setting, err := s.cfg.Settings.Get(name)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if setting == nil {
		s.writeError(w, http.StatusNotFound, "setting not found")
		return
	}
	s.writeJSON(w, http.StatusOK, setting)
}

// handlePutSetting overwrites one named setting with the request
// body's raw JSON value (spec §4.4's settings-as-JSON-KV tunables:
// weights, thresholds, risk/stop-loss/ML params, watchlists).
func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var value interface{}
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.cfg.Settings.Put(name, value); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
