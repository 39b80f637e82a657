package scheduler

import "github.com/samhoi-x/compass/internal/config"

// SettingsStore is the slice of SettingRepository the scheduler needs
// to read/write domain-tunable configuration and small scalar state
// (the persisted portfolio peak, the last daily-summary date).
type SettingsStore interface {
	GetJSON(name string, out any) (bool, error)
	Put(name string, value any) error
}

// tunables bundles every Settings-table value one scan needs, falling
// back to the compiled-in default (and persisting it) the first time a
// key is missing. Watchlists have no compiled-in default: a missing key
// leaves them empty and nothing is persisted.
type tunables struct {
	Weights    config.SignalWeights
	Thresholds config.BaseThresholds
	Risk       config.RiskParams
	StopLoss   config.StopLossParams
	ML         config.MLParams
	Watchlists config.Watchlists
	Trading    config.TradingParams
}

func loadTunables(store SettingsStore) tunables {
	var t tunables
	loadOrDefault(store, config.KeySignalWeights, &t.Weights, config.DefaultSignalWeights)
	loadOrDefault(store, config.KeyBaseThresholds, &t.Thresholds, config.DefaultBaseThresholds)
	loadOrDefault(store, config.KeyRiskParams, &t.Risk, config.DefaultRiskParams)
	loadOrDefault(store, config.KeyStopLossParams, &t.StopLoss, config.DefaultStopLossParams)
	loadOrDefault(store, config.KeyMLParams, &t.ML, config.DefaultMLParams)
	loadOrDefault(store, config.KeyTradingParams, &t.Trading, config.DefaultTradingParams)

	var w config.Watchlists
	if found, err := store.GetJSON(config.KeyWatchlists, &w); err == nil && found {
		t.Watchlists = w
	}
	return t
}

// loadOrDefault reads name into out, falling back to def() and
// persisting it when the setting doesn't exist yet or fails to decode.
func loadOrDefault[T any](store SettingsStore, name string, out *T, def func() T) {
	found, err := store.GetJSON(name, out)
	if err == nil && found {
		return
	}
	*out = def()
	_ = store.Put(name, *out)
}
