package config

// SettingsStore is the slice of SettingRepository seeding needs; kept
// as a local interface so this package never imports the database
// layer directly.
type SettingsStore interface {
	GetJSON(name string, out any) (bool, error)
	Put(name string, value any) error
}

// Settings-table keys for every domain-tunable value (spec §6).
const (
	KeySignalWeights  = "signal_weights"
	KeyBaseThresholds = "base_thresholds"
	KeyRiskParams     = "risk_params"
	KeyStopLossParams = "stop_loss_params"
	KeyMLParams       = "ml_params"
	KeyWatchlists     = "watchlists"
	KeyTradingParams  = "trading_params"
)

// Defaults seeds every domain-tunable setting with its compiled-in
// default on first boot, leaving any already-present row untouched so
// an operator's edits always win over a redeploy.
func Defaults(store SettingsStore) error {
	seeds := []struct {
		key   string
		value any
	}{
		{KeySignalWeights, DefaultSignalWeights()},
		{KeyBaseThresholds, DefaultBaseThresholds()},
		{KeyRiskParams, DefaultRiskParams()},
		{KeyStopLossParams, DefaultStopLossParams()},
		{KeyMLParams, DefaultMLParams()},
		{KeyWatchlists, Watchlists{Stocks: []string{"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL"}, Crypto: []string{"BTC-USD", "ETH-USD"}}},
		{KeyTradingParams, DefaultTradingParams()},
	}
	for _, s := range seeds {
		var probe map[string]any
		found, err := store.GetJSON(s.key, &probe)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := store.Put(s.key, s.value); err != nil {
			return err
		}
	}
	return nil
}
