package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# tradestat configuration

[analytics]
# Minimum drop below the running peak, in pips, that counts as a drawdown.
trigger_threshold = 0.0
# Only start tracking peaks once cumulative equity reaches start_gate.
start_gate_enabled = false
start_gate = 0.0
# Shortest win/loss run reported as a streak.
min_streak_length = 2
# Monthly net a month must reach to count towards stability.
stability_target = 0.0
# Bar size in hours used for holding times.
bar_hours = 4.0

# Value-pip multipliers. Unlisted pairs use 1.0.
# [instruments.EURUSD]
# multiplier = 1.5

[store]
# SQLite run history. Defaults to tradestat.db in this directory.
# path = "/path/to/tradestat.db"
# Number of runs kept; 0 keeps all.
keep_runs = 50

[logging]
# debug, info, warn, error
level = "info"
console = true
file = true
max_size_mb = 20
max_backups = 5
max_age_days = 30

[notify.webhook]
# POST a JSON summary of every published run to url.
enabled = false
url = ""
timeout_seconds = 10

[ui]
color_enabled = true
date_format = "2006-01-02"
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
