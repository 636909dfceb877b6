package config

import "time"

// SchedulerConfig controls the periodic sweep workers. Every sweep is safe
// under at-least-once invocation, so intervals are a throughput knob only.
type SchedulerConfig struct {
	BankTransferExpiry SweepConfig `yaml:"bank_transfer_expiry"`
	SessionCleanup     SweepConfig `yaml:"session_cleanup"`
	RecurringCharge    SweepConfig `yaml:"recurring_charge"`
}

type SweepConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
}
