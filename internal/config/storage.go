package config

import "time"

type Storage struct {
	// DataDir holds the device-local record files.
	DataDir string `env:"STORAGE_DATA_DIR" envDefault:"./data"`

	// AccountID is the signed-in account this instance serves. Empty means
	// anonymous free-tier usage and forces local mode.
	AccountID string `env:"STORAGE_ACCOUNT_ID"`

	// PremiumStorage gates the remote path entirely, independent of the
	// account's tier.
	PremiumStorage bool `env:"STORAGE_PREMIUM_ENABLED" envDefault:"true"`

	ConnectivityInterval time.Duration `env:"STORAGE_CONNECTIVITY_INTERVAL" envDefault:"15s"`

	// ExpirySweepSchedule is a cron spec for the subscription expiry task.
	ExpirySweepSchedule string `env:"BILLING_EXPIRY_SWEEP_SCHEDULE" envDefault:"@every 1h"`
}
