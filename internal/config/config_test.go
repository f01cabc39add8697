package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.DBMaxConns != 10 {
		t.Errorf("DBMaxConns = %d, want 10", cfg.DBMaxConns)
	}
	if cfg.PollMaxAttempts != 35 {
		t.Errorf("PollMaxAttempts = %d, want 35", cfg.PollMaxAttempts)
	}
	if cfg.DeliveryFeeCents != 20000 {
		t.Errorf("DeliveryFeeCents = %d, want 20000", cfg.DeliveryFeeCents)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("POLL_INTERVAL_SECONDS", "5")

	cfg := FromEnv()
	if cfg.DBMaxConns != 25 {
		t.Errorf("DBMaxConns = %d, want 25", cfg.DBMaxConns)
	}
	if cfg.PollInterval.Seconds() != 5 {
		t.Errorf("PollInterval = %s, want 5s", cfg.PollInterval)
	}
}
