package config

import "testing"

func TestLoadSSHDefaults(t *testing.T) {
	cfg, err := LoadSSH()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Host != "::" {
		t.Errorf("host = %q, want %q", cfg.Host, "::")
	}
	if cfg.Port != "2222" {
		t.Errorf("port = %q, want %q", cfg.Port, "2222")
	}
	if cfg.DBPath != "" {
		t.Errorf("db path = %q, want empty", cfg.DBPath)
	}
	if cfg.Debug {
		t.Error("debug should default to false")
	}
}

func TestLoadSSHFromEnvironment(t *testing.T) {
	t.Setenv("SSH_PORT", "2022")
	t.Setenv("VOIDBELT_PRESET", "galactic_core")
	t.Setenv("VOIDBELT_DB", "/tmp/scores.db")
	t.Setenv("VOIDBELT_DEBUG", "true")

	cfg, err := LoadSSH()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "2022" {
		t.Errorf("port = %q, want %q", cfg.Port, "2022")
	}
	if cfg.Preset != "galactic_core" {
		t.Errorf("preset = %q, want %q", cfg.Preset, "galactic_core")
	}
	if cfg.DBPath != "/tmp/scores.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
}

func TestLoadGame(t *testing.T) {
	t.Setenv("VOIDBELT_QUALITY", "high")
	t.Setenv("VOIDBELT_CALLSIGN", "ace")

	cfg, err := LoadGame()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Quality != "high" {
		t.Errorf("quality = %q, want %q", cfg.Quality, "high")
	}
	if cfg.Callsign != "ace" {
		t.Errorf("callsign = %q, want %q", cfg.Callsign, "ace")
	}
}

func TestLoadWebDefaults(t *testing.T) {
	cfg, err := LoadWeb()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("host = %q", cfg.Host)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
}
