package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := load()

	if cfg.Port != 3333 {
		t.Errorf("Port = %d, want 3333", cfg.Port)
	}
	if cfg.Host != "localhost" {
		t.Errorf("Host = %q, want localhost", cfg.Host)
	}
	if cfg.ProjectID != "demo-project" {
		t.Errorf("ProjectID = %q, want demo-project", cfg.ProjectID)
	}
	if cfg.Logs.OnUnimplemented != OnUnimplementedWarn {
		t.Errorf("Logs.OnUnimplemented = %q, want warn", cfg.Logs.OnUnimplemented)
	}
	if cfg.Auth.Port != 9099 {
		t.Errorf("Auth.Port = %d, want 9099", cfg.Auth.Port)
	}
	if cfg.Redis.Enabled() {
		t.Errorf("Redis.Enabled() = true, want false with no REDIS_URL set")
	}
}

func TestBindAddressLocalhost(t *testing.T) {
	cfg := &Config{Host: "localhost", Port: 3333}
	if got := cfg.BindAddress(); got != "[::]" {
		t.Errorf("BindAddress() = %q, want [::]", got)
	}
	if got := cfg.ListenAddr(); got != "[::]:3333" {
		t.Errorf("ListenAddr() = %q, want [::]:3333", got)
	}
}

func TestBindAddressExplicitHost(t *testing.T) {
	cfg := &Config{Host: "0.0.0.0", Port: 8080}
	if got := cfg.BindAddress(); got != "0.0.0.0" {
		t.Errorf("BindAddress() = %q, want 0.0.0.0", got)
	}
}
