package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Alert.DispatchTimeout != 10*time.Second {
		t.Errorf("dispatch timeout = %v, want 10s", cfg.Alert.DispatchTimeout)
	}
	if cfg.Notify.Channel != "log" {
		t.Errorf("notify channel = %q, want log", cfg.Notify.Channel)
	}
	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
}

func TestLoadReadsFile(t *testing.T) {
	dir := t.TempDir()
	data := []byte(`
server:
  port: 9090
notify:
  channel: email
  email:
    smtp_host: smtp.example.com
alert:
  dispatch_timeout: 3s
`)
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Notify.Channel != "email" || cfg.Notify.Email.SMTPHost != "smtp.example.com" {
		t.Errorf("notify = %+v", cfg.Notify)
	}
	if cfg.Alert.DispatchTimeout != 3*time.Second {
		t.Errorf("dispatch timeout = %v, want 3s", cfg.Alert.DispatchTimeout)
	}
	if cfg.Addr() != "0.0.0.0:9090" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("RESERVOIREYE_NOTIFY_SLACK_CHANNEL", "#tanks")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Notify.Slack.Channel != "#tanks" {
		t.Errorf("slack channel = %q, want #tanks", cfg.Notify.Slack.Channel)
	}
}
