package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadFrom(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hive.yaml"), `
debug:
  log: true
logSaveDirectory: logs
controller:
  settleDelayMs: 1500
  readinessFallbackSec: 15
autoConnect: [worker01]
`)
	writeFile(t, filepath.Join(dir, "bots", "worker01.yaml"), `
address: ws://localhost:19132
username: worker01
command: "/kit claim"
targetSlot: 2
`)

	if err := LoadFrom(dir); err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if !Hive.Debug.Log {
		t.Error("debug.log should be true")
	}
	if Hive.Server.Port != 8087 {
		t.Errorf("server port should default to 8087, got %d", Hive.Server.Port)
	}
	if Hive.Controller.SettleDelayMs != 1500 {
		t.Errorf("settleDelayMs = %d, want 1500", Hive.Controller.SettleDelayMs)
	}

	bc, found := GetBot("worker01")
	if !found {
		t.Fatal("worker01 should be loaded")
	}
	if bc.BotName != "worker01" || bc.Command != "/kit claim" || bc.TargetSlot != 2 {
		t.Errorf("unexpected bot config: %+v", bc)
	}
}

func TestLoadFromRejectsInvalidBot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hive.yaml"), "debug:\n  log: false\n")
	writeFile(t, filepath.Join(dir, "bots", "broken.yaml"), "username: nobody\n")

	if err := LoadFrom(dir); err == nil {
		t.Fatal("a bot without an address must fail validation")
	}
}

func TestAddBotValidates(t *testing.T) {
	if err := AddBot("x", &BotCfg{Address: "ws://h", Username: "x"}); err == nil {
		t.Error("missing command must be rejected")
	}
	if err := AddBot("x", &BotCfg{Address: "ws://h", Username: "x", Command: "/kit", TargetSlot: -1}); err == nil {
		t.Error("negative target slot must be rejected")
	}
	if err := AddBot("x", &BotCfg{Address: "ws://h", Username: "x", Command: "/kit"}); err != nil {
		t.Errorf("valid bot rejected: %v", err)
	}
	if bc, ok := GetBot("x"); !ok || bc.BotName != "x" {
		t.Error("AddBot should register the bot under its name")
	}
}
