package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	cfgMux sync.RWMutex
	Hive   *HiveCfg
	bots   map[string]*BotCfg

	Version = "dev"
)

type HiveCfg struct {
	Debug struct {
		Log bool `yaml:"log"`
	} `yaml:"debug"`
	FirstRun         bool   `yaml:"firstRun"`
	LogSaveDirectory string `yaml:"logSaveDirectory"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Controller struct {
		SettleDelayMs         int `yaml:"settleDelayMs"`
		ReadinessFallbackSec  int `yaml:"readinessFallbackSec"`
		UITimeoutSec          int `yaml:"uiTimeoutSec"`
		InteractionTimeoutSec int `yaml:"interactionTimeoutSec"`
		ChunkRadius           int `yaml:"chunkRadius"`
	} `yaml:"controller"`

	AutoConnect []string `yaml:"autoConnect"`

	Discord struct {
		Enabled   bool     `yaml:"enabled"`
		BotAdmins []string `yaml:"botAdmins"`
		ChannelID string   `yaml:"channelId"`
		Token     string   `yaml:"token"`
	} `yaml:"discord"`
	Telegram struct {
		Enabled bool   `yaml:"enabled"`
		ChatID  int64  `yaml:"chatId"`
		Token   string `yaml:"token"`
	} `yaml:"telegram"`
	Ngrok struct {
		Enabled       bool   `yaml:"enabled"`
		Authtoken     string `yaml:"authtoken"`
		Region        string `yaml:"region"`
		Domain        string `yaml:"domain"`
		BasicAuthUser string `yaml:"basicAuthUser"`
		BasicAuthPass string `yaml:"basicAuthPass"`
	} `yaml:"ngrok"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// BotCfg is one bot identity: where to connect and which scripted flow to
// run once ready.
type BotCfg struct {
	BotName         string `yaml:"-"`
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	ProtocolVersion string `yaml:"protocolVersion"`
	Command         string `yaml:"command"`
	TargetSlot      int    `yaml:"targetSlot"`
}

// Load reads hive.yaml plus the per-bot roster from the default config
// directory.
func Load() error {
	return LoadFrom("config")
}

// LoadFrom reads configuration rooted at dir. Bots live in dir/bots, one
// yaml file per identity, keyed by file name.
func LoadFrom(dir string) error {
	cfgMux.Lock()
	defer cfgMux.Unlock()

	raw, err := os.ReadFile(filepath.Join(dir, "hive.yaml"))
	if err != nil {
		return fmt.Errorf("error loading hive.yaml: %w", err)
	}
	cfg := &HiveCfg{}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("error reading hive.yaml: %w", err)
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8087
	}
	Hive = cfg

	loaded := make(map[string]*BotCfg)
	entries, err := os.ReadDir(filepath.Join(dir, "bots"))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error reading bots directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".yaml")
		raw, err := os.ReadFile(filepath.Join(dir, "bots", e.Name()))
		if err != nil {
			return fmt.Errorf("error loading bot %s: %w", name, err)
		}
		bc := &BotCfg{}
		if err := yaml.Unmarshal(raw, bc); err != nil {
			return fmt.Errorf("error reading bot %s: %w", name, err)
		}
		bc.BotName = name
		if err := validateBot(bc); err != nil {
			return fmt.Errorf("bot %s: %w", name, err)
		}
		loaded[name] = bc
	}
	bots = loaded

	return nil
}

func validateBot(bc *BotCfg) error {
	if bc.Address == "" {
		return errors.New("address is required")
	}
	if bc.Username == "" {
		return errors.New("username is required")
	}
	if bc.Command == "" {
		return errors.New("command is required")
	}
	if bc.TargetSlot < 0 {
		return fmt.Errorf("targetSlot %d out of range", bc.TargetSlot)
	}
	return nil
}

// GetBots returns a snapshot of the roster.
func GetBots() map[string]*BotCfg {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	snapshot := make(map[string]*BotCfg, len(bots))
	for name, bc := range bots {
		snapshot[name] = bc
	}
	return snapshot
}

func GetBot(name string) (*BotCfg, bool) {
	cfgMux.RLock()
	defer cfgMux.RUnlock()
	bc, found := bots[name]
	return bc, found
}

// AddBot registers a bot at runtime (e.g. restored from the roster store).
func AddBot(name string, bc *BotCfg) error {
	if err := validateBot(bc); err != nil {
		return fmt.Errorf("bot %s: %w", name, err)
	}
	cfgMux.Lock()
	defer cfgMux.Unlock()
	if bots == nil {
		bots = make(map[string]*BotCfg)
	}
	bc.BotName = name
	bots[name] = bc
	return nil
}

// SaveBot persists a bot config back to the default directory.
func SaveBot(name string, bc *BotCfg) error {
	if err := AddBot(name, bc); err != nil {
		return err
	}
	raw, err := yaml.Marshal(bc)
	if err != nil {
		return fmt.Errorf("error encoding bot %s: %w", name, err)
	}
	dir := filepath.Join("config", "bots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating bots directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".yaml"), raw, 0o644); err != nil {
		return fmt.Errorf("error saving bot %s: %w", name, err)
	}
	return nil
}
