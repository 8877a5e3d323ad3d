package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server  ServerConfig
	ChatGPT ChatGPTConfig
	Archive ArchiveConfig
	Log     LogConfig
}

type ServerConfig struct {
	MCPPort int
	WebPort int
}

type ChatGPTConfig struct {
	BaseURL    string
	CookieFile string
}

type ArchiveConfig struct {
	Dir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			MCPPort: 8000,
			WebPort: 8080,
		},
		ChatGPT: ChatGPTConfig{
			BaseURL:    "https://chatgpt.com",
			CookieFile: filepath.Join(configDir(), "cookies.json"),
		},
		Archive: ArchiveConfig{
			Dir: defaultArchiveDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend and environment
// variables. The backend lives at $XDG_CONFIG_HOME/chathub/config.json;
// CHATHUB_* environment variables override backend values.
func Load() (Config, error) {
	return loadWith(newFileBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

func configDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "chathub")
}

func defaultArchiveDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return filepath.Join("chathub-data", "archive")
		}
	}
	return filepath.Join(dir, "chathub", "archive")
}
