package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.mcp_port", typ: kInt, env: "CHATHUB_SERVER_MCP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "server.web_port", typ: kInt, env: "CHATHUB_SERVER_WEB_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.WebPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.WebPort },
	},
	{
		key: "chatgpt.base_url", typ: kString, env: "CHATHUB_CHATGPT_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.ChatGPT.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.ChatGPT.BaseURL },
	},
	{
		key: "chatgpt.cookie_file", typ: kString, env: "CHATHUB_CHATGPT_COOKIE_FILE",
		apply:   func(cfg *Config, v any) { cfg.ChatGPT.CookieFile = v.(string) },
		extract: func(cfg Config) any { return cfg.ChatGPT.CookieFile },
	},
	{
		key: "archive.dir", typ: kString, env: "CHATHUB_ARCHIVE_DIR",
		apply:   func(cfg *Config, v any) { cfg.Archive.Dir = v.(string) },
		extract: func(cfg Config) any { return cfg.Archive.Dir },
	},
	{
		key: "log.level", typ: kString, env: "CHATHUB_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
