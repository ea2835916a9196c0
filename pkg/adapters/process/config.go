package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Hook names understood by Backend.
const (
	HookSend   = "send"
	HookVerify = "verify"
)

// HookConfig describes one external command.
type HookConfig struct {
	Name        string            `yaml:"name" json:"name"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of a hooks file:
//
//	hooks:
//	  - name: send
//	    command: ./scripts/send-sms.sh
//	  - name: verify
//	    command: ./scripts/check-code.sh
type ConfigFile struct {
	Hooks []HookConfig `yaml:"hooks" json:"hooks"`
}

// LoadHooks reads a YAML or JSON hooks file and returns the hooks by name.
func LoadHooks(path string) (map[string]HookConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hooks config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	hooks := make(map[string]HookConfig, len(cfg.Hooks))
	for _, h := range cfg.Hooks {
		if h.Name == "" || h.Command == "" {
			return nil, fmt.Errorf("hook %q: name and command are required", h.Name)
		}
		hooks[h.Name] = h
	}
	return hooks, nil
}
