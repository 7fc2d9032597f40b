// Package config loads the YAML configuration shared by cmd/forester,
// cmd/indexer and cmd/xtask.
package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`

	RPC struct {
		Endpoint string        `yaml:"endpoint"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"rpc"`

	Prover struct {
		Endpoint string        `yaml:"endpoint"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"prover"`

	Indexer struct {
		BadgerPath string `yaml:"badger_path"`
	} `yaml:"indexer"`

	Forester struct {
		PollInterval time.Duration `yaml:"poll_interval"`
		MaxBackoff   time.Duration `yaml:"max_backoff"`
		Trees        []string      `yaml:"trees"`
		AddressTrees []string      `yaml:"address_trees"`
	} `yaml:"forester"`

	Settlement struct {
		InvokingProgramID string   `yaml:"invoking_program_id"`
		StateTrees        []string `yaml:"state_trees"`
		// AddressTrees names one address tree per entry; its paired
		// address-queue batch account is built alongside it, so no separate
		// queue pubkey is configured.
		AddressTrees []string `yaml:"address_trees"`
	} `yaml:"settlement"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
