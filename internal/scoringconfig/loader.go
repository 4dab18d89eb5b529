package scoringconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/quantum/pkg/config"
)

// Load reads a YAML file and returns Config with raw bytes
// KnownFields(true): typos and unused fields fail immediately
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes YAML on top of the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode scoring config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromAppConfig resolves the active scoring model.
// SCORING_CONFIG wins when set; otherwise defaults with GO_SCORE / REVIEW_SCORE applied.
func FromAppConfig(app *config.Config) (*Config, error) {
	if app.Scoring.ConfigPath != "" {
		cfg, _, err := Load(app.Scoring.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", app.Scoring.ConfigPath, err)
		}
		return cfg, nil
	}

	cfg := Default()
	cfg.Thresholds.GoScore = app.Scoring.GoScore
	cfg.Thresholds.ReviewScore = app.Scoring.ReviewScore
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// struct, not map, so the hash is reproducible
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// VersionTag returns "<version>@<hash prefix>" for logs and metrics
func VersionTag(cfg *Config) string {
	hash, err := Hash(cfg)
	if err != nil {
		return cfg.Meta.Version
	}
	return fmt.Sprintf("%s@%s", cfg.Meta.Version, hash[:12])
}
