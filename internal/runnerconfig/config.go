package runnerconfig

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Duration is a time.Duration that reads as "10m"-style strings from both
// JSON and environment variables.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	return d.UnmarshalText([]byte(raw))
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q", text)
	}

	*d = Duration(parsed)

	return nil
}

// Config controls the engine. File values override defaults; environment
// variables override both. Timeouts are deliberately configuration, never
// hard-coded: a zero timeout means none.
type Config struct {
	WorkDir           string   `json:"workDir" env:"ENGINE_WORK_DIR"`
	Shell             string   `json:"shell" env:"ENGINE_SHELL"`
	StepTimeout       Duration `json:"stepTimeout" env:"ENGINE_STEP_TIMEOUT"`
	JobTimeout        Duration `json:"jobTimeout" env:"ENGINE_JOB_TIMEOUT"`
	HeartbeatInterval Duration `json:"heartbeatInterval" env:"ENGINE_HEARTBEAT_INTERVAL"`
}

func Default() Config {
	return Config{
		WorkDir:           ".engine/workspaces",
		Shell:             "sh -e",
		StepTimeout:       0,
		JobTimeout:        0,
		HeartbeatInterval: Duration(30 * time.Second),
	}
}

// Load builds the effective config: defaults, then the config file (when a
// path is given), then ENGINE_* environment variables.
func Load(ctx context.Context, path string) (*Config, error) {
	config := Default()

	if path != "" {
		fromFile, err := ReadConfigFile(path)
		if err != nil {
			return nil, err
		}

		config = *fromFile
	}

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	return &config, nil
}

func ReadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read engine config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshal engine config file: %w", err)
	}

	return &config, nil
}

func SaveConfigFile(path string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal engine config file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save engine config file: %w", err)
	}

	return nil
}
