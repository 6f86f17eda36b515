// Package secrets loads credentials from a HashiCorp Vault KV engine into
// the process environment before configuration is read.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jpo-explorer/backend/pkg/retry"
)

// Config selects the Vault secret to read.
type Config struct {
	Enabled   bool
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	Timeout   time.Duration
	Overwrite bool
	// Keys restricts which secret fields are exported. Empty exports all.
	Keys  []string
	Retry retry.Config
}

// Result reports what Apply did.
type Result struct {
	Enabled bool
	Path    string
	Loaded  int
	Skipped int
}

// Env is the environment Apply writes to.
type Env interface {
	LookupEnv(key string) (string, bool)
	Setenv(key, value string) error
}

type processEnv struct{}

func (processEnv) LookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

func (processEnv) Setenv(key, value string) error {
	return os.Setenv(key, value)
}

// ProcessEnv is the real process environment.
var ProcessEnv Env = processEnv{}

// ConfigFromEnv reads the VAULT_* variables.
func ConfigFromEnv() Config {
	v := viper.New()
	v.SetDefault("VAULT_ENABLED", false)
	v.SetDefault("VAULT_MOUNT", "secret")
	v.SetDefault("VAULT_KV_VERSION", 2)
	v.SetDefault("VAULT_TIMEOUT_MS", 5000)
	v.SetDefault("VAULT_OVERWRITE", false)
	v.AutomaticEnv()

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = 3
	retryCfg.MaxTotalTimeout = 15 * time.Second

	return Config{
		Enabled:   v.GetBool("VAULT_ENABLED"),
		Addr:      v.GetString("VAULT_ADDR"),
		Token:     v.GetString("VAULT_TOKEN"),
		Namespace: v.GetString("VAULT_NAMESPACE"),
		Mount:     v.GetString("VAULT_MOUNT"),
		Path:      v.GetString("VAULT_PATH"),
		KVVersion: v.GetInt("VAULT_KV_VERSION"),
		Timeout:   time.Duration(v.GetInt("VAULT_TIMEOUT_MS")) * time.Millisecond,
		Overwrite: v.GetBool("VAULT_OVERWRITE"),
		Keys:      splitKeys(v.GetString("VAULT_KEYS")),
		Retry:     retryCfg,
	}
}

// Apply fetches the configured secret and exports each field as an
// environment variable. Variables that are already set win unless
// Overwrite is on.
func Apply(ctx context.Context, cfg Config, env Env) (Result, error) {
	res := Result{Enabled: cfg.Enabled, Path: cfg.Path}
	if !cfg.Enabled {
		return res, nil
	}

	values, err := Fetch(ctx, cfg)
	if err != nil {
		return res, err
	}

	for key, value := range values {
		if _, set := env.LookupEnv(key); set && !cfg.Overwrite {
			res.Skipped++
			continue
		}
		if err := env.Setenv(key, value); err != nil {
			return res, fmt.Errorf("failed to export %s: %w", key, err)
		}
		res.Loaded++
	}
	return res, nil
}

// Fetch reads the secret and returns its fields as strings, filtered by
// cfg.Keys.
func Fetch(ctx context.Context, cfg Config) (map[string]string, error) {
	if cfg.Addr == "" || cfg.Token == "" || cfg.Path == "" {
		return nil, errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")
	}
	url, err := secretURL(cfg)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Timeout}
	var body []byte
	err = retry.Do(ctx, cfg.Retry, "vault", func(ctx context.Context) error {
		body, err = get(ctx, client, url, cfg)
		return err
	}, nil)
	if err != nil {
		return nil, err
	}

	fields, err := decodeFields(body, cfg.KVVersion)
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]struct{}, len(cfg.Keys))
	for _, k := range cfg.Keys {
		allowed[k] = struct{}{}
	}
	out := make(map[string]string, len(fields))
	for key, raw := range fields {
		if _, ok := allowed[key]; len(allowed) > 0 && !ok {
			continue
		}
		out[key] = fieldString(raw)
	}
	return out, nil
}

func get(ctx context.Context, client *http.Client, url string, cfg Config) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", cfg.Token)
	if cfg.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", cfg.Namespace)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault fetch failed: %s %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func secretURL(cfg Config) (string, error) {
	addr := strings.TrimRight(cfg.Addr, "/")
	mount := strings.Trim(cfg.Mount, "/")
	path := strings.TrimLeft(cfg.Path, "/")
	if mount == "" {
		return "", errors.New("vault mount must be set")
	}
	switch cfg.KVVersion {
	case 1:
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path), nil
	case 2:
		return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path), nil
	default:
		return "", fmt.Errorf("unsupported VAULT_KV_VERSION %d", cfg.KVVersion)
	}
}

// kvResponse covers both engine versions: v1 puts fields under data, v2
// nests them one level deeper next to the version metadata.
type kvResponse struct {
	Data json.RawMessage `json:"data"`
}

type kvV2Data struct {
	Data map[string]json.RawMessage `json:"data"`
}

func decodeFields(body []byte, version int) (map[string]json.RawMessage, error) {
	var resp kvResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode vault response: %w", err)
	}

	var fields map[string]json.RawMessage
	if version == 1 {
		if err := json.Unmarshal(resp.Data, &fields); err != nil {
			return nil, fmt.Errorf("vault response missing data for KV v1: %w", err)
		}
	} else {
		var inner kvV2Data
		if err := json.Unmarshal(resp.Data, &inner); err != nil {
			return nil, fmt.Errorf("vault response missing data for KV v2: %w", err)
		}
		fields = inner.Data
	}
	if fields == nil {
		return nil, fmt.Errorf("vault response missing data for KV v%d", version)
	}
	return fields, nil
}

// fieldString renders a secret field the way it would be written in a
// dotenv file. Strings are verbatim, null is empty and anything else is JSON.
func fieldString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	return trimmed
}

func splitKeys(list string) []string {
	var keys []string
	for _, k := range strings.Split(list, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
