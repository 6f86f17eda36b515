package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpo-explorer/backend/pkg/retry"
)

type mapEnv map[string]string

func (m mapEnv) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

func (m mapEnv) Setenv(key, value string) error {
	m[key] = value
	return nil
}

func vaultServer(t *testing.T, wantPath, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "s.token" {
			http.Error(w, `{"errors":["permission denied"]}`, http.StatusForbidden)
			return
		}
		if r.URL.Path != wantPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(addr string) Config {
	return Config{
		Enabled:   true,
		Addr:      addr,
		Token:     "s.token",
		Mount:     "secret",
		Path:      "jpo/backend",
		KVVersion: 2,
		Timeout:   time.Second,
		Retry:     retry.Config{MaxAttempts: 1},
	}
}

func TestApply_KVv2(t *testing.T) {
	srv := vaultServer(t, "/v1/secret/data/jpo/backend",
		`{"data":{"data":{"LLM_API_KEY":"sk-test","DB_PASSWORD":"pw","REDIS_DB":2,"EXTRA":null},"metadata":{"version":3}}}`)
	env := mapEnv{"DB_PASSWORD": "from-env"}

	res, err := Apply(context.Background(), testConfig(srv.URL), env)
	require.NoError(t, err)

	assert.Equal(t, Result{Enabled: true, Path: "jpo/backend", Loaded: 3, Skipped: 1}, res)
	assert.Equal(t, "sk-test", env["LLM_API_KEY"])
	assert.Equal(t, "from-env", env["DB_PASSWORD"])
	assert.Equal(t, "2", env["REDIS_DB"])
	assert.Equal(t, "", env["EXTRA"])
}

func TestApply_OverwriteAndKeys(t *testing.T) {
	srv := vaultServer(t, "/v1/kv/jpo",
		`{"data":{"LLM_API_KEY":"sk-vault","DB_PASSWORD":"pw"}}`)
	cfg := testConfig(srv.URL)
	cfg.Mount = "/kv/"
	cfg.Path = "/jpo"
	cfg.KVVersion = 1
	cfg.Overwrite = true
	cfg.Keys = []string{"LLM_API_KEY"}
	env := mapEnv{"LLM_API_KEY": "old"}

	res, err := Apply(context.Background(), cfg, env)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Loaded)
	assert.Equal(t, "sk-vault", env["LLM_API_KEY"])
	assert.NotContains(t, env, "DB_PASSWORD")
}

func TestApply_Disabled(t *testing.T) {
	env := mapEnv{}
	res, err := Apply(context.Background(), Config{}, env)
	require.NoError(t, err)
	assert.False(t, res.Enabled)
	assert.Empty(t, env)
}

func TestFetch_Errors(t *testing.T) {
	srv := vaultServer(t, "/v1/secret/data/jpo/backend", `{"data":{"data":{}}}`)

	t.Run("incomplete", func(t *testing.T) {
		cfg := testConfig(srv.URL)
		cfg.Token = ""
		_, err := Fetch(context.Background(), cfg)
		assert.ErrorContains(t, err, "vault configuration incomplete")
	})

	t.Run("forbidden", func(t *testing.T) {
		cfg := testConfig(srv.URL)
		cfg.Token = "wrong"
		_, err := Fetch(context.Background(), cfg)
		assert.ErrorContains(t, err, "403")
	})

	t.Run("bad version", func(t *testing.T) {
		cfg := testConfig(srv.URL)
		cfg.KVVersion = 3
		_, err := Fetch(context.Background(), cfg)
		assert.ErrorContains(t, err, "unsupported VAULT_KV_VERSION 3")
	})

	t.Run("v1 body read as v2", func(t *testing.T) {
		v1 := vaultServer(t, "/v1/secret/data/jpo/backend", `{"data":{"LLM_API_KEY":"x"}}`)
		_, err := Fetch(context.Background(), testConfig(v1.URL))
		assert.Error(t, err)
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("VAULT_ENABLED", "true")
	t.Setenv("VAULT_ADDR", "https://vault.example:8200")
	t.Setenv("VAULT_PATH", "jpo/backend")
	t.Setenv("VAULT_KEYS", "LLM_API_KEY, DB_PASSWORD,")
	t.Setenv("VAULT_TIMEOUT_MS", "250")

	cfg := ConfigFromEnv()

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "secret", cfg.Mount)
	assert.Equal(t, 2, cfg.KVVersion)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, []string{"LLM_API_KEY", "DB_PASSWORD"}, cfg.Keys)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}
