package devbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "tenant@residence.local"
	testPassword = "rooftop"
)

func testConfig(t *testing.T) config.DevBackendConfig {
	t.Helper()
	return config.DevBackendConfig{
		App: config.AppConfig{Env: "test"},
		DB: config.DBConfig{
			Driver:      config.DBDriverSQLite,
			DSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
			AutoMigrate: true,
		},
		JWT: config.JWTConfig{Secret: "test-secret", Issuer: "residence-devbackend", ExpirationMinutes: 30},
		Password: config.PasswordConfig{
			ArgonMemoryKB: 64, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
		},
		Seed: config.SeedConfig{
			TenantEmail:    testEmail,
			TenantPassword: testPassword,
			TenantName:     "Test Tenant",
			RoomNumber:     "B-204",
		},
	}
}

// newTestApp starts a seeded backend on an in-memory database.
func newTestApp(t *testing.T, mutate func(*config.DevBackendConfig)) (*App, *httptest.Server) {
	t.Helper()
	cfg := testConfig(t)
	if mutate != nil {
		mutate(&cfg)
	}
	app, err := NewApp(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	srv := httptest.NewServer(app.Handler)
	t.Cleanup(func() {
		srv.Close()
		_ = app.Close()
	})
	return app, srv
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func decodeData(t *testing.T, env envelope, dest any) {
	t.Helper()
	decoder := json.NewDecoder(bytes.NewReader(env.Data))
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(dest))
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	status, env := call(t, srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": testEmail, "password": testPassword,
	})
	require.Equal(t, http.StatusOK, status, env.Message)
	var out loginDTO
	decodeData(t, env, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func beverageID(t *testing.T, srv *httptest.Server, token, name string) string {
	t.Helper()
	status, env := call(t, srv, http.MethodGet, "/api/rooftop/beverages", token, nil)
	require.Equal(t, http.StatusOK, status)
	var list []beverageDTO
	decodeData(t, env, &list)
	for _, b := range list {
		if b.Name == name {
			return b.ID
		}
	}
	t.Fatalf("beverage %q not seeded", name)
	return ""
}
