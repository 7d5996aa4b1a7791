package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ansh-dhingra1/Secure-Cypher/internal/audit"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/auth"
	"github.com/ansh-dhingra1/Secure-Cypher/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func memoryConfig() config.App {
	cfg := config.Defaults()
	cfg.StoreBackend = config.BackendMemory
	cfg.QueueBackend = config.BackendMemory
	cfg.TemplateURL = ""
	cfg.FontURL = ""
	return cfg
}

func post(t *testing.T, r http.Handler, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var applicant = map[string]string{
	"name": "ada lovelace", "email": "ada@example.org", "phone": "5551234567", "college": "london university",
}

func TestMemoryBackendsRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Redis)
	assert.Nil(t, a.DB)

	r := a.Router()
	w := post(t, r, "/v1/certificates", applicant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	code := w.Header().Get("X-Certificate-Code")
	a.Service.Wait()

	w = post(t, r, "/v1/verifications", map[string]string{"code": code})
	require.Equal(t, http.StatusOK, w.Code)
	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, true, res["valid"])
}

func TestAdminRequiresToken(t *testing.T) {
	cfg := memoryConfig()
	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	r := a.Router()

	req := httptest.NewRequest(http.MethodPut, "/v1/admin/status", bytes.NewBufferString(`{"enabled":false}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, err := auth.Issue("ops", auth.RoleAdmin, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AdminTokenTTL)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodPut, "/v1/admin/status", bytes.NewBufferString(`{"enabled":false}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, a.Service.Enabled())
}

func TestRedisBackendsPublishEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.StoreBackend = config.BackendRedis
	cfg.QueueBackend = config.BackendRedis
	cfg.RedisAddr = mr.Addr()

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	w := post(t, a.Router(), "/v1/certificates", applicant)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	code := w.Header().Get("X-Certificate-Code")
	a.Service.Wait()

	assert.True(t, mr.Exists(cfg.StoreKeyPrefix+":"+code))
	items, err := mr.List(cfg.QueueKey)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	core, logs := observer.New(zap.InfoLevel)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Consume(ctx, audit.NewLogSink(zap.New(core))) }()

	require.Eventually(t, func() bool {
		return logs.FilterField(zap.String("code", code)).Len() == 1
	}, 3*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestLogAssetCheckWarnsOnMissingFiles(t *testing.T) {
	cfg := memoryConfig()
	cfg.TemplateURL = t.TempDir() + "/missing.pdf"
	core, logs := observer.New(zap.WarnLevel)

	a, err := New(context.Background(), cfg, zap.New(core))
	require.NoError(t, err)
	defer a.Close()

	statuses := a.LogAssetCheck(context.Background())
	require.NotEmpty(t, statuses)
	assert.Equal(t, 1, logs.FilterMessage("certificate generation may use fallback mode").Len())
}
