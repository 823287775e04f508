package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sleeautomation/sitehooks/config"
	"github.com/sleeautomation/sitehooks/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})
}

func TestNewMux_Routes(t *testing.T) {
	mux := NewMux(Deps{Feed: okHandler("feed"), Intake: okHandler("intake")})

	cases := map[string]string{
		"/api/blog-posts": "feed",
		"/api/leads":      "intake",
		"/healthz":        `{"status":"healthy"}`,
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, want, rec.Body.String(), path)
		if strings.HasPrefix(path, "/api/") {
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"), path)
		}
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sitehooks_http_requests_total")
}

func TestNewMux_KeepsCallerRequestID(t *testing.T) {
	mux := NewMux(Deps{Feed: okHandler(""), Intake: okHandler("")})
	req := httptest.NewRequest(http.MethodGet, "/api/blog-posts", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestUnavailableHandlers(t *testing.T) {
	err := errors.New("google credentials are not configured")

	rec := httptest.NewRecorder()
	unavailableIntake(err).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"google credentials are not configured"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	unavailableFeed(err).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/blog-posts", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	unavailableFeed(err).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/blog-posts", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestFeedFunction(t *testing.T) {
	testutil.NotionEnv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testutil.NotionAPIKey, r.Header.Get("Authorization"))
		assert.Equal(t, "/v1/databases/"+testutil.NotionDatabaseID+"/query", r.URL.Path)
		w.Write([]byte(`{"results":[{"id":"p1","url":"https://www.notion.so/Hello-World-abc"}],"has_more":false}`))
	})
	ResetServerless()
	t.Cleanup(ResetServerless)

	rec := httptest.NewRecorder()
	FeedFunction(rec, httptest.NewRequest(http.MethodGet, "/api/blog-posts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var items []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Hello World", items[0]["title"])
	assert.Equal(t, "GEO", items[0]["category"])
}

func TestIntakeFunction_MissingCredentials(t *testing.T) {
	testutil.ClearGoogleEnv(t)
	ResetServerless()
	t.Cleanup(ResetServerless)

	rec := httptest.NewRecorder()
	IntakeFunction(rec, httptest.NewRequest(http.MethodPost, "/api/leads", strings.NewReader(`{"name":"Jane"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, config.ErrMissingCredentials.Error(), body["error"])
}

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func TestServe_GracefulShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, cfg, Deps{Feed: okHandler("feed"), Intake: okHandler("intake")})
	}()

	url := "http://127.0.0.1:" + strconv.Itoa(cfg.HTTP.Port) + "/healthz"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode == http.StatusOK && strings.Contains(string(b), "healthy")
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServe_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := config.Default()
	cfg.HTTP.Host = "127.0.0.1"
	cfg.HTTP.Port = ln.Addr().(*net.TCPAddr).Port
	assert.Error(t, Serve(context.Background(), cfg, Deps{Feed: okHandler(""), Intake: okHandler("")}))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(1), 2)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(okHandler("ok"))

	send := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/leads", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1111").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:2222").Code)
	rec := send("10.0.0.1:3333")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1111").Code, "limits are per IP")

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:4444").Code, "tokens refill")

	now = now.Add(10 * time.Minute)
	send("10.0.0.3:1")
	rl.mu.Lock()
	_, kept := rl.limiters["10.0.0.1"]
	rl.mu.Unlock()
	assert.False(t, kept, "idle limiters are swept")
}

func TestNewMux_IntakeLimiter(t *testing.T) {
	mux := NewMux(Deps{
		Feed:          okHandler("feed"),
		Intake:        okHandler("intake"),
		IntakeLimiter: NewRateLimiter(rate.Limit(0.001), 1),
	})
	codes := make([]int, 0, 2)
	for range 2 {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/leads", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}
