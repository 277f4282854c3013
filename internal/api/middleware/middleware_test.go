package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func statusHandler(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
		_, _ = w.Write([]byte("body"))
	}
}

func TestLoggerLevelFollowsStatus(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		level  zapcore.Level
	}{
		{name: "ok", path: "/api/v1/categories", status: http.StatusOK, level: zapcore.InfoLevel},
		{name: "client error", path: "/api/v1/products/x", status: http.StatusBadRequest, level: zapcore.WarnLevel},
		{name: "server error", path: "/api/v1/categories", status: http.StatusServiceUnavailable, level: zapcore.ErrorLevel},
		{name: "quiet path", path: "/api/v1/ready", status: http.StatusServiceUnavailable, level: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			h := Logger(zap.New(core), "/api/v1/health", "/api/v1/ready")(statusHandler(tt.status))

			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			entries := logs.All()
			require.Len(t, entries, 1)
			assert.Equal(t, tt.level, entries[0].Level)
			fields := entries[0].ContextMap()
			assert.Equal(t, int64(tt.status), fields["status"])
			assert.Equal(t, int64(len("body")), fields["bytes"])
			assert.Equal(t, tt.path, fields["path"])
		})
	}
}

func TestLoggerSkipsDisabledLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := Logger(zap.New(core), "/api/v1/health")(statusHandler(http.StatusOK))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Zero(t, logs.Len())
}

func TestLoggerRecordsRoutePattern(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := chi.NewRouter()
	r.Use(Logger(zap.New(core)))
	r.Get("/api/v1/products/{id}/", statusHandler(http.StatusOK))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/42/", nil))

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/api/v1/products/{id}", logs.All()[0].ContextMap()["route"])
}

func TestRecovery(t *testing.T) {
	t.Run("panic becomes json 500 with request id", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		h := chimiddleware.RequestID(Recovery(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var body panicBody
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "internal server error", body.Error)
		assert.NotEmpty(t, body.RequestID)

		require.Equal(t, 1, logs.Len())
		fields := logs.All()[0].ContextMap()
		assert.Equal(t, body.RequestID, fields["request_id"])
		assert.Equal(t, false, fields["response_started"])
	})

	t.Run("started response is left alone", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		h := Recovery(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			panic("late")
		}))

		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Empty(t, w.Body.String())
		require.Equal(t, 1, logs.Len())
		assert.Equal(t, true, logs.All()[0].ContextMap()["response_started"])
	})

	t.Run("aborted handler panics through", func(t *testing.T) {
		core, logs := observer.New(zapcore.ErrorLevel)
		h := Recovery(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic(http.ErrAbortHandler)
		}))

		assert.PanicsWithError(t, http.ErrAbortHandler.Error(), func() {
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		})
		assert.Zero(t, logs.Len())
	})
}
