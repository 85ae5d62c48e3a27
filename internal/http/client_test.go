package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/fivetwenty-io/odata-client/internal/auth"
	odatahttp "github.com/fivetwenty-io/odata-client/internal/http"
	"github.com/fivetwenty-io/odata-client/pkg/odata"
)

// MockTokenManager for testing.
type MockTokenManager struct {
	token string
	err   error
}

func (m *MockTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.token, m.err
}

// MockLogger for testing.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "debug", "msg": msg, "fields": fields})
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "info", "msg": msg, "fields": fields})
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "warn", "msg": msg, "fields": fields})
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "error", "msg": msg, "fields": fields})
}

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func buildRequest(t *testing.T, builder odatahttp.RequestBuilder) *odatahttp.Request {
	t.Helper()

	req, err := builder.Build()
	require.NoError(t, err)

	return req
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/odata/UserTasks", request.URL.Path)
			assert.Equal(t, http.MethodGet, request.Method)
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "odata-client-go/1.0", request.Header.Get("User-Agent"))

			_ = json.NewEncoder(writer).Encode(map[string]any{"value": []any{}})
		}))
		defer server.Close()

		client := odatahttp.NewClient(odatahttp.WithTokenManager(&MockTokenManager{token: "test-token"}))

		req := buildRequest(t, odatahttp.NewRequestBuilder(server.URL+"/odata/UserTasks", http.MethodGet).
			SetHeader("Accept", "application/json"))

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "$top=2&$filter=Title%20eq%20'a'", request.URL.RawQuery)
			assert.Equal(t, "Title eq 'a'", request.URL.Query().Get("$filter"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := odatahttp.NewClient()

		builder := odatahttp.NewRequestBuilder(server.URL+"/odata/UserTasks", http.MethodGet).
			SetQueryString("$top", "2").
			SetQueryString("$filter", odatahttp.EscapeQueryValue("Title eq 'a'"))

		resp, err := client.Do(context.Background(), buildRequest(t, builder))
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, http.MethodPost, request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))
			assert.Equal(t, int64(21), request.ContentLength)

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "Buy milk", body["Title"])

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := odatahttp.NewClient()

		builder := odatahttp.NewRequestBuilder(server.URL, http.MethodPost).
			SetBodyContent([]byte(`{"Title": "Buy milk"}`), "application/json")

		resp, err := client.Do(context.Background(), buildRequest(t, builder))
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("explicit content type header wins", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, []string{"application/json;odata.metadata=minimal"}, request.Header.Values("Content-Type"))
			writer.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		builder := odatahttp.NewRequestBuilder(server.URL, http.MethodPatch).
			SetBodyContent([]byte(`{}`), "application/json").
			SetHeader("Content-Type", "application/json;odata.metadata=minimal")

		resp, err := odatahttp.NewClient().Do(context.Background(), buildRequest(t, builder))
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()
	})

	t.Run("error status is returned as a response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"error":{"code":"EntityNotFound","message":"gone"}}`))
		}))
		defer server.Close()

		resp, err := odatahttp.NewClient().Do(context.Background(),
			buildRequest(t, odatahttp.NewRequestBuilder(server.URL, http.MethodGet)))
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "EntityNotFound")
	})

	t.Run("custom headers and user agent", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "tasks-ui/2.0", request.Header.Get("User-Agent"))
			assert.Empty(t, request.Header.Get("Authorization"))
			assert.Empty(t, request.Header.Get("js.fetch:mode"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := odatahttp.NewClient(
			odatahttp.WithUserAgent("tasks-ui/2.0"),
			odatahttp.WithTokenManager(auth.NewStaticTokenManager("", time.Time{})),
		)

		builder := odatahttp.NewRequestBuilder(server.URL, http.MethodGet).
			AddHeader("X-Custom-Header", "custom-value").
			SetRequestMode(odata.RequestModeNoCORS)

		resp, err := client.Do(context.Background(), buildRequest(t, builder))
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := odatahttp.NewClient(odatahttp.WithLogger(logger), odatahttp.WithDebug(true))

		resp, err := client.Do(context.Background(), buildRequest(t, odatahttp.NewRequestBuilder(server.URL, http.MethodGet)))
		require.NoError(t, err)

		defer func() { _ = resp.Body.Close() }()

		// Should have logged request and response
		assert.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})
}

func TestClient_Methods(t *testing.T) {
	t.Parallel()

	methods := []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			resp, err := odatahttp.NewClient().Do(context.Background(),
				buildRequest(t, odatahttp.NewRequestBuilder(server.URL+"/test", method)))
			require.NoError(t, err)

			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, http.StatusOK, resp.StatusCode)
		})
	}
}

func TestClient_SingleAttempt(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		attempts.Add(1)
		writer.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	resp, err := odatahttp.NewClient().Do(context.Background(),
		buildRequest(t, odatahttp.NewRequestBuilder(server.URL, http.MethodGet)))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestClient_RequestIsReusable(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		bodies []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		body, _ := io.ReadAll(request.Body)

		mu.Lock()
		bodies = append(bodies, string(body))
		mu.Unlock()

		writer.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := odatahttp.NewClient()
	req := buildRequest(t, odatahttp.NewRequestBuilder(server.URL, http.MethodPost).
		SetBodyContent([]byte(`{"a":1}`), "application/json"))

	for range 2 {
		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, []string{`{"a":1}`, `{"a":1}`}, bodies)
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	errRefused := errors.New("connection refused")
	logger := &MockLogger{}

	client := odatahttp.NewClient(
		odatahttp.WithLogger(logger),
		odatahttp.WithDoer(doerFunc(func(*http.Request) (*http.Response, error) { return nil, errRefused })),
	)

	_, err := client.Do(context.Background(),
		buildRequest(t, odatahttp.NewRequestBuilder("https://example.com/odata", http.MethodGet)))
	require.ErrorIs(t, err, odata.ErrTransport)
	require.ErrorIs(t, err, errRefused)

	protocolErr, ok := odata.AsProtocolError(err)
	require.True(t, ok)
	assert.Equal(t, 0, protocolErr.StatusCode)

	require.Len(t, logger.logs, 1)
	assert.Equal(t, "error", logger.logs[0]["level"])
}

func TestClient_Cancelled(t *testing.T) {
	t.Parallel()

	t.Run("before sending", func(t *testing.T) {
		t.Parallel()

		called := false
		client := odatahttp.NewClient(odatahttp.WithDoer(doerFunc(func(*http.Request) (*http.Response, error) {
			called = true

			return nil, errors.New("unreachable")
		})))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Do(ctx, buildRequest(t, odatahttp.NewRequestBuilder("https://example.com/odata", http.MethodGet)))
		require.ErrorIs(t, err, context.Canceled)
		assert.False(t, odata.IsProtocolError(err))
		assert.False(t, called)
	})

	t.Run("while in flight", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			<-release
		}))

		defer server.Close()
		defer close(release)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := odatahttp.NewClient().Do(ctx, buildRequest(t, odatahttp.NewRequestBuilder(server.URL, http.MethodGet)))
		require.ErrorIs(t, err, context.DeadlineExceeded)
		assert.False(t, odata.IsProtocolError(err))
	})
}

func TestClient_TokenFailure(t *testing.T) {
	t.Parallel()

	client := odatahttp.NewClient(odatahttp.WithTokenManager(auth.NewStaticTokenManager("old", time.Now().Add(-time.Hour))))

	_, err := client.Do(context.Background(), buildRequest(t, odatahttp.NewRequestBuilder("https://example.com", http.MethodGet)))
	require.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestClient_Interceptors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		assert.Equal(t, "acme", request.Header.Get("X-Tenant"))
		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var seenStatus int

	chain := odata.NewInterceptorChain()
	chain.AddRequestInterceptor(odata.HeaderInterceptor("X-Tenant", func(context.Context) string { return "acme" }))
	chain.AddResponseInterceptor(func(ctx context.Context, req *http.Request, resp *http.Response) error {
		seenStatus = resp.StatusCode

		return nil
	})

	client := odatahttp.NewClient(
		odatahttp.WithInterceptors(chain),
		odatahttp.WithTracerProvider(tracenoop.NewTracerProvider()),
		odatahttp.WithMeterProvider(noopmetric.NewMeterProvider()),
	)

	resp, err := client.Do(context.Background(), buildRequest(t, odatahttp.NewRequestBuilder(server.URL, http.MethodGet)))
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, seenStatus)
}

func TestClient_InterceptorFailure(t *testing.T) {
	t.Parallel()

	errDenied := errors.New("denied")
	chain := odata.NewInterceptorChain()
	chain.AddRequestInterceptor(func(context.Context, *http.Request) error { return errDenied })

	client := odatahttp.NewClient(
		odatahttp.WithInterceptors(chain),
		odatahttp.WithDoer(doerFunc(func(*http.Request) (*http.Response, error) {
			t.Fatal("request must not be sent")

			return nil, nil
		})),
	)

	_, err := client.Do(context.Background(), buildRequest(t, odatahttp.NewRequestBuilder("https://example.com", http.MethodGet)))
	require.ErrorIs(t, err, errDenied)
}
