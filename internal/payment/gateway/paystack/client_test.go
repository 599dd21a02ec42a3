package paystack

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/payrelay/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedCall struct {
	operation string
	status    int
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeObserver) RecordGatewayCall(ctx context.Context, operation string, statusCode int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{operation: operation, status: statusCode})
}

func newTestClient(t *testing.T, baseURL string, observer CallObserver) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:     baseURL,
		SecretKey:   "sk_test_secret",
		CallbackURL: "https://relay.example.com/paystack/callback",
		Timeout:     2 * time.Second,
	}, zap.NewNop(), observer)
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresSecret(t *testing.T) {
	_, err := NewClient(Config{SecretKey: "  "}, zap.NewNop(), nil)
	require.Error(t, err)
}

func TestInitializeForwardsMinorUnitsAndCallback(t *testing.T) {
	var got map[string]any
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref_1"}}`))
	}))
	defer srv.Close()

	observer := &fakeObserver{}
	client := newTestClient(t, srv.URL, observer)

	res, err := client.Initialize(context.Background(), paymentdomain.InitializeRequest{
		Email:  "a@b.com",
		Amount: decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk_test_secret", authHeader)
	assert.Equal(t, "a@b.com", got["email"])
	assert.EqualValues(t, 5000, got["amount"])
	assert.Equal(t, "https://relay.example.com/paystack/callback", got["callback_url"])
	assert.Contains(t, string(res.Payload), "https://checkout.paystack.com/abc")
	require.Len(t, observer.calls, 1)
	assert.Equal(t, recordedCall{operation: "initialize", status: http.StatusOK}, observer.calls[0])
}

func TestInitializePropagatesGatewayStatusAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Initialize(context.Background(), paymentdomain.InitializeRequest{
		Email:  "a@b.com",
		Amount: decimal.NewFromInt(10),
	})

	var gwErr *paymentdomain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, paymentdomain.GatewayRejected, gwErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, gwErr.Status)
	assert.Equal(t, "Invalid key", gwErr.Message)
}

func TestInitializeFallsBackToGenericMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`upstream down`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Initialize(context.Background(), paymentdomain.InitializeRequest{
		Email:  "a@b.com",
		Amount: decimal.NewFromInt(10),
	})

	var gwErr *paymentdomain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusServiceUnavailable, gwErr.Status)
	assert.Equal(t, paymentdomain.MessageInitializeFailed, gwErr.Message)
}

func TestInitializeRejectsAmountBeyondMinorUnitRange(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Initialize(context.Background(), paymentdomain.InitializeRequest{
		Email:  "a@b.com",
		Amount: decimal.RequireFromString("184467440737095516.17"),
	})

	assert.ErrorIs(t, err, paymentdomain.ErrInvalidAmount)
	assert.Zero(t, calls)
}

func TestInitializeTransportFailureIsDistinguishable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	observer := &fakeObserver{}
	client := newTestClient(t, baseURL, observer)
	_, err := client.Initialize(context.Background(), paymentdomain.InitializeRequest{
		Email:  "a@b.com",
		Amount: decimal.NewFromInt(10),
	})

	require.Error(t, err)
	assert.True(t, paymentdomain.IsTransport(err))
	var gwErr *paymentdomain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadGateway, gwErr.Status)
	require.Len(t, observer.calls, 1)
	assert.Equal(t, 0, observer.calls[0].status)
}

func TestVerifyReturnsGatewayStatusAndPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/transaction/verify/ref_123", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"status":"success","reference":"ref_123","amount":5000}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	res, err := client.Verify(context.Background(), "ref_123")
	require.NoError(t, err)

	assert.Equal(t, "success", res.Status)
	assert.JSONEq(t, `{"status":true,"message":"Verification successful","data":{"status":"success","reference":"ref_123","amount":5000}}`, string(res.Payload))
}

func TestVerifyFlattensUpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Verify(context.Background(), "missing")

	var gwErr *paymentdomain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, paymentdomain.GatewayRejected, gwErr.Kind)
	assert.Equal(t, http.StatusBadRequest, gwErr.Status)
	assert.Equal(t, http.StatusNotFound, gwErr.UpstreamStatus)
	assert.Equal(t, paymentdomain.MessageVerifyFailed, gwErr.Message)
}

func TestVerifyTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	client, err := NewClient(Config{
		BaseURL:   srv.URL,
		SecretKey: "sk_test_secret",
		Timeout:   50 * time.Millisecond,
	}, zap.NewNop(), nil)
	require.NoError(t, err)

	_, err = client.Verify(context.Background(), "slow_ref")
	require.Error(t, err)
	assert.True(t, paymentdomain.IsTransport(err))
}

func TestVerifyMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not-json`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	_, err := client.Verify(context.Background(), "ref_1")

	var gwErr *paymentdomain.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, paymentdomain.GatewayMalformed, gwErr.Kind)
	assert.False(t, paymentdomain.IsTransport(err))
}

func TestVerifyRejectsBlankReference(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:1", nil)
	_, err := client.Verify(context.Background(), " ")
	assert.True(t, errors.Is(err, paymentdomain.ErrInvalidReference))
}
