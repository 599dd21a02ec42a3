package paystack

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	paymentdomain "github.com/smallbiznis/payrelay/internal/payment/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.paystack.co"
	DefaultTimeout = 15 * time.Second

	initializePath = "/transaction/initialize"
	verifyPath     = "/transaction/verify/{reference}"

	opInitialize = "initialize"
	opVerify     = "verify"
)

// Config configures the Paystack client.
type Config struct {
	BaseURL     string
	SecretKey   string
	CallbackURL string
	Timeout     time.Duration
}

// CallObserver is notified after every outbound call. statusCode is 0 when the
// call failed before a response arrived.
type CallObserver interface {
	RecordGatewayCall(ctx context.Context, operation string, statusCode int)
}

type Client struct {
	http        *resty.Client
	secretKey   string
	callbackURL string
	log         *zap.Logger
	observer    CallObserver
}

var (
	_ paymentdomain.Gateway         = (*Client)(nil)
	_ paymentdomain.WebhookVerifier = (*Client)(nil)
)

func NewClient(cfg Config, log *zap.Logger, observer CallObserver) (*Client, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, errors.New("paystack secret key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := resty.New().
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetBaseURL(baseURL).
		SetAuthToken(secret).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:        httpClient,
		secretKey:   secret,
		callbackURL: strings.TrimSpace(cfg.CallbackURL),
		log:         log.Named("paystack"),
		observer:    observer,
	}, nil
}

type initializeBody struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

type verifyBody struct {
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
}

func (c *Client) Initialize(ctx context.Context, req paymentdomain.InitializeRequest) (paymentdomain.InitializeResult, error) {
	amount, err := paymentdomain.MinorUnits(req.Amount)
	if err != nil {
		return paymentdomain.InitializeResult{}, err
	}
	body := initializeBody{
		Email:       strings.TrimSpace(req.Email),
		Amount:      amount,
		CallbackURL: c.callbackURL,
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(initializePath)
	if err != nil {
		c.observe(ctx, opInitialize, 0)
		c.log.Warn("paystack initialize call failed",
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return paymentdomain.InitializeResult{}, paymentdomain.NewTransportError(
			opInitialize, http.StatusBadGateway, paymentdomain.MessageGatewayTimeout, err,
		)
	}

	status := resp.StatusCode()
	c.observe(ctx, opInitialize, status)
	c.log.Debug("paystack initialize response",
		zap.Int("status", status),
		zap.Int64("amount_minor", body.Amount),
		zap.Duration("duration", time.Since(start)),
	)

	if status != http.StatusOK {
		return paymentdomain.InitializeResult{}, paymentdomain.NewRejectedError(
			opInitialize, status, status, extractMessage(resp.Body(), paymentdomain.MessageInitializeFailed),
		)
	}

	payload := resp.Body()
	if !json.Valid(payload) {
		return paymentdomain.InitializeResult{}, paymentdomain.NewMalformedError(
			opInitialize, http.StatusBadGateway, paymentdomain.MessageInitializeFailed, paymentdomain.ErrInvalidPayload,
		)
	}

	return paymentdomain.InitializeResult{Payload: json.RawMessage(payload)}, nil
}

// Verify looks a reference up. Non-200 answers are reported as 400 regardless
// of the upstream status; the upstream status is kept on the error.
func (c *Client) Verify(ctx context.Context, reference string) (paymentdomain.VerifyResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return paymentdomain.VerifyResult{}, paymentdomain.ErrInvalidReference
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("reference", reference).
		Get(verifyPath)
	if err != nil {
		c.observe(ctx, opVerify, 0)
		c.log.Warn("paystack verify call failed",
			zap.String("reference", reference),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return paymentdomain.VerifyResult{}, paymentdomain.NewTransportError(
			opVerify, http.StatusBadRequest, paymentdomain.MessageVerifyFailed, err,
		)
	}

	status := resp.StatusCode()
	c.observe(ctx, opVerify, status)
	c.log.Debug("paystack verify response",
		zap.String("reference", reference),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)),
	)

	if status != http.StatusOK {
		return paymentdomain.VerifyResult{}, paymentdomain.NewRejectedError(
			opVerify, http.StatusBadRequest, status, paymentdomain.MessageVerifyFailed,
		)
	}

	payload := resp.Body()
	var decoded verifyBody
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return paymentdomain.VerifyResult{}, paymentdomain.NewMalformedError(
			opVerify, http.StatusBadRequest, paymentdomain.MessageVerifyFailed, err,
		)
	}

	return paymentdomain.VerifyResult{
		Status:  strings.TrimSpace(decoded.Data.Status),
		Payload: json.RawMessage(payload),
	}, nil
}

func (c *Client) observe(ctx context.Context, operation string, status int) {
	if c.observer == nil {
		return
	}
	c.observer.RecordGatewayCall(ctx, operation, status)
}

func extractMessage(body []byte, fallback string) string {
	var decoded messageBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fallback
	}
	message := strings.TrimSpace(decoded.Message)
	if message == "" {
		return fallback
	}
	return message
}
