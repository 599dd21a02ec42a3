package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/smallbiznis/payrelay/internal/observability/logger"
	obscontext "github.com/smallbiznis/payrelay/internal/observability/context"
	paymentdomain "github.com/smallbiznis/payrelay/internal/payment/domain"
	"go.uber.org/zap"
)

// HeaderWebhookReceipt echoes the id assigned to each webhook delivery.
const HeaderWebhookReceipt = "X-Webhook-Receipt"

// Data is only decoded for events the relay acts on.
type webhookEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type chargeData struct {
	Reference string `json:"reference"`
}

func (e webhookEnvelope) reference() (string, error) {
	if e.Event != paymentdomain.EventChargeSuccess || len(e.Data) == 0 {
		return "", nil
	}
	var data chargeData
	if err := json.Unmarshal(e.Data, &data); err != nil {
		return "", paymentdomain.ErrInvalidPayload
	}
	return data.Reference, nil
}

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	receipt := s.genID.Generate().String()
	c.Header(HeaderWebhookReceipt, receipt)
	ctx := obscontext.WithWebhookReceipt(c.Request.Context(), receipt)
	c.Request = c.Request.WithContext(ctx)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if s.cfg.Paystack.VerifyWebhookSignature {
		if err := s.verifier.VerifyWebhook(ctx, payload, c.Request.Header); err != nil {
			logger.WithContext(ctx, s.log).Warn("webhook signature rejected")
			AbortWithError(c, err)
			return
		}
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	reference, err := envelope.reference()
	if err != nil {
		AbortWithError(c, err)
		return
	}

	outcome, err := s.paymentSvc.RecordWebhookEvent(ctx, envelope.Event, reference)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	logger.WithContext(ctx, s.log).Debug("webhook handled",
		zap.String("event_type", envelope.Event),
		zap.String("outcome", string(outcome.Status)),
	)

	if outcome.Status == paymentdomain.WebhookRecorded {
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Payment recorded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ignored", "message": "Unhandled webhook event"})
}
