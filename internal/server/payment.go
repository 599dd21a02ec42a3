package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/payrelay/internal/payment/domain"
)

type initializePaymentRequest struct {
	Email  string          `json:"email" binding:"required,email"`
	Amount decimal.Decimal `json:"amount"`
}

type verifyPaymentResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (s *Server) InitializePayment(c *gin.Context) {
	var req initializePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindingError(err))
		return
	}

	result, err := s.paymentSvc.Initialize(c.Request.Context(), paymentdomain.InitializeRequest{
		Email:  req.Email,
		Amount: req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", result.Payload)
}

func (s *Server) VerifyPayment(c *gin.Context) {
	outcome, err := s.paymentSvc.Reconcile(c.Request.Context(), c.Param("reference"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, verifyResponse(outcome))
}

func verifyResponse(outcome paymentdomain.Outcome) verifyPaymentResponse {
	switch outcome.Status {
	case paymentdomain.OutcomeSuccess:
		return verifyPaymentResponse{Status: "success", Message: "Payment successful", Data: outcome.Data}
	case paymentdomain.OutcomeAlreadyProcessed:
		return verifyPaymentResponse{Status: "success", Message: "Payment already verified"}
	default:
		return verifyPaymentResponse{Status: "failed", Message: "Payment not successful", Data: outcome.Data}
	}
}

// PaymentCallback is where the hosted checkout sends the browser back.
func (s *Server) PaymentCallback(c *gin.Context) {
	result, err := s.paymentSvc.ResolveCallback(c.Request.Context(), paymentdomain.CallbackRequest{
		TrxRef:    c.Query("trxref"),
		Reference: c.Query("reference"),
	})
	if err != nil {
		if isMissingReference(err) {
			c.String(http.StatusBadRequest, "Invalid callback")
			return
		}
		AbortWithError(c, err)
		return
	}

	c.Redirect(http.StatusFound, result.RedirectURL)
}

func isMissingReference(err error) bool {
	return validationErrorCode(err) == paymentdomain.ErrMissingReference.Error()
}
