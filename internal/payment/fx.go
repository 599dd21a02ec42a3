package payment

import (
	"github.com/smallbiznis/payrelay/internal/config"
	obsmetrics "github.com/smallbiznis/payrelay/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/payrelay/internal/payment/domain"
	"github.com/smallbiznis/payrelay/internal/payment/gateway/paystack"
	paymentservice "github.com/smallbiznis/payrelay/internal/payment/service"
	"github.com/smallbiznis/payrelay/internal/payment/store"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.service",
	fx.Provide(store.Provide),
	fx.Provide(provideGateway),
	fx.Provide(paymentservice.NewService),
	fx.Invoke(registerProcessedGauge),
)

type gatewayParams struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type gatewayResult struct {
	fx.Out

	Gateway  paymentdomain.Gateway
	Verifier paymentdomain.WebhookVerifier
}

func provideGateway(p gatewayParams) (gatewayResult, error) {
	var observer paystack.CallObserver
	if p.ObsMetrics != nil {
		observer = p.ObsMetrics
	}
	client, err := paystack.NewClient(paystack.Config{
		BaseURL:     p.Cfg.Paystack.BaseURL,
		SecretKey:   p.Cfg.Paystack.SecretKey,
		CallbackURL: p.Cfg.Paystack.CallbackURL,
		Timeout:     p.Cfg.Paystack.Timeout,
	}, p.Log, observer)
	if err != nil {
		return gatewayResult{}, err
	}
	return gatewayResult{Gateway: client, Verifier: client}, nil
}

func registerProcessedGauge(httpMetrics *obsmetrics.HTTPMetrics, svc paymentdomain.Service) error {
	return httpMetrics.RegisterProcessedReferences(svc.ProcessedCount)
}
