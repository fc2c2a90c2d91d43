package llm

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CallRecorder reçoit une observation par appel à la gateway
type CallRecorder interface {
	ObserveGatewayCall(provider, phase string, success bool, duration time.Duration)
}

// Instrument enregistre durée et statut de chaque appel, et ouvre un span par appel
func Instrument(next Gateway, provider string, recorder CallRecorder) Gateway {
	tracer := otel.Tracer("ocf-deckgen/llm")

	return GatewayFunc(func(ctx context.Context, req Request) (Response, error) {
		ctx, span := tracer.Start(ctx, "Gateway.Generate")
		defer span.End()
		span.SetAttributes(
			attribute.String("llm.provider", provider),
			attribute.String("llm.phase", req.Phase),
		)

		start := time.Now()
		resp, err := next.Generate(ctx, req)
		recorder.ObserveGatewayCall(provider, req.Phase, err == nil, time.Since(start))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return resp, err
	})
}
