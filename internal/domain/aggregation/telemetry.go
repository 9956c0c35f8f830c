package aggregation

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	syncTracer        = otel.Tracer("budgetbully/aggregation")
	syncMeter         = otel.Meter("budgetbully/aggregation")
	syncPages, _      = syncMeter.Int64Counter("sync.pages", metric.WithDescription("Transaction feed pages fetched"))
	syncTxUpserted, _ = syncMeter.Int64Counter("sync.transactions.upserted", metric.WithDescription("Transactions written by item syncs"))
	syncFailures, _   = syncMeter.Int64Counter("sync.failures", metric.WithDescription("Item syncs that could not complete, by stage"))
)
