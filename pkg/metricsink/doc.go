// Package metricsink provides stackapi.MetricsSink implementations.
//
// Every sink receives exactly one stackapi.CallMetrics event per remote call,
// successful or not. Sinks never return errors to the caller: failures are
// logged and dropped so that metrics never change the outcome of a call.
//
// Available sinks:
//
//   - LogSink: writes each event through a stackapi.Logger
//   - OTelSink: records a counter and a duration histogram on an OpenTelemetry meter
//   - PrometheusSink: records a CounterVec and a HistogramVec on a prometheus.Registerer
//   - NATSSink: publishes each event as JSON on a NATS subject
//   - Multi: fans one event out to several sinks
package metricsink
