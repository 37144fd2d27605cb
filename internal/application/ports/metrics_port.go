package ports

import "time"

// Metrics puerto de instrumentación. Las etiquetas son códigos de la taxonomía de errores.
type Metrics interface {
	TokenIssued(tokenType string)
	GateDenied(reason string)
	CheckoutFinished(result string, elapsed time.Duration)
	RegisterSessions(open int)
}

// NopMetrics descarta todo (tests o METRICS_ENABLED=false).
type NopMetrics struct{}

func (NopMetrics) TokenIssued(string)                     {}
func (NopMetrics) GateDenied(string)                      {}
func (NopMetrics) CheckoutFinished(string, time.Duration) {}
func (NopMetrics) RegisterSessions(int)                   {}
