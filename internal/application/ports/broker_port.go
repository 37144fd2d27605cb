package ports

import "context"

// ChangeBroker difunde avisos de "el catálogo de la clase cambió". El aviso no lleva datos:
// quien lo recibe vuelve a leer el snapshot completo, así que perder avisos intermedios
// es aceptable mientras llegue el último.
type ChangeBroker interface {
	Publish(ctx context.Context, classID string) error
	Subscribe(ctx context.Context, classID string) (Subscription, error)
}

// Subscription suscripción viva a los avisos de una clase.
type Subscription interface {
	// Events se cierra al cancelar el ctx de Subscribe o al llamar Close.
	Events() <-chan struct{}
	Close() error
}
