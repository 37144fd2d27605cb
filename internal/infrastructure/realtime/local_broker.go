// Package realtime brokers de avisos de cambio del catálogo (suscripciones vivas).
package realtime

import (
	"context"
	"sync"

	"github.com/jhoicas/festival-pos/internal/application/ports"
)

var _ ports.ChangeBroker = (*LocalBroker)(nil)

// LocalBroker broker en proceso (una sola instancia de la API, sin REDIS_ADDR).
type LocalBroker struct {
	mu   sync.Mutex
	subs map[string]map[*localSub]struct{}
}

// NewLocalBroker construye el broker.
func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[string]map[*localSub]struct{})}
}

// Publish avisa a todos los suscriptores de la clase. Nunca bloquea: si un suscriptor
// tiene un aviso pendiente, el nuevo se fusiona con ese.
func (b *LocalBroker) Publish(_ context.Context, classID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs[classID] {
		notify(s.events)
	}
	return nil
}

// Subscribe registra un suscriptor hasta que se cancele ctx o se llame Close.
func (b *LocalBroker) Subscribe(ctx context.Context, classID string) (ports.Subscription, error) {
	s := &localSub{events: make(chan struct{}, 1), done: make(chan struct{})}
	b.mu.Lock()
	if b.subs[classID] == nil {
		b.subs[classID] = make(map[*localSub]struct{})
	}
	b.subs[classID][s] = struct{}{}
	b.mu.Unlock()

	s.close = func() {
		b.mu.Lock()
		delete(b.subs[classID], s)
		if len(b.subs[classID]) == 0 {
			delete(b.subs, classID)
		}
		close(s.events)
		b.mu.Unlock()
	}
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.done:
		}
	}()
	return s, nil
}

// Subscribers cantidad de suscriptores vivos de la clase.
func (b *LocalBroker) Subscribers(classID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[classID])
}

type localSub struct {
	events chan struct{}
	done   chan struct{}
	once   sync.Once
	close  func()
}

func (s *localSub) Events() <-chan struct{} { return s.events }

func (s *localSub) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.close()
	})
	return nil
}

// notify envío no bloqueante sobre un canal con buffer 1.
func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
