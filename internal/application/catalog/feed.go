package catalog

import (
	"context"

	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// Snapshot estado completo del catálogo de una clase en un momento dado.
// Err distinto de nil indica que la recarga falló; Products queda vacío.
type Snapshot struct {
	Products []entity.Product
	Err      error
}

// Index productos por id.
func (s Snapshot) Index() map[string]entity.Product {
	m := make(map[string]entity.Product, len(s.Products))
	for _, p := range s.Products {
		m[p.ID] = p
	}
	return m
}

// Feed entrega snapshots del catálogo: uno inicial y uno tras cada aviso del broker.
type Feed struct {
	repo   repository.ProductRepository
	broker ports.ChangeBroker
	log    *logger.Logger
}

// NewFeed construye el feed.
func NewFeed(repo repository.ProductRepository, broker ports.ChangeBroker, log *logger.Logger) *Feed {
	return &Feed{repo: repo, broker: broker, log: log.Named("feed")}
}

// Watch devuelve un manejador cancelable. El canal tiene buffer 1 y se queda con el
// snapshot más reciente: un lector lento nunca ve uno viejo después de uno nuevo.
func (f *Feed) Watch(ctx context.Context, classID string) (*Watch, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub, err := f.broker.Subscribe(ctx, classID)
	if err != nil {
		cancel()
		return nil, err
	}
	w := &Watch{snapshots: make(chan Snapshot, 1), cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		defer close(w.snapshots)
		defer sub.Close()
		w.offer(f.load(ctx, classID))
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sub.Events():
				if !ok {
					return
				}
				w.offer(f.load(ctx, classID))
			}
		}
	}()
	return w, nil
}

// Snapshot lectura puntual del catálogo.
func (f *Feed) Snapshot(ctx context.Context, classID string) Snapshot {
	return f.load(ctx, classID)
}

func (f *Feed) load(ctx context.Context, classID string) Snapshot {
	list, err := f.repo.ListByClass(ctx, classID)
	if err != nil {
		if ctx.Err() == nil {
			f.log.Error().Err(err).Str("class_id", classID).Msg("no se pudo recargar el catálogo")
		}
		return Snapshot{Err: err}
	}
	products := make([]entity.Product, 0, len(list))
	for _, p := range list {
		products = append(products, p.Clone())
	}
	return Snapshot{Products: products}
}

// Watch suscripción viva al catálogo.
type Watch struct {
	snapshots chan Snapshot
	cancel    context.CancelFunc
	done      chan struct{}
}

// Snapshots se cierra al cancelar.
func (w *Watch) Snapshots() <-chan Snapshot { return w.snapshots }

// Close cancela la suscripción y espera a que termine la goroutine.
func (w *Watch) Close() {
	w.cancel()
	<-w.done
}

// offer reemplaza el snapshot pendiente sin leer, si lo hay. Solo la goroutine del
// Watch escribe en el canal.
func (w *Watch) offer(s Snapshot) {
	select {
	case <-w.snapshots:
	default:
	}
	w.snapshots <- s
}
