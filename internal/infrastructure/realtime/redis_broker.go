package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/domain"
	"github.com/jhoicas/festival-pos/pkg/config"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

var _ ports.ChangeBroker = (*RedisBroker)(nil)

// RedisBroker difunde avisos entre varias instancias de la API vía Redis pub/sub.
type RedisBroker struct {
	client *redis.Client
	log    *logger.Logger
}

// NewRedisClient abre el cliente y verifica la conexión.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolTimeout:  4 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisBroker construye el broker sobre un cliente ya conectado.
func NewRedisBroker(client *redis.Client, log *logger.Logger) *RedisBroker {
	return &RedisBroker{client: client, log: log.Named("redis-broker")}
}

// Channel nombre del canal de cambios de productos de la clase.
func Channel(classID string) string {
	return "pos:" + classID + ":products"
}

// Publish envía el aviso; el cuerpo no importa, los suscriptores recargan el snapshot.
func (b *RedisBroker) Publish(ctx context.Context, classID string) error {
	if err := b.client.Publish(ctx, Channel(classID), "changed").Err(); err != nil {
		return domain.StoreUnavailable(err, "redis publish")
	}
	return nil
}

// Subscribe abre una suscripción al canal de la clase.
func (b *RedisBroker) Subscribe(ctx context.Context, classID string) (ports.Subscription, error) {
	ps := b.client.Subscribe(ctx, Channel(classID))
	// Receive confirma la suscripción antes de devolver (no se pierden avisos posteriores).
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, domain.StoreUnavailable(err, "redis subscribe")
	}
	s := &redisSub{ps: ps, events: make(chan struct{}, 1), done: make(chan struct{})}
	go s.loop(ctx, b.log.With().Str("class_id", classID).Logger())
	return s, nil
}

type redisSub struct {
	ps     *redis.PubSub
	events chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *redisSub) loop(ctx context.Context, log zerolog.Logger) {
	defer close(s.events)
	msgs := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			_ = s.Close()
			return
		case <-s.done:
			return
		case _, ok := <-msgs:
			if !ok {
				log.Debug().Msg("canal de redis cerrado")
				return
			}
			notify(s.events)
		}
	}
}

func (s *redisSub) Events() <-chan struct{} { return s.events }

func (s *redisSub) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
