package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/festival-pos/internal/application/access"
	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/internal/application/auth"
	"github.com/jhoicas/festival-pos/internal/application/catalog"
	"github.com/jhoicas/festival-pos/internal/application/checkout"
	"github.com/jhoicas/festival-pos/internal/application/ports"
	"github.com/jhoicas/festival-pos/internal/application/register"
	"github.com/jhoicas/festival-pos/internal/application/sales"
	"github.com/jhoicas/festival-pos/internal/domain/repository"
	"github.com/jhoicas/festival-pos/internal/infrastructure/memory"
	inframetrics "github.com/jhoicas/festival-pos/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/festival-pos/internal/infrastructure/pdf"
	"github.com/jhoicas/festival-pos/internal/infrastructure/postgres"
	"github.com/jhoicas/festival-pos/internal/infrastructure/realtime"
	httpRouter "github.com/jhoicas/festival-pos/internal/interfaces/http"
	"github.com/jhoicas/festival-pos/pkg/clock"
	"github.com/jhoicas/festival-pos/pkg/config"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// stores repos y runner transaccional del driver elegido.
type stores struct {
	tx       ports.TxRunner
	tokens   repository.TokenRepository
	products repository.ProductRepository
	sales    repository.SaleRepository
	classes  repository.ClassRepository
	admins   repository.AdminRepository
	audit    repository.AuditRepository
	close    func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento")
	}
	defer st.close()

	var broker ports.ChangeBroker = realtime.NewLocalBroker()
	if cfg.Redis.Enabled() {
		client, err := realtime.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer client.Close()
		broker = realtime.NewRedisBroker(client, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("broker de cambios en Redis")
	}

	var metrics ports.Metrics = ports.NopMetrics{}
	var metricsHandler fiber.Handler
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		pm, err := inframetrics.NewPOSMetrics(reg)
		if err != nil {
			log.Fatal().Err(err).Msg("registrar métricas")
		}
		metrics = pm
		metricsHandler = adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	clk := clock.NewRealClock()
	recorder := audit.NewRecorder(st.audit, clk, log)
	pdfGenerator := infrapdf.NewMarotoPDFGenerator(jst())

	engine := checkout.NewEngine(st.tx, broker, clk, metrics, recorder, log)
	feed := catalog.NewFeed(st.products, broker, log)
	registers := register.NewManager(feed, engine, clk,
		time.Duration(cfg.Register.IdleMinutes)*time.Minute, metrics, log)

	issuerCfg := access.IssuerConfig{
		BaseURL: cfg.Tokens.PublicBaseURL,
		ViewTTL: time.Duration(cfg.Tokens.ViewTTLMinutes) * time.Minute,
		CashTTL: time.Duration(cfg.Tokens.CashTTLMinutes) * time.Minute,
	}
	authUC := auth.NewAuthUseCase(st.tx, st.classes, st.admins, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, clk, recorder)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler(log),
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Named("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Festival POS API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:    authUC,
		ProductUC: catalog.NewProductUseCase(st.products, st.tx, broker, clk, recorder, log),
		SalesUC:   sales.NewUseCase(st.sales, st.products, pdfGenerator),
		Issuer:    access.NewIssuer(st.tokens, issuerCfg, clk, metrics, recorder, log),
		Cards:     access.NewCardPrinter(st.tokens, pdfGenerator, cfg.Tokens.PublicBaseURL),
		Gate:      access.NewGate(st.tokens, clk, metrics, log),
		Engine:    engine,
		Registers: registers,
		Recorder:  recorder,
		JWTSecret: cfg.JWT.Secret,
		Metrics:   metricsHandler,
		Log:       log,
		AppName:   cfg.App.Name,
	})

	go registers.Run(ctx, time.Minute)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	registers.Shutdown()

	log.Info().Msg("aplicación detenida")
}

func openStores(ctx context.Context, cfg *config.Config, log *logger.Logger) (*stores, error) {
	if cfg.App.StoreDriver == config.StoreDriverMemory {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		m := memory.NewStore()
		return &stores{
			tx: m, tokens: m.Tokens(), products: m.Products(), sales: m.Sales(),
			classes: m.Classes(), admins: m.Admins(), audit: m.Audit(),
			close: func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		tx:       postgres.NewTxRunner(pool),
		tokens:   postgres.NewTokenRepository(pool),
		products: postgres.NewProductRepository(pool),
		sales:    postgres.NewSaleRepository(pool),
		classes:  postgres.NewClassRepository(pool),
		admins:   postgres.NewAdminRepository(pool),
		audit:    postgres.NewAuditRepository(pool),
		close:    pool.Close,
	}, nil
}

// jst zona horaria impresa en comprobantes y tarjetas.
func jst() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}
