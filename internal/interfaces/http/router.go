package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/festival-pos/internal/application/access"
	"github.com/jhoicas/festival-pos/internal/application/audit"
	"github.com/jhoicas/festival-pos/internal/application/auth"
	"github.com/jhoicas/festival-pos/internal/application/catalog"
	"github.com/jhoicas/festival-pos/internal/application/checkout"
	"github.com/jhoicas/festival-pos/internal/application/register"
	"github.com/jhoicas/festival-pos/internal/application/sales"
	"github.com/jhoicas/festival-pos/internal/domain/entity"
	"github.com/jhoicas/festival-pos/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.AuthUseCase
	ProductUC *catalog.ProductUseCase
	SalesUC   *sales.UseCase
	Issuer    *access.Issuer
	Cards     *access.CardPrinter
	Gate      *access.Gate
	Engine    *checkout.Engine
	Registers *register.Manager
	Recorder  *audit.Recorder
	JWTSecret string
	// Metrics handler de /metrics; nil lo deshabilita.
	Metrics fiber.Handler
	Log     *logger.Logger
	AppName string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})
	if deps.Metrics != nil {
		app.Get("/metrics", deps.Metrics)
	}

	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, log)
	authGroup := api.Group("/auth")
	authGroup.Post("/classes", authHandler.CreateClass)
	authGroup.Get("/classes", authHandler.ListClasses)
	authGroup.Post("/login", authHandler.Login)
	// El cambio de contraseña es la única ruta del panel permitida con la contraseña inicial.
	authGroup.Post("/password", AuthMiddleware(deps.JWTSecret), RequireRole(entity.RoleAdmin), authHandler.ChangePassword)

	// Páginas con token QR (admin como respaldo)
	cashHandler := NewCashHandler(deps.Registers, deps.Engine, log)
	cash := api.Group("/cash", OptionalAuth(deps.JWTSecret), TokenGate(deps.Gate, entity.TokenTypeCash, log))
	cash.Post("/sessions", cashHandler.Open)
	cash.Get("/sessions/:id", cashHandler.View)
	cash.Delete("/sessions/:id", cashHandler.Close)
	cash.Post("/sessions/:id/items", cashHandler.Adjust)
	cash.Post("/sessions/:id/checkout", cashHandler.Checkout)
	cash.Post("/checkout", cashHandler.DirectCheckout)

	productHandler := NewProductHandler(deps.ProductUC, log)
	view := api.Group("/view", OptionalAuth(deps.JWTSecret), TokenGate(deps.Gate, entity.TokenTypeView, log))
	view.Get("/products", productHandler.ViewProducts)

	// Panel de administración (Bearer JWT, contraseña ya cambiada). El middleware va por
	// grupo para que una ruta desconocida bajo /api siga respondiendo 404.
	adminOnly := []fiber.Handler{AuthMiddleware(deps.JWTSecret), RequireRole(entity.RoleAdmin), RequirePasswordChanged()}

	products := api.Group("/products", adminOnly...)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", productHandler.Update)
	products.Delete("/:id", productHandler.Delete)

	saleHandler := NewSaleHandler(deps.SalesUC, log)
	salesGroup := api.Group("/sales", adminOnly...)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/summary", saleHandler.Summary)
	salesGroup.Get("/:id", saleHandler.Get)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)

	tokenHandler := NewTokenHandler(deps.Issuer, deps.Cards, log)
	tokens := api.Group("/tokens", adminOnly...)
	tokens.Post("/", tokenHandler.Issue)
	tokens.Get("/:token/card", tokenHandler.Card)

	auditHandler := NewAuditHandler(deps.Recorder, log)
	api.Group("/audit", adminOnly...).Get("/", auditHandler.List)
}
