package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"maisonaurore/internal/config"
	applog "maisonaurore/internal/log"
	"maisonaurore/internal/metrics"
)

const bodyLimit = 1 << 20 // 1 MiB

// isAPI reports whether the path answers JSON rather than HTML.
func isAPI(path string) bool {
	return path == "/create-checkout-session" || path == "/health" || strings.HasPrefix(path, "/api/")
}

// NewApp builds the storefront: middleware stack, routes and error surface.
func NewApp(cfg config.Config, d *Deps, views fiber.Views) *fiber.App {
	app := fiber.New(fiber.Config{
		Views:     views,
		BodyLimit: bodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				code = fe.Code
			}
			if code >= fiber.StatusInternalServerError {
				applog.Error(c, "server.error", err, nil)
			}
			if isAPI(c.Path()) {
				msg := "Internal error"
				if code < fiber.StatusInternalServerError {
					msg = http.StatusText(code)
				}
				return c.Status(code).JSON(fiber.Map{"error": msg})
			}
			msg := "Une erreur est survenue. Merci de réessayer."
			if code == fiber.StatusNotFound {
				msg = "Page introuvable"
			}
			if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
				return c.Status(code).SendString(msg)
			}
			return nil
		},
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigin,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type",
	}))
	app.Use(metrics.Middleware())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return c.SendStatus(fiber.StatusTooManyRequests)
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ContextKey:     "csrf",
		Next: func(c *fiber.Ctx) bool {
			return isAPI(c.Path())
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			c.Status(fiber.StatusForbidden)
			return render(c, "notfound", fiber.Map{"Message": "Vérification de sécurité échouée. Rechargez la page."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Static("/static", cfg.StaticDir)

	// ---------- JSON endpoints ----------
	app.Get("/health", Health)
	app.Post("/create-checkout-session", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|checkout"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.checkout.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	}), d.CheckoutHandler.Create)

	api := app.Group("/api/v1")
	api.Get("/cart", d.CartHandler.APIView)
	api.Get("/cart/count", d.CartHandler.APICount)

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// ---------- Storefront ----------
	badge := d.CartHandler.Badge
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/shop") })
	app.Get("/shop", badge, d.ShopHandler.List)
	app.Get("/product/:sku", badge, d.ProductHandler.Detail)

	app.Get("/cart", d.CartHandler.View)
	app.Post("/cart", d.CartHandler.Add)
	app.Post("/cart/remove", d.CartHandler.Remove)
	app.Post("/cart/quantity", d.CartHandler.Quantity)
	app.Post("/checkout", d.CartHandler.Checkout)
	app.Get("/success", d.CartHandler.Success)
	app.Get("/cancel", badge, d.CartHandler.Cancel)

	// Admin is only mounted when a password hash is configured.
	if cfg.AdminPasswordHash != "" {
		admin := app.Group("/admin", AdminAuth(cfg.AdminUser, cfg.AdminPasswordHash))
		admin.Get("/prices", d.AdminHandler.List)
		admin.Post("/prices", d.AdminHandler.SavePrice)
		admin.Post("/prices/:sku/delete", d.AdminHandler.DeletePrice)
	}

	app.Use(func(c *fiber.Ctx) error {
		return notFound(c, "Page introuvable")
	})
	return app
}
