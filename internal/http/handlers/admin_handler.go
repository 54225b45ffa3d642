package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"golang.org/x/crypto/bcrypt"

	applog "maisonaurore/internal/log"
	"maisonaurore/internal/repos"
	"maisonaurore/internal/validate"
)

type AdminHandler struct {
	Repo *repos.PriceCorrectionRepo
}

// AdminAuth guards /admin with HTTP basic auth against a bcrypt hash.
func AdminAuth(user, passwordHash string) fiber.Handler {
	return basicauth.New(basicauth.Config{
		Realm: "admin",
		Authorizer: func(u, p string) bool {
			if subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(p)) == nil
		},
		Unauthorized: func(c *fiber.Ctx) error {
			applog.Security(c, "admin.auth.fail", nil)
			c.Set(fiber.HeaderWWWAuthenticate, `Basic realm="admin"`)
			return c.SendStatus(fiber.StatusUnauthorized)
		},
	})
}

// GET /admin/prices
func (h *AdminHandler) List(c *fiber.Ctx) error {
	rows, err := h.Repo.List(c.UserContext())
	if err != nil {
		applog.Error(c, "admin.prices.list.fail", err, nil)
		c.Status(fiber.StatusInternalServerError)
		return render(c, "notfound", fiber.Map{"Message": "Impossible de charger les prix"})
	}
	return render(c, "admin_prices", fiber.Map{"Rows": rows})
}

// POST /admin/prices
func (h *AdminHandler) SavePrice(c *fiber.Ctx) error {
	sku, okSKU := validate.SKU(c.FormValue("sku"))
	price, okPrice := validate.Price(c.FormValue("price"))
	if !okSKU || !okPrice {
		applog.Security(c, "validation.fail", map[string]any{"field": "price_correction"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid input")
	}
	if err := h.Repo.Upsert(c.UserContext(), sku, price); err != nil {
		applog.Error(c, "admin.prices.save.fail", err, map[string]any{"sku": sku})
		return c.Status(fiber.StatusBadRequest).SendString("could not save price")
	}
	applog.Audit(c, "admin.prices.save", map[string]any{"sku": sku, "price": price})
	return c.Redirect("/admin/prices")
}

// POST /admin/prices/:sku/delete
func (h *AdminHandler) DeletePrice(c *fiber.Ctx) error {
	sku, ok := validate.SKU(c.Params("sku"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("missing sku")
	}
	if err := h.Repo.Delete(c.UserContext(), sku); err != nil {
		applog.Error(c, "admin.prices.delete.fail", err, map[string]any{"sku": sku})
		return c.Status(fiber.StatusBadRequest).SendString("could not delete price")
	}
	applog.Audit(c, "admin.prices.delete", map[string]any{"sku": sku})
	return c.Redirect("/admin/prices")
}
