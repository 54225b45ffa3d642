package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"maisonaurore/internal/domain"
	"maisonaurore/internal/log"
	"maisonaurore/internal/services"
	"maisonaurore/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
	Cart    *services.CartService
}

// GET /product/:sku
func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	sku, ok := validate.SKU(c.Params("sku"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "sku"})
		return notFound(c, "Ce produit n'est plus disponible")
	}
	p, err := h.Catalog.GetProduct(sku)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !p.Active) {
		return notFound(c, "Ce produit n'est plus disponible")
	}
	if err != nil {
		log.Error(c, "product.load.fail", err, map[string]any{"sku": sku})
		return err
	}
	ctx, sid := sessionCtx(c)
	return render(c, "product", fiber.Map{
		"P":      p,
		"Price":  services.FormatAmount(p.Price),
		"InCart": h.Cart.Contains(ctx, sid, p.SKU),
	})
}
