package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"maisonaurore/internal/log"
	"maisonaurore/internal/services"
	"maisonaurore/internal/validate"
)

type ShopHandler struct {
	Catalog *services.CatalogService
}

type shopCard struct {
	SKU   string
	Name  string
	Image string
	Price string
}

// GET /shop?collection=&q=
func (h *ShopHandler) List(c *fiber.Ctx) error {
	cols, err := h.Catalog.ListCollections()
	if err != nil {
		log.Error(c, "shop.collections.fail", err, nil)
		return err
	}
	data := fiber.Map{"Collections": cols, "Products": []shopCard{}, "Q": "", "Collection": ""}

	q := ""
	if raw := c.Query("q"); strings.TrimSpace(raw) != "" {
		v, ok := validate.Q(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "q"})
			data["Err"] = "Recherche invalide (lettres et chiffres uniquement)"
			c.Status(fiber.StatusBadRequest)
			return render(c, "shop", data)
		}
		q = strings.ToLower(v)
	}
	collection := ""
	if raw := c.Query("collection"); raw != "" {
		v, ok := validate.SKU(raw)
		if !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "collection"})
			data["Err"] = "Collection inconnue"
			c.Status(fiber.StatusBadRequest)
			return render(c, "shop", data)
		}
		collection = v
	}

	products, err := h.Catalog.Search(q, collection, 1, 0)
	if err != nil {
		log.Error(c, "shop.search.fail", err, map[string]any{"q": q, "collection": collection})
		return err
	}
	cards := make([]shopCard, 0, len(products))
	for _, p := range products {
		cards = append(cards, shopCard{
			SKU:   p.SKU,
			Name:  p.Name,
			Image: p.Image,
			Price: services.FormatAmount(p.Price),
		})
	}
	data["Q"] = q
	data["Collection"] = collection
	data["Products"] = cards
	return render(c, "shop", data)
}
