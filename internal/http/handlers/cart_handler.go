package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"maisonaurore/internal/domain"
	applog "maisonaurore/internal/log"
	"maisonaurore/internal/services"
	"maisonaurore/internal/validate"
)

type CartHandler struct {
	Cart     *services.CartService
	Catalog  *services.CatalogService
	// Sessions opens hosted checkouts for the form-based cart page.
	Sessions *services.CheckoutService
}

// Badge stores the cart unit count in Locals for page headers.
func (h *CartHandler) Badge(c *fiber.Ctx) error {
	ctx, sid := sessionCtx(c)
	c.Locals("cartCount", h.Cart.Count(ctx, sid))
	return c.Next()
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	ctx, sid := sessionCtx(c)
	cv := h.Cart.View(ctx, sid)
	c.Locals("cartCount", cv.Count)
	return render(c, "cart", fiber.Map{"Cart": cv, "Err": c.Query("err")})
}

// POST /cart
func (h *CartHandler) Add(c *fiber.Ctx) error {
	ctx, sid := sessionCtx(c)
	sku, ok := validate.SKU(c.FormValue("sku"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "sku"})
		return c.Status(fiber.StatusBadRequest).SendString("missing sku")
	}
	p, err := h.Catalog.GetProduct(sku)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !p.Active) {
		return notFound(c, "Ce produit n'est plus disponible")
	}
	if err != nil {
		applog.Error(c, "cart.add.product", err, map[string]any{"sku": sku})
		return err
	}

	opts, ok := optionsFromForm(c)
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "options"})
		return c.Status(fiber.StatusBadRequest).SendString("invalid options")
	}
	descriptor := opts.Descriptor()

	// Button already switched to "go to cart": only mark and jump.
	if c.FormValue("go_cart") == "true" {
		if err := h.Cart.MarkLastAdded(ctx, sid, sku, descriptor); err != nil {
			applog.Error(c, "cart.mark.fail", err, map[string]any{"sku": sku})
		}
		return c.Redirect("/cart")
	}

	item := domain.CartItem{
		SKU:     p.SKU,
		Name:    p.Name,
		Price:   p.Price,
		Qty:     validate.Qty(c.FormValue("qty")),
		Options: descriptor,
		Image:   p.Image,
		URL:     p.URL,
	}
	if err := h.Cart.Add(ctx, sid, item); err != nil {
		applog.Error(c, "cart.add.fail", err, map[string]any{"sku": sku})
		return err
	}
	applog.Info(c, "cart.add", map[string]any{"sku": sku, "qty": item.Qty})

	back := p.URL
	if back == "" {
		back = "/cart"
	}
	return c.Redirect(back)
}

// POST /cart/remove
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	ctx, sid := sessionCtx(c)
	idx, ok := validate.Index(c.FormValue("index"))
	if !ok {
		return c.Redirect("/cart")
	}
	if err := h.Cart.Remove(ctx, sid, idx); err != nil {
		applog.Error(c, "cart.remove.fail", err, map[string]any{"index": idx})
		return err
	}
	return c.Redirect("/cart")
}

// POST /cart/quantity
func (h *CartHandler) Quantity(c *fiber.Ctx) error {
	ctx, sid := sessionCtx(c)
	idx, ok := validate.Index(c.FormValue("index"))
	if !ok {
		return c.Redirect("/cart")
	}
	qty := validate.Qty(c.FormValue("qty"))
	if err := h.Cart.SetQuantity(ctx, sid, idx, qty); err != nil {
		applog.Error(c, "cart.qty.fail", err, map[string]any{"index": idx})
		return err
	}
	return c.Redirect("/cart")
}

// POST /checkout sends the session cart to the payment provider and
// redirects the browser to the hosted checkout.
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	ctx, sid := sessionCtx(c)
	items := h.Cart.Load(ctx, sid)
	res, err := h.Sessions.Create(ctx, items, nil)
	switch {
	case errors.Is(err, services.ErrEmptyCart):
		return c.Redirect("/cart")
	case err != nil:
		return c.Redirect("/cart?err=checkout")
	}
	applog.Audit(c, "checkout.redirect", map[string]any{"items": len(items)})
	return c.Redirect(res.URL, fiber.StatusSeeOther)
}

// GET /success: payment done, the cart is emptied.
func (h *CartHandler) Success(c *fiber.Ctx) error {
	ctx, sid := sessionCtx(c)
	if err := h.Cart.Clear(ctx, sid); err != nil {
		applog.Error(c, "cart.clear.fail", err, nil)
	}
	c.Locals("cartCount", 0)
	return render(c, "message", fiber.Map{"Title": "Merci !", "Message": "Votre commande est confirmée."})
}

// GET /cancel
func (h *CartHandler) Cancel(c *fiber.Ctx) error {
	return render(c, "message", fiber.Map{"Title": "Paiement annulé", "Message": "Votre panier a été conservé."})
}

// GET /api/v1/cart
func (h *CartHandler) APIView(c *fiber.Ctx) error {
	ctx, sid := sessionCtx(c)
	return c.JSON(h.Cart.View(ctx, sid))
}

// GET /api/v1/cart/count
func (h *CartHandler) APICount(c *fiber.Ctx) error {
	ctx, sid := sessionCtx(c)
	return c.JSON(fiber.Map{"count": h.Cart.Count(ctx, sid)})
}

func optionsFromForm(c *fiber.Ctx) (services.ProductOptions, bool) {
	var o services.ProductOptions
	fields := []struct {
		dst *string
		key string
		max int
	}{
		{&o.Size, "size", 20},
		{&o.Dial, "dial", 30},
		{&o.Initial, "initial", 3},
		{&o.Color, "color", 30},
		{&o.Gift, "gift", 3},
		{&o.GiftMessage, "gift_message", 3},
		{&o.GiftText, "gift_text", 120},
	}
	for _, f := range fields {
		v, ok := validate.Option(c.FormValue(f.key), f.max)
		if !ok {
			return services.ProductOptions{}, false
		}
		*f.dst = v
	}
	return o, true
}
