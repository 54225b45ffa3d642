package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	applog "maisonaurore/internal/log"
)

const sidCookie = "sid"

// ensureSID returns the cart session id, minting a cookie on first visit.
func ensureSID(c *fiber.Ctx) string {
	// fasthttp reuses the cookie buffer; the id outlives the request as a store key.
	sid := utils.CopyString(c.Cookies(sidCookie))
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     sidCookie,
			Value:    sid,
			Path:     "/",
			HTTPOnly: true,
			SameSite: fiber.CookieSameSiteLaxMode,
			Secure:   false, // enable true behind TLS
		})
	}
	c.Locals("sid", sid)
	return sid
}

// sessionCtx is the request context tagged with the cart session for logs.
func sessionCtx(c *fiber.Ctx) (context.Context, string) {
	sid := ensureSID(c)
	return applog.WithSID(c.UserContext(), sid), sid
}
