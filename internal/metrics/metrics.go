package metrics

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_outcomes_total",
			Help: "Checkout requests by terminal state",
		},
		[]string{"state"},
	)

	httpRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

func CheckoutOutcome(state string) {
	checkoutOutcomes.WithLabelValues(state).Inc()
}

// Middleware counts requests by matched route so path params do not blow
// up label cardinality.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		route := c.Route().Path
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		// label values are retained by the vec, so they must not alias the request buffer
		method := utils.CopyString(c.Method())
		httpRequests.WithLabelValues(method, utils.CopyString(route), strconv.Itoa(status)).Inc()
		return err
	}
}
