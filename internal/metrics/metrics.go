// Package metrics holds the Prometheus collectors the service exports on /metrics.
package metrics

import (
	"errors"
	"strconv"

	"go-bizpos/internal/pos"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	salesCommitted   *prometheus.CounterVec
	saleAmount       prometheus.Histogram
	checkoutFailures *prometheus.CounterVec
	registersClosed  prometheus.Counter
	httpRequests     *prometheus.CounterVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		salesCommitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bizpos_sales_committed_total",
			Help: "Sales committed, by payment method.",
		}, []string{"payment_method"}),
		saleAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "bizpos_sale_amount",
			Help:    "Final sale totals.",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500},
		}),
		checkoutFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bizpos_checkout_failures_total",
			Help: "Checkouts refused, by reason.",
		}, []string{"reason"}),
		registersClosed: f.NewCounter(prometheus.CounterOpts{
			Name: "bizpos_registers_closed_total",
			Help: "Cash registers closed.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bizpos_http_requests_total",
			Help: "HTTP requests, by route and status.",
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) SaleCommitted(s *pos.Sale) {
	if m == nil {
		return
	}
	m.salesCommitted.WithLabelValues(string(s.Payment.Method)).Inc()
	m.saleAmount.Observe(s.Total.InexactFloat64())
}

func (m *Metrics) CheckoutFailed(err error) {
	if m == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(Reason(err)).Inc()
}

func (m *Metrics) RegisterClosed() {
	if m == nil {
		return
	}
	m.registersClosed.Inc()
}

// Middleware counts requests by matched route so path ids do not explode
// the label space.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

var reasons = []struct {
	err    error
	reason string
}{
	{pos.ErrNoOperator, "no_operator"},
	{pos.ErrEmptyCart, "empty_cart"},
	{pos.ErrNonPositiveTotal, "non_positive_total"},
	{pos.ErrInvalidDiscount, "invalid_discount"},
	{pos.ErrInvalidQuantity, "invalid_quantity"},
	{pos.ErrInvalidItemType, "invalid_item_type"},
	{pos.ErrInvalidPaymentMethod, "invalid_payment_method"},
	{pos.ErrInvalidAmount, "invalid_amount"},
	{pos.ErrInsufficientPayment, "insufficient_payment"},
	{pos.ErrOutOfStock, "out_of_stock"},
	{pos.ErrRegisterClosed, "register_closed"},
}

// Reason maps a checkout error to a bounded label value.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.reason
		}
	}
	return "internal"
}
