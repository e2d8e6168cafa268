package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-bizpos/internal/pos"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue sums every series of a counter family whose labels contain want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue series
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestSaleAndFailureCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SaleCommitted(&pos.Sale{Total: decimal.NewFromInt(40), Payment: pos.Payment{Method: pos.PaymentPix}})
	m.SaleCommitted(&pos.Sale{Total: decimal.NewFromInt(10), Payment: pos.Payment{Method: pos.PaymentCash}})
	m.CheckoutFailed(fmt.Errorf("wrapped: %w", pos.ErrOutOfStock))
	m.CheckoutFailed(errors.New("db down"))
	m.RegisterClosed()

	assert.Equal(t, 1.0, counterValue(t, reg, "bizpos_sales_committed_total", map[string]string{"payment_method": "pix"}))
	assert.Equal(t, 2.0, counterValue(t, reg, "bizpos_sales_committed_total", nil))
	assert.Equal(t, 1.0, counterValue(t, reg, "bizpos_checkout_failures_total", map[string]string{"reason": "out_of_stock"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "bizpos_checkout_failures_total", map[string]string{"reason": "internal"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "bizpos_registers_closed_total", nil))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SaleCommitted(&pos.Sale{})
		m.CheckoutFailed(pos.ErrEmptyCart)
		m.RegisterClosed()
	})
}

func TestReason(t *testing.T) {
	assert.Equal(t, "empty_cart", Reason(pos.ErrEmptyCart))
	assert.Equal(t, "register_closed", Reason(fmt.Errorf("x: %w", pos.ErrRegisterClosed)))
	assert.Equal(t, "internal", Reason(errors.New("boom")))
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := New(reg)

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/register/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/api/register/1", "/api/register/2", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, counterValue(t, reg, "bizpos_http_requests_total", map[string]string{"route": "/api/register/:id", "status": "204"}))
	assert.Equal(t, 1.0, counterValue(t, reg, "bizpos_http_requests_total", map[string]string{"route": "unmatched", "status": "404"}))
}
