package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	paymentdomain "github.com/edustack/campus/internal/payment/domain"
	"github.com/edustack/campus/internal/server"
)

type stubPaymentService struct {
	outcome paymentdomain.Outcome
	err     error
	handle  *paymentdomain.PaymentIntentHandle
}

func (s *stubPaymentService) HandleWebhook(ctx context.Context, event paymentdomain.WebhookEvent) (paymentdomain.Outcome, error) {
	return s.outcome, s.err
}

func (s *stubPaymentService) CreateCheckout(ctx context.Context, courseID snowflake.ID, userID int64) (*paymentdomain.PaymentIntentHandle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.handle, nil
}

func newTestServer(t *testing.T, paymentSvc paymentdomain.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(server.RequestContextMiddleware())
	engine.Use(server.ErrorHandlingMiddleware())

	s := server.NewServer(server.Params{
		Engine:     engine,
		Log:        zap.NewNop(),
		PaymentSvc: paymentSvc,
	})
	s.RegisterRoutes()
	return engine
}

func postWebhook(engine *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestWebhookAcksClassifiedEvents(t *testing.T) {
	for _, outcome := range []paymentdomain.Outcome{
		paymentdomain.OutcomeApplied,
		paymentdomain.OutcomeDuplicate,
		paymentdomain.OutcomeConflict,
		paymentdomain.OutcomeMalformed,
		paymentdomain.OutcomeNotFound,
		paymentdomain.OutcomeIgnored,
		paymentdomain.OutcomeUnsupported,
	} {
		engine := newTestServer(t, &stubPaymentService{outcome: outcome})
		w := postWebhook(engine, `{"type":"payment","data":{"id":"123"}}`)
		require.Equal(t, http.StatusOK, w.Code, "outcome %s", outcome)
		require.Contains(t, w.Body.String(), string(outcome))
	}
}

func TestWebhookUnparseableBodyIsAcked(t *testing.T) {
	engine := newTestServer(t, &stubPaymentService{outcome: paymentdomain.OutcomeApplied})

	w := postWebhook(engine, `{"type":`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ignored")
}

func TestWebhookGatewayOutageAsksForRedelivery(t *testing.T) {
	engine := newTestServer(t, &stubPaymentService{err: paymentdomain.ErrGatewayUnavailable})

	w := postWebhook(engine, `{"type":"payment","data":{"id":"123"}}`)
	require.Equal(t, http.StatusBadGateway, w.Code)
}

func TestWebhookStorageFailureAsksForRedelivery(t *testing.T) {
	engine := newTestServer(t, &stubPaymentService{err: context.DeadlineExceeded})

	w := postWebhook(engine, `{"type":"payment","data":{"id":"123"}}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Contains(t, w.Body.String(), "storage_failure")
}

func TestCreateCheckoutRequiresActor(t *testing.T) {
	engine := newTestServer(t, &stubPaymentService{
		handle: &paymentdomain.PaymentIntentHandle{CheckoutURL: "https://mp.test/x"},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/courses/7/checkout", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateCheckout(t *testing.T) {
	engine := newTestServer(t, &stubPaymentService{
		handle: &paymentdomain.PaymentIntentHandle{
			CheckoutURL:       "https://mp.test/checkout/pref_1",
			ExternalReference: "course_purchase:7:42:1693526400000",
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/courses/7/checkout", nil)
	req.Header.Set("X-User-Id", "42")
	req.Header.Set("X-User-Role", "student")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "https://mp.test/checkout/pref_1")
}

func TestCreateCheckoutBadCourseID(t *testing.T) {
	engine := newTestServer(t, &stubPaymentService{})

	req := httptest.NewRequest(http.MethodPost, "/api/courses/not-a-number/checkout", nil)
	req.Header.Set("X-User-Id", "42")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
