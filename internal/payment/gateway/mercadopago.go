package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/edustack/campus/internal/config"
	"github.com/edustack/campus/internal/payment/domain"
	"go.uber.org/zap"
)

// MercadoPago wraps the processor's preference-creation and payment-lookup
// endpoints. Every call is a single attempt with the configured timeout;
// transport and 5xx failures surface as ErrGatewayUnavailable.
type MercadoPago struct {
	baseURL     string
	accessToken string
	client      *http.Client
	log         *zap.Logger
	successURL  string
	failureURL  string
	pendingURL  string
	webhookURL  string
}

func NewMercadoPago(cfg config.Config, log *zap.Logger) domain.Gateway {
	timeout := time.Duration(cfg.MercadoPago.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MercadoPago{
		baseURL:     strings.TrimRight(cfg.MercadoPago.BaseURL, "/"),
		accessToken: cfg.MercadoPago.AccessToken,
		client:      &http.Client{Timeout: timeout},
		log:         log.Named("payment.gateway"),
		successURL:  cfg.MercadoPago.SuccessURL,
		failureURL:  cfg.MercadoPago.FailureURL,
		pendingURL:  cfg.MercadoPago.PendingURL,
		webhookURL:  cfg.MercadoPago.WebhookURL,
	}
}

type preferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferenceBackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

type preferenceRequest struct {
	Items             []preferenceItem   `json:"items"`
	ExternalReference string             `json:"external_reference"`
	BackURLs          preferenceBackURLs `json:"back_urls"`
	NotificationURL   string             `json:"notification_url,omitempty"`
	AutoReturn        string             `json:"auto_return,omitempty"`
}

type preferenceResponse struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

func (g *MercadoPago) CreatePreference(ctx context.Context, pref domain.CheckoutPreference) (*domain.PaymentIntentHandle, error) {
	body := preferenceRequest{
		Items: []preferenceItem{{
			Title:      pref.Title,
			Quantity:   1,
			UnitPrice:  float64(pref.Amount) / 100,
			CurrencyID: pref.Currency,
		}},
		ExternalReference: pref.ExternalReference,
		BackURLs: preferenceBackURLs{
			Success: g.successURL,
			Failure: g.failureURL,
			Pending: g.pendingURL,
		},
		NotificationURL: g.webhookURL,
	}

	var resp preferenceResponse
	if err := g.post(ctx, "/checkout/preferences", body, &resp); err != nil {
		return nil, err
	}

	checkoutURL := strings.TrimSpace(resp.InitPoint)
	if checkoutURL == "" {
		checkoutURL = strings.TrimSpace(resp.SandboxInitPoint)
	}
	if checkoutURL == "" {
		return nil, domain.ErrGatewayUnavailable
	}

	return &domain.PaymentIntentHandle{
		CheckoutURL:       checkoutURL,
		ExternalReference: pref.ExternalReference,
	}, nil
}

type paymentResponse struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	TransactionAmount float64     `json:"transaction_amount"`
	CurrencyID        string      `json:"currency_id"`
	ExternalReference string      `json:"external_reference"`
	DateApproved      string      `json:"date_approved"`
}

func (g *MercadoPago) GetPayment(ctx context.Context, externalPaymentID string) (*domain.GatewayPayment, error) {
	externalPaymentID = strings.TrimSpace(externalPaymentID)
	if externalPaymentID == "" {
		return nil, domain.ErrPaymentNotFound
	}

	raw, status, err := g.get(ctx, "/v1/payments/"+externalPaymentID)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrPaymentNotFound
	}
	if status != http.StatusOK {
		g.log.Warn("payment lookup failed", zap.Int("status", status), zap.String("payment_id", externalPaymentID))
		return nil, domain.ErrGatewayUnavailable
	}

	var resp paymentResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, domain.ErrGatewayUnavailable
	}

	payment := &domain.GatewayPayment{
		ExternalPaymentID: externalPaymentID,
		Status:            NormalizeStatus(resp.Status),
		Amount:            int64(math.Round(resp.TransactionAmount * 100)),
		Currency:          strings.ToUpper(strings.TrimSpace(resp.CurrencyID)),
		ExternalReference: strings.TrimSpace(resp.ExternalReference),
		RawPayload:        raw,
	}
	if approved := strings.TrimSpace(resp.DateApproved); approved != "" {
		if parsed, err := time.Parse(time.RFC3339, approved); err == nil {
			utc := parsed.UTC()
			payment.ApprovedAt = &utc
		}
	}
	return payment, nil
}

// NormalizeStatus folds the processor's status vocabulary into the domain
// enum. Unknown values degrade to in_process rather than being dropped.
func NormalizeStatus(raw string) domain.Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return domain.StatusApproved
	case "pending", "authorized":
		return domain.StatusPending
	case "in_process", "in_mediation":
		return domain.StatusInProcess
	case "rejected":
		return domain.StatusRejected
	case "cancelled":
		return domain.StatusCancelled
	case "refunded", "charged_back":
		return domain.StatusRefunded
	default:
		return domain.StatusInProcess
	}
}

func (g *MercadoPago) post(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("gateway request failed", zap.String("path", path), zap.Error(err))
		return domain.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.ErrGatewayUnavailable
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		g.log.Warn("gateway rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return domain.ErrGatewayUnavailable
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}

func (g *MercadoPago) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("gateway request failed", zap.String("path", path), zap.Error(err))
		return nil, 0, domain.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, domain.ErrGatewayUnavailable
	}
	return raw, resp.StatusCode, nil
}
