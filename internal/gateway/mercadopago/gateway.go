// Package mercadopago adapts the Mercado Pago SDK to the settlement
// gateway boundary. In mock mode every charge is approved locally, which
// keeps development and CI off the sandbox.
package mercadopago

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	mppayment "github.com/mercadopago/sdk-go/pkg/payment"

	"github.com/maonamassa/marketplace/internal/payment"
)

var ErrMissingAccessToken = errors.New("missing mercado pago access token")

type Gateway struct {
	client   mppayment.Client
	mockMode bool
}

// New builds the gateway. An empty access token with mock disabled is a
// configuration error rather than a silent no-op.
func New(accessToken string, mockMode bool) (*Gateway, error) {
	if mockMode {
		slog.Info("mercado pago gateway running in mock mode")
		return &Gateway{mockMode: true}, nil
	}

	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}

	cfg, err := mpconfig.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("creating mercado pago config: %w", err)
	}

	return &Gateway{client: mppayment.NewClient(cfg)}, nil
}

// methodID maps the stored method type onto Mercado Pago's payment method
// identifiers. Card brands are resolved processor-side from the token, so
// the generic ids suffice here.
func methodID(t payment.MethodType) string {
	switch t {
	case payment.MethodPix:
		return "pix"
	case payment.MethodDebitCard:
		return "debvisa"
	case payment.MethodBankTransfer:
		return "ted"
	default:
		return "visa"
	}
}

func (g *Gateway) Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error) {
	if g.mockMode {
		return &payment.ChargeResult{
			ProviderRef: strconv.FormatInt(time.Now().UTC().UnixNano(), 10),
			Approved:    true,
			Detail:      "accredited",
		}, nil
	}

	resp, err := g.client.Create(ctx, mppayment.Request{
		TransactionAmount: float64(req.Amount) / 100.0,
		Description:       req.Description,
		PaymentMethodID:   methodID(req.MethodType),
		ExternalReference: req.TransactionID.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating mercado pago payment: %w", err)
	}

	return &payment.ChargeResult{
		ProviderRef: strconv.Itoa(resp.ID),
		Approved:    resp.Status == "approved",
		Detail:      resp.StatusDetail,
	}, nil
}
