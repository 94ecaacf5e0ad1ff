package gateway

import (
	"context"
	"fmt"

	"booking-svc/config"

	mt "github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
	"go.uber.org/zap"
)

const itemNameMaxLen = 50

type TransactionParams struct {
	OrderID       string
	Amount        int64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	ItemName      string
	ItemQuantity  int
	ItemPrice     int64
}

type SnapTransaction struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type TransactionStatus struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}

// MidtransClient wraps the official Snap and Core API clients.
type MidtransClient struct {
	snap      snap.Client
	core      coreapi.Client
	clientKey string
	finishURL string
	logger    *zap.Logger
}

func NewMidtransClient(cfg config.MidtransConfig, frontendURL string, logger *zap.Logger) *MidtransClient {
	env := mt.Sandbox
	if cfg.IsProduction {
		env = mt.Production
	}

	c := &MidtransClient{
		clientKey: cfg.ClientKey,
		finishURL: frontendURL + "/booking/success",
		logger:    logger,
	}
	c.snap.New(cfg.ServerKey, env)
	c.core.New(cfg.ServerKey, env)
	return c
}

func (c *MidtransClient) ClientKey() string {
	return c.clientKey
}

// CreateTransaction issues a Snap token for the given order. The SDK does
// not take a context; ctx is accepted for interface symmetry with callers.
func (c *MidtransClient) CreateTransaction(ctx context.Context, p TransactionParams) (*SnapTransaction, error) {
	itemName := p.ItemName
	if len(itemName) > itemNameMaxLen {
		itemName = itemName[:itemNameMaxLen]
	}

	req := &snap.Request{
		TransactionDetails: mt.TransactionDetails{
			OrderID:  p.OrderID,
			GrossAmt: p.Amount,
		},
		Items: &[]mt.ItemDetails{
			{
				ID:    "room-booking",
				Name:  itemName,
				Price: p.ItemPrice,
				Qty:   int32(p.ItemQuantity),
			},
		},
		CustomerDetail: &mt.CustomerDetails{
			FName: p.CustomerName,
			Email: p.CustomerEmail,
			Phone: p.CustomerPhone,
		},
		Callbacks: &snap.Callbacks{Finish: c.finishURL},
	}

	resp, merr := c.snap.CreateTransaction(req)
	if merr != nil {
		return nil, fmt.Errorf("failed to create snap transaction: %w", merr)
	}

	c.logger.Info("Snap transaction created", zap.String("order_id", p.OrderID))
	return &SnapTransaction{Token: resp.Token, RedirectURL: resp.RedirectURL}, nil
}

// TransactionStatus queries the gateway for the current status of an order.
// Callers tolerate failure here; it is a best-effort verification.
func (c *MidtransClient) TransactionStatus(ctx context.Context, orderID string) (*TransactionStatus, error) {
	resp, merr := c.core.CheckTransaction(orderID)
	if merr != nil {
		return nil, fmt.Errorf("failed to check transaction %s: %w", orderID, merr)
	}

	return &TransactionStatus{
		OrderID:           resp.OrderID,
		TransactionStatus: resp.TransactionStatus,
		FraudStatus:       resp.FraudStatus,
		PaymentType:       resp.PaymentType,
	}, nil
}
