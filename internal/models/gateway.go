package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type GatewayProtocol string

const (
	// ProtocolHostedScript gateways open an in-page checkout via a
	// client-side SDK (Stripe). The server creates the charge intent and
	// verifies the result after the client callback.
	ProtocolHostedScript GatewayProtocol = "hosted_script"
	// ProtocolRedirect gateways host their own checkout page; the customer
	// is sent there in a new tab and returns with a payment id.
	ProtocolRedirect GatewayProtocol = "redirect"
	// ProtocolManual gateways settle outside the system entirely
	// (cash on arrival, bank transfer).
	ProtocolManual GatewayProtocol = "manual"
)

type PaymentGateway struct {
	bun.BaseModel `bun:"table:payment_gateways"`

	ID          int64           `json:"id" bun:"id,pk,autoincrement"`
	Name        string          `json:"name" bun:"name"`
	DisplayName string          `json:"display_name" bun:"display_name"`
	Description string          `json:"description" bun:"description"`
	Protocol    GatewayProtocol `json:"protocol" bun:"protocol"`
	Enabled     bool            `json:"enabled" bun:"enabled"`
	Priority    int             `json:"priority" bun:"priority"`

	// Comma-separated ISO currency codes; empty means no restriction.
	Currencies string  `json:"currencies" bun:"currencies"`
	MinAmount  float64 `json:"min_amount" bun:"min_amount"`
	MaxAmount  float64 `json:"max_amount" bun:"max_amount"`

	// Secrets are admin-managed and never serialized outward.
	APIKey    string `json:"-" bun:"api_key"`
	APISecret string `json:"-" bun:"api_secret"`

	// CheckoutURL is the base of the externally hosted checkout page
	// (redirect protocol only).
	CheckoutURL string `json:"checkout_url,omitempty" bun:"checkout_url"`
	// Instructions shown to the customer for manual settlement.
	Instructions string `json:"instructions,omitempty" bun:"instructions"`

	CreatedAt time.Time `json:"created_at" bun:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bun:"updated_at"`
}

// SupportsCurrency checks the comma-separated currency allowlist.
func (g *PaymentGateway) SupportsCurrency(code string) bool {
	if strings.TrimSpace(g.Currencies) == "" {
		return true
	}
	for _, c := range strings.Split(g.Currencies, ",") {
		if strings.EqualFold(strings.TrimSpace(c), code) {
			return true
		}
	}
	return false
}

// WithinLimits checks the min/max transaction bounds; zero max means no cap.
func (g *PaymentGateway) WithinLimits(amount float64) bool {
	if amount < g.MinAmount {
		return false
	}
	if g.MaxAmount > 0 && amount > g.MaxAmount {
		return false
	}
	return true
}

// GatewayOption is the capability view rendered to the checkout page.
type GatewayOption struct {
	Name            string          `json:"name"`
	DisplayName     string          `json:"display_name"`
	Description     string          `json:"description,omitempty"`
	Protocol        GatewayProtocol `json:"protocol"`
	Currencies      []string        `json:"currencies,omitempty"`
	MinAmount       float64         `json:"min_amount"`
	MaxAmount       float64         `json:"max_amount"`
	RequiresSecrets bool            `json:"requires_secrets"`
	Instructions    string          `json:"instructions,omitempty"`
}

type GatewayUpsertRequest struct {
	Name        string  `json:"name" binding:"required"`
	DisplayName string  `json:"display_name" binding:"required"`
	Description string  `json:"description,omitempty"`
	Protocol    string  `json:"protocol" binding:"required"`
	Enabled     bool    `json:"enabled"`
	Priority    int     `json:"priority"`
	Currencies  string  `json:"currencies,omitempty"`
	MinAmount   float64 `json:"min_amount,omitempty"`
	MaxAmount   float64 `json:"max_amount,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	APISecret   string  `json:"api_secret,omitempty"`
	CheckoutURL string  `json:"checkout_url,omitempty"`

	Instructions string `json:"instructions,omitempty"`
}
