package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/storage"
)

var (
	ErrGatewayNotFound     = errors.New("payment gateway not found")
	ErrGatewayDisabled     = errors.New("payment gateway is disabled")
	ErrCurrencyUnsupported = errors.New("currency not supported by gateway")
	ErrAmountOutOfRange    = errors.New("amount outside gateway limits")
	ErrInvalidProtocol     = errors.New("unknown gateway protocol")
)

// GatewayService is the registry of configured payment methods. Checkout
// reads it to render options; admins manage rows through it.
type GatewayService struct {
	store storage.Store
	log   *logger.Logger
}

func NewGatewayService(store storage.Store, log *logger.Logger) *GatewayService {
	return &GatewayService{store: store, log: log}
}

// ListOptions returns enabled gateways in priority order. An empty result is
// not an error: the checkout page renders nothing and blocks submission.
func (s *GatewayService) ListOptions(ctx context.Context) ([]models.GatewayOption, error) {
	gateways, err := s.store.ListGateways()
	if err != nil {
		return nil, fmt.Errorf("failed to load gateway configuration: %w", err)
	}

	var enabled []*models.PaymentGateway
	for _, g := range gateways {
		if g.Enabled {
			enabled = append(enabled, g)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool { return enabled[i].Priority < enabled[j].Priority })

	options := make([]models.GatewayOption, 0, len(enabled))
	for _, g := range enabled {
		opt := models.GatewayOption{
			Name:            g.Name,
			DisplayName:     g.DisplayName,
			Description:     g.Description,
			Protocol:        g.Protocol,
			MinAmount:       g.MinAmount,
			MaxAmount:       g.MaxAmount,
			RequiresSecrets: g.Protocol == models.ProtocolHostedScript,
		}
		if g.Currencies != "" {
			for _, c := range strings.Split(g.Currencies, ",") {
				opt.Currencies = append(opt.Currencies, strings.ToUpper(strings.TrimSpace(c)))
			}
		}
		if g.Protocol == models.ProtocolManual {
			opt.Instructions = g.Instructions
		}
		options = append(options, opt)
	}

	s.log.LogProcess("GATEWAYS", fmt.Sprintf("Serving %d enabled gateways", len(options)))
	return options, nil
}

// ResolveForCharge loads one gateway and checks it can take this charge.
func (s *GatewayService) ResolveForCharge(ctx context.Context, name string, amount float64, currency string) (*models.PaymentGateway, error) {
	g, err := s.store.GetGatewayByName(name)
	if err != nil {
		if errors.Is(err, storage.ErrGatewayNotFound) {
			return nil, ErrGatewayNotFound
		}
		return nil, fmt.Errorf("failed to load gateway %s: %w", name, err)
	}

	if !g.Enabled {
		// A gateway can be disabled mid-checkout by an admin; surface it
		// the same way as any other rejection.
		return nil, ErrGatewayDisabled
	}
	if !g.SupportsCurrency(currency) {
		return nil, ErrCurrencyUnsupported
	}
	if !g.WithinLimits(amount) {
		return nil, ErrAmountOutOfRange
	}
	return g, nil
}

func (s *GatewayService) CreateGateway(ctx context.Context, req *models.GatewayUpsertRequest) (*models.PaymentGateway, error) {
	g, err := gatewayFromRequest(req)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	g.CreatedAt = now
	g.UpdatedAt = now

	if err := s.store.SaveGateway(g); err != nil {
		return nil, fmt.Errorf("failed to save gateway: %w", err)
	}
	s.log.LogProcess("GATEWAYS", fmt.Sprintf("Gateway %s created (protocol %s)", g.Name, g.Protocol))
	return g, nil
}

func (s *GatewayService) UpdateGateway(ctx context.Context, id int64, req *models.GatewayUpsertRequest) (*models.PaymentGateway, error) {
	g, err := gatewayFromRequest(req)
	if err != nil {
		return nil, err
	}
	g.ID = id

	if err := s.store.UpdateGateway(g); err != nil {
		if errors.Is(err, storage.ErrGatewayNotFound) {
			return nil, ErrGatewayNotFound
		}
		return nil, fmt.Errorf("failed to update gateway: %w", err)
	}
	return g, nil
}

func (s *GatewayService) DeleteGateway(ctx context.Context, id int64) error {
	if err := s.store.DeleteGateway(id); err != nil {
		if errors.Is(err, storage.ErrGatewayNotFound) {
			return ErrGatewayNotFound
		}
		return fmt.Errorf("failed to delete gateway: %w", err)
	}
	return nil
}

func gatewayFromRequest(req *models.GatewayUpsertRequest) (*models.PaymentGateway, error) {
	protocol := models.GatewayProtocol(req.Protocol)
	switch protocol {
	case models.ProtocolHostedScript, models.ProtocolRedirect, models.ProtocolManual:
	default:
		return nil, ErrInvalidProtocol
	}

	return &models.PaymentGateway{
		Name:         strings.ToLower(strings.TrimSpace(req.Name)),
		DisplayName:  req.DisplayName,
		Description:  req.Description,
		Protocol:     protocol,
		Enabled:      req.Enabled,
		Priority:     req.Priority,
		Currencies:   req.Currencies,
		MinAmount:    req.MinAmount,
		MaxAmount:    req.MaxAmount,
		APIKey:       req.APIKey,
		APISecret:    req.APISecret,
		CheckoutURL:  req.CheckoutURL,
		Instructions: req.Instructions,
	}, nil
}
