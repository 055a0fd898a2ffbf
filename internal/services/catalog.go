package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/storage"
)

var (
	ErrCatalogItemNotFound = errors.New("catalog item not found")
	ErrBadImportRow        = errors.New("malformed catalog import row")
)

// CatalogService manages the sellable services. Bookings snapshot prices at
// creation, so edits here only affect future bookings.
type CatalogService struct {
	store storage.Store
	log   *logger.Logger
}

func NewCatalogService(store storage.Store, log *logger.Logger) *CatalogService {
	return &CatalogService{store: store, log: log}
}

func (s *CatalogService) CreateItem(ctx context.Context, req *models.CatalogUpsertRequest) (*models.CatalogItem, error) {
	item, err := catalogItemFromRequest(req)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.store.SaveCatalogItem(item); err != nil {
		return nil, fmt.Errorf("failed to save catalog item: %w", err)
	}
	s.log.LogProcess("CATALOG", fmt.Sprintf("Created %s %q", item.Type, item.Title))
	return item, nil
}

func (s *CatalogService) GetItem(ctx context.Context, id int64) (*models.CatalogItem, error) {
	item, err := s.store.GetCatalogItem(id)
	if err != nil {
		if errors.Is(err, storage.ErrCatalogItemNotFound) {
			return nil, ErrCatalogItemNotFound
		}
		return nil, fmt.Errorf("failed to load catalog item: %w", err)
	}
	return item, nil
}

func (s *CatalogService) ListItems(ctx context.Context, serviceType string) ([]*models.CatalogItem, error) {
	if serviceType != "" && !models.ServiceType(serviceType).Valid() {
		return nil, ErrInvalidServiceType
	}
	return s.store.ListCatalogItems(serviceType)
}

func (s *CatalogService) UpdateItem(ctx context.Context, id int64, req *models.CatalogUpsertRequest) (*models.CatalogItem, error) {
	item, err := catalogItemFromRequest(req)
	if err != nil {
		return nil, err
	}
	item.ID = id

	if err := s.store.UpdateCatalogItem(item); err != nil {
		if errors.Is(err, storage.ErrCatalogItemNotFound) {
			return nil, ErrCatalogItemNotFound
		}
		return nil, fmt.Errorf("failed to update catalog item: %w", err)
	}
	return item, nil
}

func (s *CatalogService) DeleteItem(ctx context.Context, id int64) error {
	if err := s.store.DeleteCatalogItem(id); err != nil {
		if errors.Is(err, storage.ErrCatalogItemNotFound) {
			return ErrCatalogItemNotFound
		}
		return fmt.Errorf("failed to delete catalog item: %w", err)
	}
	return nil
}

// ImportResult summarizes a bulk catalog upload.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// ImportCSV ingests a back-office catalog sheet. Expected columns:
// type,title,description,price_adult,price_child,price_infant,tax_rate,highlights,enabled
// where highlights is a semicolon-separated sub-list. Bad rows are skipped
// and reported, good rows still land.
func (s *CatalogService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read import header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"type", "title", "price_adult"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadImportRow, required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	result := &ImportResult{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		item, err := catalogItemFromImportRow(record, field)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		now := time.Now()
		item.CreatedAt = now
		item.UpdatedAt = now

		if err := s.store.SaveCatalogItem(item); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Imported++
	}

	s.log.LogProcess("CATALOG", fmt.Sprintf("Import finished: %d imported, %d skipped", result.Imported, result.Skipped))
	return result, nil
}

func catalogItemFromImportRow(record []string, field func([]string, string) string) (*models.CatalogItem, error) {
	serviceType := models.ServiceType(field(record, "type"))
	if !serviceType.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrBadImportRow, field(record, "type"))
	}
	title := field(record, "title")
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", ErrBadImportRow)
	}

	parsePrice := func(name string) (float64, error) {
		v := field(record, name)
		if v == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f < 0 {
			return 0, fmt.Errorf("%w: bad %s %q", ErrBadImportRow, name, v)
		}
		return f, nil
	}
	priceAdult, err := parsePrice("price_adult")
	if err != nil {
		return nil, err
	}
	priceChild, err := parsePrice("price_child")
	if err != nil {
		return nil, err
	}
	priceInfant, err := parsePrice("price_infant")
	if err != nil {
		return nil, err
	}
	taxRate, err := parsePrice("tax_rate")
	if err != nil {
		return nil, err
	}

	var highlights []string
	if raw := field(record, "highlights"); raw != "" {
		for _, h := range strings.Split(raw, ";") {
			if h = strings.TrimSpace(h); h != "" {
				highlights = append(highlights, h)
			}
		}
	}

	enabled := true
	if raw := field(record, "enabled"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad enabled flag %q", ErrBadImportRow, raw)
		}
		enabled = b
	}

	return &models.CatalogItem{
		Type:        serviceType,
		Title:       title,
		Description: field(record, "description"),
		PriceAdult:  priceAdult,
		PriceChild:  priceChild,
		PriceInfant: priceInfant,
		TaxRate:     taxRate,
		Highlights:  highlights,
		Enabled:     enabled,
	}, nil
}

func catalogItemFromRequest(req *models.CatalogUpsertRequest) (*models.CatalogItem, error) {
	serviceType := models.ServiceType(req.Type)
	if !serviceType.Valid() {
		return nil, ErrInvalidServiceType
	}
	if req.PriceAdult < 0 || req.PriceChild < 0 || req.PriceInfant < 0 || req.TaxRate < 0 {
		return nil, fmt.Errorf("%w: negative price", ErrBadImportRow)
	}
	return &models.CatalogItem{
		Type:        serviceType,
		Title:       req.Title,
		Description: req.Description,
		PriceAdult:  req.PriceAdult,
		PriceChild:  req.PriceChild,
		PriceInfant: req.PriceInfant,
		TaxRate:     req.TaxRate,
		Highlights:  req.Highlights,
		Enabled:     req.Enabled,
	}, nil
}
