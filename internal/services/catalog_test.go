package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trip-haven-backend/internal/logger"
	"trip-haven-backend/internal/models"
	"trip-haven-backend/internal/storage"
)

func newCatalogFixture(t *testing.T) (*CatalogService, *storage.InMemoryStore) {
	t.Helper()
	store := storage.NewInMemoryStore()
	return NewCatalogService(store, logger.NewLogger()), store
}

func TestCatalogCRUD(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	item, err := svc.CreateItem(context.Background(), &models.CatalogUpsertRequest{
		Type: "tour", Title: "Desert Safari", PriceAdult: 100, PriceChild: 50, TaxRate: 0.05, Enabled: true,
	})
	require.NoError(t, err)
	require.NotZero(t, item.ID)

	loaded, err := svc.GetItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desert Safari", loaded.Title)

	_, err = svc.UpdateItem(context.Background(), item.ID, &models.CatalogUpsertRequest{
		Type: "tour", Title: "Evening Desert Safari", PriceAdult: 120, Enabled: true,
	})
	require.NoError(t, err)

	items, err := svc.ListItems(context.Background(), "tour")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Evening Desert Safari", items[0].Title)

	require.NoError(t, svc.DeleteItem(context.Background(), item.ID))
	_, err = svc.GetItem(context.Background(), item.ID)
	assert.ErrorIs(t, err, ErrCatalogItemNotFound)
}

func TestCatalogRejectsUnknownType(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	_, err := svc.CreateItem(context.Background(), &models.CatalogUpsertRequest{
		Type: "cruise", Title: "Nope",
	})
	assert.ErrorIs(t, err, ErrInvalidServiceType)

	_, err = svc.ListItems(context.Background(), "cruise")
	assert.ErrorIs(t, err, ErrInvalidServiceType)
}

func TestImportCSV(t *testing.T) {
	svc, store := newCatalogFixture(t)

	sheet := strings.Join([]string{
		"type,title,description,price_adult,price_child,price_infant,tax_rate,highlights,enabled",
		`tour,Desert Safari,Evening dunes trip,100,50,0,0.05,BBQ dinner;Camel ride;Sandboarding,true`,
		`visa,30-Day Tourist Visa,Single entry,120,0,0,0,,true`,
		`spaceship,Mars Shuttle,,9999,,,,,true`,
		`transfer,Airport Pickup,,80,40,0,0.05,Meet and greet,false`,
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(sheet))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Imported)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "line 4")

	items, err := store.ListCatalogItems("tour")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"BBQ dinner", "Camel ride", "Sandboarding"}, items[0].Highlights)
	assert.Equal(t, 0.05, items[0].TaxRate)

	transfers, err := store.ListCatalogItems("transfer")
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.False(t, transfers[0].Enabled)
}

func TestImportCSVRequiresHeader(t *testing.T) {
	svc, _ := newCatalogFixture(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("title,price\nSafari,100\n"))
	assert.ErrorIs(t, err, ErrBadImportRow)
}
