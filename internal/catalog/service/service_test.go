package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/smallbiznis/exactsync/internal/cache"
	catalogdomain "github.com/smallbiznis/exactsync/internal/catalog/domain"
	"github.com/smallbiznis/exactsync/internal/clock"
	"github.com/smallbiznis/exactsync/internal/erperr"
	exactclient "github.com/smallbiznis/exactsync/internal/exact/client"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	"github.com/smallbiznis/exactsync/internal/exact/exacttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var sess = exactdomain.Session{UserID: "u1", Division: "123456"}

func newCatalog(t *testing.T) (catalogdomain.Catalog, *exacttest.Server, *clock.FakeClock) {
	t.Helper()
	erp := exacttest.New(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	client := exactclient.New(exactclient.Params{
		Cfg:    erp.Config(),
		Tokens: exacttest.StaticTokens("tok"),
		Log:    zap.NewNop(),
		HTTP:   erp.Client(),
	})
	return New(Params{
		Client: client,
		Cache:  cache.NewMemoryStoreWithClock(clk.Now),
		Log:    zap.NewNop(),
	}), erp, clk
}

func TestItemIDIsCachedForHalfADay(t *testing.T) {
	c, erp, clk := newCatalog(t)
	erp.Handle(http.MethodGet, exactdomain.ResourceItems, func(call exacttest.Call) (int, any) {
		return http.StatusOK, exacttest.IDs("item-1")
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, found, err := c.ItemID(ctx, sess, "SKU+1")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "item-1", id)
	}
	calls := erp.Calls(http.MethodGet, exactdomain.ResourceItems)
	require.Len(t, calls, 1)
	assert.Equal(t, "trim(Code) eq 'SKU+1'", calls[0].Filter)
	assert.Equal(t, "ID", calls[0].Select)

	clk.Advance(catalogdomain.ItemTTL)
	_, _, err := c.ItemID(ctx, sess, "SKU+1")
	require.NoError(t, err)
	assert.Equal(t, 2, erp.Count(http.MethodGet, exactdomain.ResourceItems))
}

func TestItemMissIsNotCached(t *testing.T) {
	c, erp, _ := newCatalog(t)
	ctx := context.Background()

	id, found, err := c.ItemID(ctx, sess, "NEW")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, id)

	erp.Handle(http.MethodGet, exactdomain.ResourceItems, func(call exacttest.Call) (int, any) {
		return http.StatusOK, exacttest.IDs("item-new")
	})
	id, found, err = c.ItemID(ctx, sess, "NEW")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "item-new", id)
}

func TestCostItemUsesPrefixAndCountry(t *testing.T) {
	c, erp, _ := newCatalog(t)
	erp.Handle(http.MethodGet, exactdomain.ResourceItems, func(call exacttest.Call) (int, any) {
		return http.StatusOK, exacttest.IDs("versand-at")
	})

	id, found, err := c.CostItemID(context.Background(), sess, "Versand", "at")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "versand-at", id)
	assert.Equal(t, "trim(Code) eq 'Versand AT'", erp.Calls(http.MethodGet, exactdomain.ResourceItems)[0].Filter)
}

func TestMasterDataFilters(t *testing.T) {
	c, erp, _ := newCatalog(t)
	ctx := context.Background()
	erp.Handle(http.MethodGet, exactdomain.ResourceGLAccounts, func(call exacttest.Call) (int, any) {
		return http.StatusOK, exacttest.IDs("gl-8400")
	})
	erp.Handle(http.MethodGet, exactdomain.ResourcePriceLists, func(call exacttest.Call) (int, any) {
		return http.StatusOK, exacttest.IDs("pl-1")
	})
	erp.Handle(http.MethodGet, exactdomain.ResourceAccountClassifications, func(call exacttest.Call) (int, any) {
		return http.StatusOK, exacttest.IDs("cls-1")
	})

	gl, _, err := c.GLAccountID(ctx, sess, "8400")
	require.NoError(t, err)
	assert.Equal(t, "gl-8400", gl)
	assert.Equal(t, "trim(Code) eq '8400'", erp.Calls(http.MethodGet, exactdomain.ResourceGLAccounts)[0].Filter)

	pl, _, err := c.PriceListID(ctx, sess, "VK Preisliste Shop")
	require.NoError(t, err)
	assert.Equal(t, "pl-1", pl)
	assert.Equal(t, "Description eq 'VK Preisliste Shop'", erp.Calls(http.MethodGet, exactdomain.ResourcePriceLists)[0].Filter)

	cls, _, err := c.ClassificationID(ctx, sess, "B2B")
	require.NoError(t, err)
	assert.Equal(t, "cls-1", cls)
	assert.Equal(t, "trim(Code) eq 'B2B'", erp.Calls(http.MethodGet, exactdomain.ResourceAccountClassifications)[0].Filter)
}

func TestEmptyCodeSkipsLookup(t *testing.T) {
	c, erp, _ := newCatalog(t)

	_, found, err := c.ClassificationID(context.Background(), sess, "  ")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, erp.Total())
}

func TestLookupTransportErrorPropagates(t *testing.T) {
	c, erp, _ := newCatalog(t)
	erp.Handle(http.MethodGet, exactdomain.ResourceItems, func(call exacttest.Call) (int, any) {
		return http.StatusBadGateway, exacttest.Error("upstream down")
	})

	_, found, err := c.ItemID(context.Background(), sess, "A")
	assert.False(t, found)
	assert.ErrorIs(t, err, erperr.ErrTransport)
}
