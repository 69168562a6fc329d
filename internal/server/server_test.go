package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/exactsync/internal/config"
	"github.com/smallbiznis/exactsync/internal/erperr"
	exactdomain "github.com/smallbiznis/exactsync/internal/exact/domain"
	fulfillmentdomain "github.com/smallbiznis/exactsync/internal/fulfillment/domain"
	journaldomain "github.com/smallbiznis/exactsync/internal/journal/domain"
	"github.com/smallbiznis/exactsync/internal/observability"
	orderdomain "github.com/smallbiznis/exactsync/internal/order/domain"
	salesyncdomain "github.com/smallbiznis/exactsync/internal/salesync/domain"
	tokendomain "github.com/smallbiznis/exactsync/internal/token/domain"
	"github.com/smallbiznis/exactsync/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAuthorizeURL = "https://start.exactonline.de/api/oauth2/auth?client_id=shop"

type fakeTokens struct {
	mu       sync.Mutex
	exchange error
	codes    []string
}

func (f *fakeTokens) EnsureValidToken(context.Context, string) (string, error) {
	return "access", nil
}

func (f *fakeTokens) AuthorizationURL(state string) string {
	if state == "" {
		return testAuthorizeURL
	}
	return testAuthorizeURL + "&state=" + state
}

func (f *fakeTokens) ExchangeCode(_ context.Context, userID, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, userID+":"+code)
	return f.exchange
}

func (f *fakeTokens) Status(_ context.Context, userID string) (tokendomain.Status, error) {
	return tokendomain.Status{UserID: userID, Authorized: true, HasRefreshToken: true}, nil
}

type fakeSync struct {
	result salesyncdomain.Result
	err    error

	sess      exactdomain.Session
	order     orderdomain.Order
	quotation orderdomain.Quotation
	update    []string
}

func (f *fakeSync) CreateSalesOrder(_ context.Context, sess exactdomain.Session, order orderdomain.Order) (salesyncdomain.Result, error) {
	f.sess, f.order = sess, order
	return f.result, f.err
}

func (f *fakeSync) CreateQuotation(_ context.Context, sess exactdomain.Session, quotation orderdomain.Quotation) (salesyncdomain.Result, error) {
	f.sess, f.quotation = sess, quotation
	return f.result, f.err
}

func (f *fakeSync) UpdateSalesOrder(_ context.Context, sess exactdomain.Session, orderID, yourRef, shopOrderID string) (salesyncdomain.Result, error) {
	f.sess = sess
	f.update = []string{orderID, yourRef, shopOrderID}
	return f.result, f.err
}

type fakeFulfillment struct {
	err error

	fields   []string
	supplier string
	method   string
	updateID string
	updated  map[string]any
}

func (f *fakeFulfillment) ListSalesOrders(_ context.Context, _ exactdomain.Session, fields []string) ([]fulfillmentdomain.Record, error) {
	f.fields = fields
	return []fulfillmentdomain.Record{{"OrderNumber": 1001, "YourRef": "e5512"}}, f.err
}

func (f *fakeFulfillment) ListGoodsDeliveries(_ context.Context, _ exactdomain.Session, method string) ([]fulfillmentdomain.GoodsDelivery, error) {
	f.method = method
	if f.err != nil {
		return nil, f.err
	}
	return []fulfillmentdomain.GoodsDelivery{{EntryID: "d-1", ShippingMethodCode: method, Email: "max@muster.de"}}, nil
}

func (f *fakeFulfillment) UpdateGoodsDelivery(_ context.Context, _ exactdomain.Session, id string, fields map[string]any) error {
	f.updateID, f.updated = id, fields
	return f.err
}

func (f *fakeFulfillment) ListPurchaseOrdersBySupplier(_ context.Context, _ exactdomain.Session, supplier string, fields []string) ([]fulfillmentdomain.Record, error) {
	f.supplier, f.fields = supplier, fields
	return []fulfillmentdomain.Record{}, f.err
}

type fakeJournal struct {
	enabled bool
	err     error
	runs    []*journaldomain.Run
	filter  journaldomain.ListFilter
	page    pagination.Pagination
}

func (f *fakeJournal) Enabled() bool { return f.enabled }

func (f *fakeJournal) Record(context.Context, journaldomain.Run) error { return nil }

func (f *fakeJournal) List(_ context.Context, filter journaldomain.ListFilter, page pagination.Pagination) ([]*journaldomain.Run, *pagination.PageInfo, error) {
	f.filter, f.page = filter, page
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.runs, &pagination.PageInfo{NextPageToken: "next", HasMore: true}, nil
}

type fixture struct {
	engine      *gin.Engine
	tokens      *fakeTokens
	sync        *fakeSync
	fulfillment *fakeFulfillment
	journal     *fakeJournal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		tokens:      &fakeTokens{},
		sync:        &fakeSync{},
		fulfillment: &fakeFulfillment{},
		journal:     &fakeJournal{enabled: true},
	}
	f.engine = NewEngine(observability.Config{}, nil, func() string {
		return f.tokens.AuthorizationURL("")
	})
	NewServer(ServerParams{
		Gin:         f.engine,
		Cfg:         config.Config{Exact: config.ExactConfig{Division: "123456"}},
		Tokens:      f.tokens,
		Sync:        f.sync,
		Fulfillment: f.fulfillment,
		Journal:     f.journal,
		Log:         zap.NewNop(),
	})
	return f
}

func (f *fixture) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) doAs(method, path, body string) *httptest.ResponseRecorder {
	return f.do(method, path, body, map[string]string{HeaderUserID: "user-1"})
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := decodeBody(t, rec)
	payload, ok := body["error"].(map[string]any)
	require.True(t, ok, rec.Body.String())
	return payload
}

const orderBody = `{
	"id": "e1001",
	"date": "2026-03-02T00:00:00Z",
	"company": {"id": "12345", "name": "Muster GmbH", "street": "Hauptstr.", "zip_code": "10115", "city": "Berlin", "country_code": "DE"},
	"user": {"first_name": "Max", "last_name": "Muster", "email": "max@muster.de"},
	"delivery": {"street": "Hauptstr. 1", "zip_code": "10115", "city": "Berlin"},
	"payment_method": "Rechnung",
	"delivery_costs": "4.90",
	"items": [{"sku": "A-1", "quantity": 2, "delivery_days": 3}]
}`

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.doAs(http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorOf(t, rec)["type"])
}

func TestSessionRequiresUser(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/sync/sales-orders", orderBody, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", errorOf(t, rec)["type"])
	assert.Empty(t, f.sync.order.ID)
}

func TestSessionDivisionDefaultsToConfig(t *testing.T) {
	f := newFixture(t)

	rec := f.doAs(http.MethodPost, "/api/sync/sales-orders", orderBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, exactdomain.Session{UserID: "user-1", Division: "123456"}, f.sync.sess)

	rec = f.do(http.MethodPost, "/api/sync/sales-orders", orderBody, map[string]string{
		HeaderUserID:   "user-2",
		HeaderDivision: "654321",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, exactdomain.Session{UserID: "user-2", Division: "654321"}, f.sync.sess)
}

func TestSessionRejectsNonNumericDivision(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/sync/runs", "", map[string]string{
		HeaderUserID:   "user-1",
		HeaderDivision: "abc",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := errorOf(t, rec)
	assert.Equal(t, "validation_error", payload["type"])
}

func TestCreateSalesOrderReturnsResult(t *testing.T) {
	f := newFixture(t)
	f.sync.result = salesyncdomain.Result{
		Workflow:    salesyncdomain.WorkflowSalesOrder,
		State:       salesyncdomain.StateSubmitted,
		Outcome:     salesyncdomain.StateSucceeded,
		OrderID:     "so-1",
		OrderNumber: 1001,
		AccountID:   "acc-1",
	}

	rec := f.doAs(http.MethodPost, "/api/sync/sales-orders", orderBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "so-1", data["order_id"])
	assert.EqualValues(t, 1001, data["order_number"])
	assert.Equal(t, "succeeded", data["outcome"])

	order := f.sync.order
	assert.Equal(t, "e1001", order.ID)
	assert.Equal(t, "DE", order.Company.CountryCode)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Quantity.Equal(decimal.NewFromInt(2)))
	assert.True(t, order.DeliveryCosts.Equal(decimal.RequireFromString("4.9")))
	assert.Equal(t, 3, order.Items[0].DeliveryDays)
}

func TestCreateSalesOrderRejectsMalformedBody(t *testing.T) {
	f := newFixture(t)
	rec := f.doAs(http.MethodPost, "/api/sync/sales-orders", `{"id":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorOf(t, rec)["type"])
}

func TestSyncFailureKeepsPartialResult(t *testing.T) {
	f := newFixture(t)
	f.sync.result = salesyncdomain.Result{
		Workflow:   salesyncdomain.WorkflowSalesOrder,
		State:      salesyncdomain.StateAddressResolved,
		Outcome:    salesyncdomain.StateFailed,
		FailedStep: salesyncdomain.StepLines,
		AccountID:  "acc-1",
		ContactID:  "con-1",
		AddressID:  "adr-1",
	}
	f.sync.err = erperr.ItemNotFound("composer.order_lines", []string{"X-9"})

	rec := f.doAs(http.MethodPost, "/api/sync/sales-orders", orderBody)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody(t, rec)
	payload := body["error"].(map[string]any)
	assert.Equal(t, "item_not_found", payload["type"])
	assert.Equal(t, []any{"X-9"}, payload["skus"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "acc-1", data["account_id"])
	assert.Equal(t, "adr-1", data["address_id"])
	assert.Equal(t, "lines", data["failed_step"])
}

func TestAuthRequiredCarriesAuthorizeURL(t *testing.T) {
	f := newFixture(t)
	f.sync.result = salesyncdomain.Result{State: salesyncdomain.StateAuthPending, Outcome: salesyncdomain.StateFailed}
	f.sync.err = erperr.AuthRequired("token.ensure_valid", "user-1")

	rec := f.doAs(http.MethodPost, "/api/sync/quotations", `{"id":"q1"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	payload := errorOf(t, rec)
	assert.Equal(t, "auth_required", payload["type"])
	assert.Equal(t, testAuthorizeURL, payload["authorize_url"])
	assert.Equal(t, "q1", f.sync.quotation.ID)
}

func TestTransportFailureIsBadGateway(t *testing.T) {
	f := newFixture(t)
	f.fulfillment.err = erperr.Wrap(erperr.KindTransport, "exact.get", assert.AnError)

	rec := f.doAs(http.MethodGet, "/api/fulfillment/goods-deliveries?shipping_method=DHL", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "transport_error", errorOf(t, rec)["type"])
}

func TestUpdateSalesOrderReference(t *testing.T) {
	f := newFixture(t)
	f.sync.result = salesyncdomain.Result{Workflow: salesyncdomain.WorkflowUpdateSalesOrder, OrderID: "so-1", Outcome: salesyncdomain.StateSucceeded}

	rec := f.doAs(http.MethodPut, "/api/sync/sales-orders/so-1/reference", `{"your_ref":"1001","shop_order_id":"e5512"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"so-1", "1001", "e5512"}, f.sync.update)
}

func TestServiceValidationIsUnprocessable(t *testing.T) {
	f := newFixture(t)
	f.sync.err = erperr.Validation("salesync.update_sales_order", "shop order id is required")

	rec := f.doAs(http.MethodPut, "/api/sync/sales-orders/so-1/reference", `{"your_ref":"1001"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	payload := errorOf(t, rec)
	assert.Equal(t, "validation_error", payload["type"])
	assert.Equal(t, "shop order id is required", payload["message"])
}

func TestFulfillmentListsPassFilters(t *testing.T) {
	f := newFixture(t)

	rec := f.doAs(http.MethodGet, "/api/fulfillment/sales-orders?select=OrderID,%20YourRef,", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"OrderID", "YourRef"}, f.fulfillment.fields)

	rec = f.doAs(http.MethodGet, "/api/fulfillment/purchase-orders?supplier=%2070001", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "70001", f.fulfillment.supplier)
	assert.Nil(t, f.fulfillment.fields)

	rec = f.doAs(http.MethodGet, "/api/fulfillment/goods-deliveries?shipping_method=DHL", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "DHL", f.fulfillment.method)
	deliveries := decodeBody(t, rec)["data"].([]any)
	require.Len(t, deliveries, 1)
	assert.Equal(t, "max@muster.de", deliveries[0].(map[string]any)["Email"])
}

func TestUpdateGoodsDelivery(t *testing.T) {
	f := newFixture(t)

	rec := f.doAs(http.MethodPut, "/api/fulfillment/goods-deliveries/d-1", `{"Remarks":"Gedruckt"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "d-1", f.fulfillment.updateID)
	assert.Equal(t, map[string]any{"Remarks": "Gedruckt"}, f.fulfillment.updated)
}

func TestAuthorizationRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.doAs(http.MethodGet, "/auth/exact/url?state=abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, testAuthorizeURL+"&state=abc", data["authorize_url"])

	rec = f.doAs(http.MethodPost, "/auth/exact/code", `{"code":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.tokens.codes)

	rec = f.doAs(http.MethodPost, "/auth/exact/code", `{"code":"xyz"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"user-1:xyz"}, f.tokens.codes)

	rec = f.doAs(http.MethodGet, "/auth/exact/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "user-1", status["user_id"])
	assert.Equal(t, true, status["authorized"])
}

func TestExchangeCodeFailure(t *testing.T) {
	f := newFixture(t)
	f.tokens.exchange = erperr.New(erperr.KindInvalidTokenResponse, "token.exchange_code", "missing access token")

	rec := f.doAs(http.MethodPost, "/auth/exact/code", `{"code":"xyz"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "invalid_token_response", errorOf(t, rec)["type"])
}

func TestListSyncRuns(t *testing.T) {
	f := newFixture(t)
	f.journal.runs = []*journaldomain.Run{{ID: snowflake.ID(42), Workflow: "sales_order", Outcome: "succeeded"}}

	rec := f.doAs(http.MethodGet, "/api/sync/runs?workflow=sales_order&page_size=5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	runs := body["data"].([]any)
	require.Len(t, runs, 1)
	assert.Equal(t, "42", runs[0].(map[string]any)["id"])
	assert.Equal(t, true, body["page_info"].(map[string]any)["has_more"])

	assert.Equal(t, journaldomain.ListFilter{UserID: "user-1", Workflow: "sales_order"}, f.journal.filter)
	assert.Equal(t, 5, f.journal.page.PageSize)
}

func TestListSyncRunsRejectsBadPaging(t *testing.T) {
	f := newFixture(t)

	rec := f.doAs(http.MethodGet, "/api/sync/runs?page_size=500", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.journal.err = journaldomain.ErrInvalidPageToken
	rec = f.doAs(http.MethodGet, "/api/sync/runs?page_token=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := errorOf(t, rec)
	errs := payload["errors"].([]any)
	assert.Equal(t, "invalid_page_token", errs[0].(map[string]any)["code"])
}

func TestListSyncRunsWithoutJournal(t *testing.T) {
	f := newFixture(t)
	f.journal.enabled = false

	rec := f.doAs(http.MethodGet, "/api/sync/runs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClassifyErrorForLog(t *testing.T) {
	typ, code := classifyErrorForLog(erperr.AuthRequired("token.ensure_valid", "u"))
	assert.Equal(t, "auth_required", typ)
	assert.Equal(t, "token.ensure_valid", code)

	typ, code = classifyErrorForLog(invalidRequestError())
	assert.Equal(t, "validation_error", typ)
	assert.Equal(t, "invalid_request", code)

	typ, _ = classifyErrorForLog(assert.AnError)
	assert.Equal(t, "internal_error", typ)
}
