package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/internal/pricing"
	"github.com/Lightthouse/stirki/internal/repositories"
	"github.com/Lightthouse/stirki/internal/services"
	"github.com/Lightthouse/stirki/pkg/customvalidator"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
	"github.com/Lightthouse/stirki/pkg/utils"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, client entities.Client, selection pricing.Selection, corr services.Correlation) (*entities.Order, error) {
	args := m.Called(ctx, client, selection, corr)
	order, _ := args.Get(0).(*entities.Order)
	return order, args.Error(1)
}

func (m *MockOrderService) UpdateStatus(ctx context.Context, change services.StatusChange) (*entities.Order, error) {
	args := m.Called(ctx, change)
	order, _ := args.Get(0).(*entities.Order)
	return order, args.Error(1)
}

func (m *MockOrderService) AttachExternalCard(ctx context.Context, orderID int64, cardID int64) error {
	return m.Called(ctx, orderID, cardID).Error(0)
}

func (m *MockOrderService) AttachMessage(ctx context.Context, orderID int64, chatID int64, messageID int64) error {
	return m.Called(ctx, orderID, chatID, messageID).Error(0)
}

func (m *MockOrderService) FindOrder(ctx context.Context, id int64) (*services.OrderDetails, error) {
	args := m.Called(ctx, id)
	details, _ := args.Get(0).(*services.OrderDetails)
	return details, args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter repositories.OrderFilter) ([]entities.Order, uint64, error) {
	args := m.Called(ctx, filter)
	orders, _ := args.Get(0).([]entities.Order)
	return orders, args.Get(1).(uint64), args.Error(2)
}

func newEcho(t *testing.T) *echo.Echo {
	t.Helper()
	v, err := customvalidator.New()
	require.NoError(t, err)
	e := echo.New()
	e.Validator = utils.NewValidator(v)
	return e
}

func serve(e *echo.Echo, method, target string, body []byte, h echo.HandlerFunc, params ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	ctx := e.NewContext(req, rec)
	if len(params) == 2 {
		ctx.SetParamNames(params[0])
		ctx.SetParamValues(params[1])
	}
	_ = h(ctx)
	return rec
}

func sampleOrder(id int64) entities.Order {
	return entities.Order{
		ID:            id,
		Status:        entities.StatusNew,
		StreetName:    null.StringFrom("Ленина"),
		House:         "5",
		Apartment:     null.StringFrom("12"),
		WeightKg:      3,
		Services:      entities.ServiceFlags{Ironing: true, UV: true},
		TotalPrice:    2280,
		PaymentStatus: entities.PaymentSucceeded,
		CreatedAt:     time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestGetOrders_ParsesFilter(t *testing.T) {
	svc := new(MockOrderService)
	c := NewOrderController(svc, zap.NewNop())

	svc.On("ListOrders", mock.Anything, mock.MatchedBy(func(f repositories.OrderFilter) bool {
		return f.Status != nil && *f.Status == entities.StatusWashing &&
			f.From != nil && f.From.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) &&
			f.To == nil && f.Limit == 500 && f.Offset == 20
	})).Return([]entities.Order{sampleOrder(1)}, uint64(21), nil)

	rec := serve(newEcho(t), http.MethodGet, "/api/orders?status=washing&from=2026-05-01&limit=9999&offset=20", nil, c.GetOrders)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Body struct {
			Items      []entities.Order `json:"items"`
			Pagination struct {
				TotalCount uint64 `json:"total_count"`
			} `json:"pagination"`
		} `json:"body"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Body.Items, 1)
	assert.Equal(t, uint64(21), resp.Body.Pagination.TotalCount)
	svc.AssertExpectations(t)
}

func TestGetOrders_BadQuery(t *testing.T) {
	svc := new(MockOrderService)
	c := NewOrderController(svc, zap.NewNop())
	e := newEcho(t)

	for _, q := range []string{"status=lost", "from=yesterday", "limit=0", "offset=-1"} {
		rec := serve(e, http.MethodGet, "/api/orders?"+q, nil, c.GetOrders)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
	svc.AssertNotCalled(t, "ListOrders", mock.Anything, mock.Anything)
}

func TestFindOrder(t *testing.T) {
	svc := new(MockOrderService)
	c := NewOrderController(svc, zap.NewNop())
	e := newEcho(t)

	svc.On("FindOrder", mock.Anything, int64(7)).Return(&services.OrderDetails{Order: sampleOrder(7)}, nil)
	svc.On("FindOrder", mock.Anything, int64(8)).Return(nil, fmt.Errorf("заказ 8: %w", apperrors.ErrNotFound))

	assert.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/api/orders/7", nil, c.FindOrder, "id", "7").Code)
	assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/api/orders/8", nil, c.FindOrder, "id", "8").Code)
	assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/api/orders/x", nil, c.FindOrder, "id", "x").Code)
}

func TestUpdateStatus_ManagerActor(t *testing.T) {
	svc := new(MockOrderService)
	c := NewOrderController(svc, zap.NewNop())

	updated := sampleOrder(7)
	updated.Status = entities.StatusPickedUp
	svc.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(ch services.StatusChange) bool {
		return ch.OrderID == 7 && ch.Status == entities.StatusPickedUp &&
			ch.Actor == entities.ActorManager && ch.Payment == nil
	})).Return(&updated, nil)

	rec := serve(newEcho(t), http.MethodPatch, "/api/orders/7/status", []byte(`{"status":"picked_up"}`), c.UpdateStatus, "id", "7")

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestUpdateStatus_Errors(t *testing.T) {
	svc := new(MockOrderService)
	c := NewOrderController(svc, zap.NewNop())
	e := newEcho(t)

	svc.On("UpdateStatus", mock.Anything, mock.MatchedBy(func(ch services.StatusChange) bool {
		return ch.Status == entities.StatusWaitingForCapture
	})).Return(nil, apperrors.ErrInvalidTransition)

	cases := []struct {
		body string
		code int
	}{
		{`{}`, http.StatusBadRequest},
		{`{"status":"lost"}`, http.StatusBadRequest},
		{`{"status":"new","payment_status":"refunded"}`, http.StatusBadRequest},
		{`{"status":"waiting_for_capture"}`, http.StatusConflict},
	}
	for _, tc := range cases {
		rec := serve(e, http.MethodPatch, "/api/orders/7/status", []byte(tc.body), c.UpdateStatus, "id", "7")
		assert.Equal(t, tc.code, rec.Code, tc.body)
	}
}

func TestExportOrders_WritesXLSX(t *testing.T) {
	svc := new(MockOrderService)
	c := NewOrderController(svc, zap.NewNop())

	svc.On("ListOrders", mock.Anything, mock.MatchedBy(func(f repositories.OrderFilter) bool {
		return f.Limit == exportLimit && f.Offset == 0
	})).Return([]entities.Order{sampleOrder(42)}, uint64(1), nil)

	rec := serve(newEcho(t), http.MethodGet, "/api/orders/export?offset=10", nil, c.ExportOrders)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get(echo.HeaderContentDisposition), "attachment; filename=orders_"))

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Заказы")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "№ заказа", rows[0][0])
	assert.Equal(t, "42", rows[1][0])
	assert.Equal(t, "Ленина, дом 5, кв. 12", rows[1][4])
	assert.Equal(t, "Глажка, Ультрафиолет", rows[1][5])
	assert.Equal(t, "2280", rows[1][7])
}
