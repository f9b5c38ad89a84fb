package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/dto"
	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/internal/repositories"
	"github.com/Lightthouse/stirki/internal/services"
	apperrors "github.com/Lightthouse/stirki/pkg/errors"
	"github.com/Lightthouse/stirki/pkg/utils"
)

const (
	defaultOrderLimit = 50
	maxOrderLimit     = 500
	exportLimit       = 100000
)

// OrderController - API для операторов: список, карточка, смена статуса, выгрузка.
type OrderController struct {
	orderService services.OrderServiceInterface
	logger       *zap.Logger
}

func NewOrderController(orderService services.OrderServiceInterface, logger *zap.Logger) *OrderController {
	return &OrderController{orderService: orderService, logger: logger}
}

func (c *OrderController) GetOrders(ctx echo.Context) error {
	filter, err := parseOrderFilter(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	orders, total, err := c.orderService.ListOrders(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if orders == nil {
		orders = []entities.Order{}
	}

	res := dto.OrderListDTO{
		Items:      orders,
		Pagination: dto.Pagination{TotalCount: total, Limit: filter.Limit, Offset: filter.Offset},
	}
	return utils.SuccessResponse(ctx, res, "Заказы успешно получены", http.StatusOK)
}

func (c *OrderController) FindOrder(ctx echo.Context) error {
	id, err := parseOrderID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	res, err := c.orderService.FindOrder(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Заказ успешно получен", http.StatusOK)
}

func (c *OrderController) UpdateStatus(ctx echo.Context) error {
	id, err := parseOrderID(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	var req dto.UpdateOrderStatusDTO
	if err := ctx.Bind(&req); err != nil {
		return utils.ErrorResponse(ctx, apperrors.NewBadRequestError("некорректное тело запроса", err), c.logger)
	}
	if err := ctx.Validate(&req); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}

	status, err := entities.ParseOrderStatus(req.Status)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	change := services.StatusChange{OrderID: id, Status: status, Actor: entities.ActorManager}
	if req.PaymentStatus != nil {
		payment := entities.PaymentStatus(*req.PaymentStatus)
		change.Payment = &payment
	}

	order, err := c.orderService.UpdateStatus(ctx.Request().Context(), change)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, order, "Статус заказа обновлён", http.StatusOK)
}

// ExportOrders отдаёт заказы по тем же фильтрам, что и список, в xlsx.
func (c *OrderController) ExportOrders(ctx echo.Context) error {
	filter, err := parseOrderFilter(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	filter.Limit, filter.Offset = exportLimit, 0

	orders, _, err := c.orderService.ListOrders(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return c.respondWithXLSX(ctx, orders)
}

var exportHeaders = []string{
	"№ заказа", "Дата", "Статус", "Оплата", "Адрес", "Услуги", "Вес, кг", "Стоимость, руб", "Карточка",
}

func orderRow(o entities.Order) []interface{} {
	var card string
	if o.ExternalCardID.Valid {
		card = strconv.FormatInt(o.ExternalCardID.Int64, 10)
	}

	address := fmt.Sprintf("%s, дом %s", o.StreetName.String, o.House)
	if o.Apartment.Valid && o.Apartment.String != "" {
		address += ", кв. " + o.Apartment.String
	}

	titles := make([]string, 0, len(o.Services.Selection()))
	for _, s := range o.Services.Selection().Selected() {
		titles = append(titles, s.Title())
	}

	return []interface{}{
		o.ID, o.CreatedAt.Format("02.01.2006 15:04"), o.Status.Title(), string(o.PaymentStatus),
		address, strings.Join(titles, ", "), o.WeightKg, o.TotalPrice, card,
	}
}

func (c *OrderController) respondWithXLSX(ctx echo.Context, orders []entities.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Заказы"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := f.SetSheetRow(sheet, "A1", &exportHeaders); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	_ = f.SetCellStyle(sheet, "A1", "I1", style)

	for i, o := range orders {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := orderRow(o)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return utils.ErrorResponse(ctx, err, c.logger)
		}
	}
	_ = f.SetColWidth(sheet, "B", "D", 18)
	_ = f.SetColWidth(sheet, "E", "F", 40)

	fileName := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("2006-01-02"))
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}

func parseOrderID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError("некорректный id заказа", err)
	}
	return id, nil
}

func parseOrderFilter(ctx echo.Context) (repositories.OrderFilter, error) {
	filter := repositories.OrderFilter{Limit: defaultOrderLimit}

	if raw := ctx.QueryParam("status"); raw != "" {
		status, err := entities.ParseOrderStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := ctx.QueryParam(name)
		if raw == "" {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			return filter, apperrors.NewBadRequestError(fmt.Sprintf("параметр %s: ожидается дата YYYY-MM-DD или RFC3339", name), err)
		}
		*dst = &t
	}

	if raw := ctx.QueryParam("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || limit == 0 {
			return filter, apperrors.NewBadRequestError("некорректный limit", err)
		}
		filter.Limit = min(limit, maxOrderLimit)
	}
	if raw := ctx.QueryParam("offset"); raw != "" {
		offset, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return filter, apperrors.NewBadRequestError("некорректный offset", err)
		}
		filter.Offset = offset
	}
	return filter, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}
