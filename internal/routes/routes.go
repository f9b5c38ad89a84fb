package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Lightthouse/stirki/internal/controllers"
	tgcontrollers "github.com/Lightthouse/stirki/internal/controllers/telegram"
	"github.com/Lightthouse/stirki/pkg/middleware"
)

type Loggers struct {
	Main  *zap.Logger
	Auth  *zap.Logger
	Order *zap.Logger
}

// Controllers собираются в main: им нужны общие с ботом сервисы.
type Controllers struct {
	Order    *controllers.OrderController
	Telegram *tgcontrollers.TelegramController
}

func InitRouter(e *echo.Echo, ctrls Controllers, authMW *middleware.AuthMiddleware, loggers *Loggers) {
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	e.Use(middleware.RequestLogger(loggers.Main.Named("http")))

	runTelegramRouter(e, ctrls.Telegram)

	api := e.Group("/api")
	secureGroup := api.Group("", authMW.Auth)
	runOrderRouter(secureGroup, ctrls.Order)

	loggers.Main.Info("InitRouter: Маршруты созданы")
}
