package routes

import (
	"github.com/labstack/echo/v4"

	tgcontrollers "github.com/Lightthouse/stirki/internal/controllers/telegram"
)

func runTelegramRouter(e *echo.Echo, tgController *tgcontrollers.TelegramController) {
	e.POST(tgcontrollers.WebhookPath(), tgController.HandleTelegramWebhook)
}
