package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/Lightthouse/stirki/internal/controllers"
)

func runOrderRouter(secureGroup *echo.Group, orderCtrl *controllers.OrderController) {
	secureGroup.GET("/orders", orderCtrl.GetOrders)
	// export объявлен до :id, иначе echo примет "export" за id.
	secureGroup.GET("/orders/export", orderCtrl.ExportOrders)
	secureGroup.GET("/orders/:id", orderCtrl.FindOrder)
	secureGroup.PATCH("/orders/:id/status", orderCtrl.UpdateStatus)
}
