package kanban

import (
	"fmt"
	"strings"

	"github.com/aarondl/null/v8"

	"github.com/Lightthouse/stirki/internal/entities"
)

const emptyValue = "—"

// BuildCard собирает заголовок, описание и теги карточки из снимка заказа и клиента.
func BuildCard(order entities.Order, client entities.Client) Card {
	title := fmt.Sprintf("Заказ #%d", order.ID)

	selected := order.Services.Selection().Selected()
	tags := make([]string, 0, len(selected))
	var addOns strings.Builder
	for i, svc := range selected {
		tags = append(tags, svc.Title())
		fmt.Fprintf(&addOns, "%d. %s\n", i+1, svc.Title())
	}
	if len(selected) == 0 {
		addOns.WriteString("нет\n")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", title)
	fmt.Fprintf(&b, "- Адрес: %s, дом %s, квартира %s, подъезд %s, этаж %s\n",
		orDash(order.StreetName), order.House, orDash(order.Apartment), orDash(order.Entrance), orDash(order.Floor))
	fmt.Fprintf(&b, "- Телефон: %s\n", orDashString(client.Phone))
	fmt.Fprintf(&b, "- Имя: %s\n", orDash(client.Name))
	fmt.Fprintf(&b, "- Телеграм id: %d\n", client.TelegramID)
	fmt.Fprintf(&b, "- Стоимость: %d руб\n", order.TotalPrice)
	fmt.Fprintf(&b, "- Комментарий: %s\n\n", orDash(order.Comment))
	b.WriteString("**Дополнительно**\n")
	b.WriteString(addOns.String())

	return Card{Title: title, Description: b.String(), Tags: tags}
}

func orDash(s null.String) string {
	if !s.Valid {
		return emptyValue
	}
	return orDashString(s.String)
}

func orDashString(s string) string {
	if strings.TrimSpace(s) == "" {
		return emptyValue
	}
	return s
}
