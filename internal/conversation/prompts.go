package conversation

import (
	"fmt"
	"strings"

	"github.com/Lightthouse/stirki/internal/entities"
	"github.com/Lightthouse/stirki/internal/pricing"
)

const (
	CallbackOrder      = "order"
	CallbackClientOK   = "client_ok"
	CallbackClientEdit = "client_edit"
	CallbackConfirm    = "confirm"
	CallbackCancel     = "cancel"
	CallbackPaidYes    = "paid_yes"
	CallbackPaidNo     = "paid_no"
	callbackStreet     = "street:"

	ButtonOrder   = "🧺 Заказать стирку"
	ButtonContact = "📞 Поделиться номером"
	ButtonDone    = "Готово"
)

const (
	textWelcome = "Привет! Мы забираем вещи, стираем до 3 кг и привозим обратно.\n" +
		"Нажмите кнопку ниже, чтобы оформить заказ."
	textHelp = "Команды:\n/start - начать заново\n/cancel - отменить оформление\n/help - эта подсказка"
	textAskPhone     = "Поделитесь номером телефона кнопкой ниже или напишите его в формате +7XXXXXXXXXX."
	textBadPhone     = "Не получилось распознать номер. Пример: +79991234567."
	textAskName      = "Как к вам обращаться?"
	textBadName      = "Имя должно быть от 2 до 64 символов."
	textAskStreet    = "Выберите улицу:"
	textBadStreet    = "Выберите улицу кнопкой из списка."
	textAskHouse     = "Номер дома:"
	textBadHouse     = "Номер дома должен быть от 1 до 16 символов."
	textAskApartment = "Номер квартиры:"
	textBadApartment = "Номер квартиры должен быть от 1 до 10 символов."
	textAskEntrance  = "Номер подъезда:"
	textBadEntrance  = "Номер подъезда должен быть от 1 до 10 символов."
	textAskServices  = "Выберите дополнительные услуги. Повторное нажатие снимает выбор.\nКогда закончите, нажмите «Готово»."
	textUseButtons   = "Пожалуйста, воспользуйтесь кнопками под сообщением."
	textConfirm      = "Всё верно? Подтвердите заказ:"
	textServicesHint = "Продолжайте выбор или нажмите «Готово»."
	textPayment      = "Заказ #%d на %d ₽ создан.\nВы оплатили заказ?"
	textPaid         = "Спасибо! Заказ #%d на %d ₽ оплачен, курьер свяжется с вами."
	textOrderCancel  = "Заказ #%d отменён."
	textCanceled     = "Оформление отменено. Чтобы начать заново, нажмите /start."
	textAddressGap   = "В адресе не хватает улицы или дома. Давайте уточним адрес."
	textInternal     = "❌ Внутренняя ошибка. Попробуйте позже или начните заново: /start"
)

func welcomeMessage() Message {
	return Message{Text: textWelcome, Inline: [][]Button{{{Text: ButtonOrder, Data: CallbackOrder}}}}
}

func phoneMessage(text string) Message {
	return Message{Text: text, RequestContact: ButtonContact}
}

func reuseMessage(client *entities.Client) Message {
	text := fmt.Sprintf("Мы вас помним!\n\nИмя: %s\nТелефон: %s\nАдрес: %s\n\nВсё верно?",
		client.Name.String, client.Phone, formatAddress(client.StreetName.String, client.House, client.Apartment.String, client.Entrance.String))
	return Message{Text: text, Inline: reuseButtons()}
}

func reuseButtons() [][]Button {
	return [][]Button{{
		{Text: "✅ Всё верно", Data: CallbackClientOK},
		{Text: "✏️ Изменить", Data: CallbackClientEdit},
	}}
}

func streetsMessage(text string, streets []entities.Street) Message {
	rows := make([][]Button, 0, len(streets))
	for _, street := range streets {
		rows = append(rows, []Button{{Text: street.Name, Data: fmt.Sprintf("%s%d", callbackStreet, street.ID)}})
	}
	return Message{Text: text, Inline: rows}
}

// servicesMessage - клавиатура услуг с отметками и живой чек.
func servicesMessage(text string, sel pricing.Selection) Message {
	rows := make([][]string, 0, len(pricing.AddOns)/2+2)
	for i := 0; i < len(pricing.AddOns); i += 2 {
		row := []string{sel.Label(pricing.AddOns[i])}
		if i+1 < len(pricing.AddOns) {
			row = append(row, sel.Label(pricing.AddOns[i+1]))
		}
		rows = append(rows, row)
	}
	rows = append(rows, []string{ButtonDone})
	return Message{Text: text, Reply: rows}
}

// summaryMessage убирает клавиатуру услуг и показывает итог заказа.
func summaryMessage(s *Session, quote pricing.Quote) Message {
	var b strings.Builder
	b.WriteString("Проверьте заказ:\n\n")
	fmt.Fprintf(&b, "Имя: %s\n", s.Name)
	fmt.Fprintf(&b, "Телефон: %s\n", s.Phone)
	fmt.Fprintf(&b, "Адрес: %s\n\n", formatAddress(s.StreetName, s.House, s.Apartment, s.Entrance))
	b.WriteString(quote.Receipt)
	return Message{Text: b.String(), RemoveKeyboard: true}
}

func confirmMessage(text string) Message {
	return Message{Text: text, Inline: [][]Button{{
		{Text: "✅ Подтвердить", Data: CallbackConfirm},
		{Text: "❌ Отменить", Data: CallbackCancel},
	}}}
}

func paymentMessage(text string) Message {
	return Message{Text: text, Inline: [][]Button{{
		{Text: "✅ Да", Data: CallbackPaidYes},
		{Text: "❌ Нет", Data: CallbackPaidNo},
	}}}
}

func formatAddress(street, house, apartment, entrance string) string {
	parts := []string{street}
	if house != "" {
		parts = append(parts, "дом "+house)
	}
	if apartment != "" {
		parts = append(parts, "кв. "+apartment)
	}
	if entrance != "" {
		parts = append(parts, "подъезд "+entrance)
	}
	return strings.Join(parts, ", ")
}
