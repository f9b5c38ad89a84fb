// Package pricing считает стоимость заказа и текст чека по набору услуг.
// Все функции чистые: одинаковый набор услуг всегда даёт одинаковый результат.
package pricing

import (
	"fmt"
	"strings"

	apperrors "github.com/Lightthouse/stirki/pkg/errors"
)

type Service string

const (
	Base        Service = "base"
	Ironing     Service = "ironing"
	Conditioner Service = "conditioner"
	VacuumPack  Service = "vacuum_pack"
	ExactTime   Service = "exact_time"
	UV          Service = "uv"
	WashBag     Service = "wash_bag"
)

// Цены в рублях.
var servicePrices = map[Service]int{
	Base:        990,
	Ironing:     990,
	Conditioner: 200,
	VacuumPack:  400,
	ExactTime:   300,
	UV:          300,
	WashBag:     300,
}

var serviceTitles = map[Service]string{
	Base:        "Стирка до 3 кг",
	Ironing:     "Глажка",
	Conditioner: "Кондиционер",
	VacuumPack:  "Вакуумная упаковка",
	ExactTime:   "Доставка к точному времени",
	UV:          "Ультрафиолет",
	WashBag:     "Мешок для стирки",
}

// AddOns - дополнительные услуги в порядке показа в чеке и на клавиатуре.
var AddOns = []Service{Ironing, Conditioner, VacuumPack, UV, WashBag, ExactTime}

// Price возвращает цену услуги. Ненастроенная услуга - ошибка, а не ноль.
func Price(s Service) (int, error) {
	price, ok := servicePrices[s]
	if !ok {
		return 0, fmt.Errorf("услуга %q: %w", string(s), apperrors.ErrPriceNotConfigured)
	}
	return price, nil
}

func (s Service) Title() string {
	if title, ok := serviceTitles[s]; ok {
		return title
	}
	return string(s)
}

// ParseTitle находит услугу по подписи кнопки, игнорируя отметку выбора.
func ParseTitle(text string) (Service, bool) {
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), SelectedMark))
	for _, s := range AddOns {
		if serviceTitles[s] == text {
			return s, true
		}
	}
	return "", false
}

// Line - строка чека по одной выбранной услуге.
type Line struct {
	Service Service
	Title   string
	Price   int
}

type Quote struct {
	Base    int
	Lines   []Line
	Total   int
	Receipt string
}

// QuoteFor считает итог: базовая стирка плюс каждая выбранная услуга.
func QuoteFor(sel Selection) (Quote, error) {
	base, err := Price(Base)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{Base: base, Total: base}
	for _, s := range sel.Selected() {
		price, err := Price(s)
		if err != nil {
			return Quote{}, err
		}
		q.Lines = append(q.Lines, Line{Service: s, Title: s.Title(), Price: price})
		q.Total += price
	}
	q.Receipt = renderReceipt(q)
	return q, nil
}

func renderReceipt(q Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d ₽\n", Base.Title(), q.Base)
	for _, line := range q.Lines {
		fmt.Fprintf(&b, "+ %s: %d ₽\n", line.Title, line.Price)
	}
	fmt.Fprintf(&b, "Итого: %d ₽", q.Total)
	return b.String()
}
