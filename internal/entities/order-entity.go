package entities

import (
	"time"

	"github.com/aarondl/null/v8"

	"github.com/Lightthouse/stirki/internal/pricing"
)

// ServiceFlags - включённые дополнительные услуги заказа.
type ServiceFlags struct {
	Ironing     bool `json:"ironing"`
	Conditioner bool `json:"conditioner"`
	VacuumPack  bool `json:"vacuum_pack"`
	UV          bool `json:"uv"`
	WashBag     bool `json:"wash_bag"`
	ExactTime   bool `json:"exact_time"`
}

// Order хранит снимок адреса клиента на момент создания
// и зафиксированную цену.
type Order struct {
	ID             int64           `json:"id"`
	ClientID       int64           `json:"client_id"`
	Status         OrderStatusName `json:"status"`
	StreetID       null.Int64      `json:"street_id"`
	StreetName     null.String     `json:"street_name"`
	House          string          `json:"house"`
	Apartment      null.String     `json:"apartment"`
	Entrance       null.String     `json:"entrance"`
	Floor          null.String     `json:"floor"`
	Comment        null.String     `json:"comment"`
	WeightKg       int             `json:"weight_kg"`
	Services       ServiceFlags    `json:"services"`
	TotalPrice     int             `json:"total_price"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	ExternalCardID null.Int64      `json:"external_card_id"`
	ChatID         null.Int64      `json:"chat_id"`
	MessageID      null.Int64      `json:"message_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (f ServiceFlags) Selection() pricing.Selection {
	sel := pricing.Selection{}
	set := func(on bool, svc pricing.Service) {
		if on {
			sel[svc] = true
		}
	}
	set(f.Ironing, pricing.Ironing)
	set(f.Conditioner, pricing.Conditioner)
	set(f.VacuumPack, pricing.VacuumPack)
	set(f.UV, pricing.UV)
	set(f.WashBag, pricing.WashBag)
	set(f.ExactTime, pricing.ExactTime)
	return sel
}

func FlagsFromSelection(sel pricing.Selection) ServiceFlags {
	return ServiceFlags{
		Ironing:     sel.Has(pricing.Ironing),
		Conditioner: sel.Has(pricing.Conditioner),
		VacuumPack:  sel.Has(pricing.VacuumPack),
		UV:          sel.Has(pricing.UV),
		WashBag:     sel.Has(pricing.WashBag),
		ExactTime:   sel.Has(pricing.ExactTime),
	}
}
