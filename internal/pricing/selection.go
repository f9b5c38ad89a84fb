package pricing

import "sort"

// SelectedMark ставится перед подписью выбранной услуги на клавиатуре.
const SelectedMark = "✅"

// Selection - набор включённых дополнительных услуг.
type Selection map[Service]bool

// Toggle переключает ровно одну услугу.
func (s Selection) Toggle(svc Service) {
	if s[svc] {
		delete(s, svc)
		return
	}
	s[svc] = true
}

func (s Selection) Has(svc Service) bool {
	return s[svc]
}

// Selected возвращает выбранные услуги в порядке AddOns.
// Незнакомые идентификаторы идут в конце по алфавиту.
func (s Selection) Selected() []Service {
	known := make(map[Service]bool, len(AddOns))
	out := make([]Service, 0, len(s))
	for _, svc := range AddOns {
		known[svc] = true
		if s[svc] {
			out = append(out, svc)
		}
	}

	var unknown []string
	for svc, on := range s {
		if on && !known[svc] {
			unknown = append(unknown, string(svc))
		}
	}
	sort.Strings(unknown)
	for _, svc := range unknown {
		out = append(out, Service(svc))
	}
	return out
}

func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for svc, on := range s {
		if on {
			out[svc] = true
		}
	}
	return out
}

// Label - подпись кнопки с отметкой, если услуга выбрана.
func (s Selection) Label(svc Service) string {
	if s[svc] {
		return SelectedMark + " " + svc.Title()
	}
	return svc.Title()
}
