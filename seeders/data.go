package seeders

import "github.com/Lightthouse/stirki/internal/entities"

var streetsData = []string{
	"Новорождественская",
	"Мытищинская",
}

func statusesData() []string {
	out := make([]string, 0, len(entities.AllOrderStatuses))
	for _, s := range entities.AllOrderStatuses {
		out = append(out, string(s))
	}
	return out
}
