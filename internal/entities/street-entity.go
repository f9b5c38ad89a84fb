package entities

type Street struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
