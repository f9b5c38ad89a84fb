package contextkeys

type contextKey string

const (
	// ManagerKey - имя менеджера из JWT, который выполняет запрос.
	ManagerKey contextKey = "Manager"
)
