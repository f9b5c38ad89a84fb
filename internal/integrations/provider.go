package integrations

import "github.com/Lightthouse/stirki/internal/kanban"

// BoardProvider - именованная реализация канбан-доски.
type BoardProvider interface {
	Name() string
	kanban.Board
}
