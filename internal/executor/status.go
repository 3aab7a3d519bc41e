package executor

import (
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/unit"
)

func (e *Executor) transition(name string, next unit.Status) error {
	cur := e.Status(name)
	if !cur.CanTransition(next) {
		return fmt.Errorf("executor: unit %q cannot move from %s to %s", name, cur, next)
	}
	e.statuses.Store(name, next)
	return nil
}
