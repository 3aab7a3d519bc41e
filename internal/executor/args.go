package executor

import (
	"fmt"

	"github.com/specialistvlad/deploygrid/internal/ledger"
	"github.com/specialistvlad/deploygrid/internal/unit"
)

// ResolveArgs returns u's constructor arguments with every reference replaced
// by the referenced unit's address from l. Literals pass through unchanged.
// It reads l only, so calling it twice against the same ledger state yields
// equal results.
func ResolveArgs(u *unit.Unit, l *ledger.Ledger) ([]any, error) {
	args := make([]any, len(u.Args))
	for i, a := range u.Args {
		if !a.IsRef() {
			args[i] = a.Value()
			continue
		}
		r, err := l.Lookup(a.Ref())
		if err != nil {
			return nil, fmt.Errorf("argument %d of unit %q: %w", i, u.Name, err)
		}
		args[i] = r.Address
	}
	return args, nil
}
