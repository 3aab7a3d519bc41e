package ledger

import (
	"fmt"
	"iter"
	"sync"
	"time"
)

// Result is produced once per successfully deployed unit.
type Result struct {
	// Address is the identifier dependents receive, e.g. a contract address.
	Address string
	// TxHash is the creation transaction, when the deployer reports one.
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	DeployedAt  time.Time
}

// DuplicateUnitError is returned by Record when a result already exists.
type DuplicateUnitError struct {
	Unit string
}

func (e *DuplicateUnitError) Error() string {
	return fmt.Sprintf("ledger: unit %q already has a recorded result", e.Unit)
}

// NotFoundError is returned by Lookup for a unit without a result.
type NotFoundError struct {
	Unit string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ledger: no result recorded for unit %q", e.Unit)
}

// Ledger is an append-only mapping from unit name to Result.
type Ledger struct {
	mu      sync.RWMutex
	results map[string]Result
	order   []string
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{results: make(map[string]Result)}
}

// Record stores the result for name.
func (l *Ledger) Record(name string, r Result) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.results[name]; ok {
		return &DuplicateUnitError{Unit: name}
	}
	l.results[name] = r
	l.order = append(l.order, name)
	return nil
}

// Lookup returns the result recorded for name.
func (l *Ledger) Lookup(name string) (Result, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	r, ok := l.results[name]
	if !ok {
		return Result{}, &NotFoundError{Unit: name}
	}
	return r, nil
}

// Len returns the number of recorded results.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Names returns the recorded unit names in recording order.
func (l *Ledger) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.order...)
}

// All returns a sequence of (name, result) pairs in recording order. Each
// iteration starts from the beginning and sees entries recorded before the
// iteration step reaches them.
func (l *Ledger) All() iter.Seq2[string, Result] {
	return func(yield func(string, Result) bool) {
		for i := 0; ; i++ {
			l.mu.RLock()
			if i >= len(l.order) {
				l.mu.RUnlock()
				return
			}
			name := l.order[i]
			r := l.results[name]
			l.mu.RUnlock()

			if !yield(name, r) {
				return
			}
		}
	}
}
