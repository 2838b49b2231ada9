// Package ledger implements the hub's authoritative per-validator bonded
// amount map (spec.md §4.B), a builder-style value type: every mutation
// returns a new Ledger rather than mutating in place, mirroring the
// teacher's vms/platformvm/state diff-oriented stakers.
package ledger

import (
	"fmt"

	"github.com/erisprotocol/alliancehub/internal/stakehub/hubtypes"
)

// Delegation is a validator/amount delta applied by Delegate, Undelegate
// or used as one leg of a Redelegation.
type Delegation struct {
	Validator string
	Amount    uint64
}

// Redelegation moves Amount from Src to Dst atomically.
type Redelegation struct {
	Src, Dst string
	Amount   uint64
}

// Ledger is the validator -> bonded-amount map. Entries that reach zero
// are retained (so a validator's history is visible) but Sum only counts
// what's left, so I2 (Σ delegations = total_utoken_bonded) holds either
// way, per spec.md §4.B.
type Ledger struct {
	byValidator map[string]uint64
}

// New returns an empty ledger.
func New() Ledger {
	return Ledger{byValidator: map[string]uint64{}}
}

// FromMap builds a ledger from an existing snapshot (used by the store
// facade when loading state, and by the slashing adjuster when
// replacing the ledger wholesale).
func FromMap(m map[string]uint64) Ledger {
	cp := make(map[string]uint64, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return Ledger{byValidator: cp}
}

// ToMap returns a defensive copy of the underlying map, for persistence.
func (l Ledger) ToMap() map[string]uint64 {
	cp := make(map[string]uint64, len(l.byValidator))
	for k, v := range l.byValidator {
		cp[k] = v
	}
	return cp
}

// Get returns the bonded amount for validator (0 if absent).
func (l Ledger) Get(validator string) uint64 {
	return l.byValidator[validator]
}

// Len returns the number of validator entries, including zeroed ones —
// matches the "number of validator entries" check in CheckSlashing
// (spec.md §4.E).
func (l Ledger) Len() int {
	return len(l.byValidator)
}

// Sum returns the total bonded across all validators.
func (l Ledger) Sum() uint64 {
	var total uint64
	for _, v := range l.byValidator {
		total += v
	}
	return total
}

func (l Ledger) clone() Ledger {
	cp := make(map[string]uint64, len(l.byValidator))
	for k, v := range l.byValidator {
		cp[k] = v
	}
	return Ledger{byValidator: cp}
}

// Delegate increments a single validator's bonded amount and returns the
// updated ledger.
func (l Ledger) Delegate(d Delegation) Ledger {
	cp := l.clone()
	cp.byValidator[d.Validator] += d.Amount
	return cp
}

// Undelegate decrements each listed validator's bonded amount. Returns
// ErrValidatorNotFound if a validator is absent, or
// ErrInsufficientBalance if the decrement would go negative.
func (l Ledger) Undelegate(deltas []Delegation) (Ledger, error) {
	cp := l.clone()
	for _, d := range deltas {
		cur, ok := cp.byValidator[d.Validator]
		if !ok {
			return l, fmt.Errorf("%w: %s", hubtypes.ErrValidatorNotFound, d.Validator)
		}
		if cur < d.Amount {
			return l, fmt.Errorf("%w: validator %s has %d, undelegating %d", hubtypes.ErrInsufficientBalance, d.Validator, cur, d.Amount)
		}
		cp.byValidator[d.Validator] = cur - d.Amount
	}
	return cp, nil
}

// Redelegate moves amount from Src to Dst for each entry, atomically:
// either every move succeeds or none of them are applied.
func (l Ledger) Redelegate(moves []Redelegation) (Ledger, error) {
	cp := l.clone()
	for _, m := range moves {
		cur, ok := cp.byValidator[m.Src]
		if !ok {
			return l, fmt.Errorf("%w: %s", hubtypes.ErrValidatorNotFound, m.Src)
		}
		if cur < m.Amount {
			return l, fmt.Errorf("%w: validator %s has %d, redelegating %d", hubtypes.ErrInsufficientBalance, m.Src, cur, m.Amount)
		}
		cp.byValidator[m.Src] = cur - m.Amount
		cp.byValidator[m.Dst] += m.Amount
	}
	return cp, nil
}
