package pool

import (
	"fmt"

	"github.com/holiman/uint256"
)

// inventory is the ordered set of item ids held by a pool.
type inventory struct {
	order []uint256.Int
	held  map[uint256.Int]int
}

func newInventory() *inventory {
	return &inventory{held: make(map[uint256.Int]int)}
}

func (inv *inventory) len() int { return len(inv.order) }

func (inv *inventory) has(id *uint256.Int) bool {
	_, ok := inv.held[*id]
	return ok
}

func (inv *inventory) list() []*uint256.Int {
	out := make([]*uint256.Int, len(inv.order))
	for i := range inv.order {
		out[i] = new(uint256.Int).Set(&inv.order[i])
	}
	return out
}

// first returns the n oldest ids.
func (inv *inventory) first(n int) []*uint256.Int {
	if n > len(inv.order) {
		n = len(inv.order)
	}
	out := make([]*uint256.Int, n)
	for i := 0; i < n; i++ {
		out[i] = new(uint256.Int).Set(&inv.order[i])
	}
	return out
}

// add appends ids that are not yet held. Duplicates, including ones already
// in the pool, fail the whole call.
func (inv *inventory) add(ids []*uint256.Int) error {
	if err := checkDistinct(ids); err != nil {
		return err
	}
	for _, id := range ids {
		if inv.has(id) {
			return fmt.Errorf("%w: item %s already held", ErrInvalidSwapQuantity, id.Dec())
		}
	}
	inv.put(ids)
	return nil
}

func (inv *inventory) put(ids []*uint256.Int) {
	for _, id := range ids {
		inv.held[*id] = len(inv.order)
		inv.order = append(inv.order, *id)
	}
}

// remove drops ids, all of which must be held.
func (inv *inventory) remove(ids []*uint256.Int) error {
	if err := inv.checkHeld(ids); err != nil {
		return err
	}
	inv.take(ids)
	return nil
}

func (inv *inventory) take(ids []*uint256.Int) {
	drop := make(map[uint256.Int]struct{}, len(ids))
	for _, id := range ids {
		drop[*id] = struct{}{}
	}
	kept := inv.order[:0]
	for _, id := range inv.order {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	inv.order = kept
	inv.held = make(map[uint256.Int]int, len(kept))
	for i, id := range kept {
		inv.held[id] = i
	}
}

func (inv *inventory) checkHeld(ids []*uint256.Int) error {
	if err := checkDistinct(ids); err != nil {
		return err
	}
	for _, id := range ids {
		if !inv.has(id) {
			return fmt.Errorf("%w: item %s not held", ErrInvalidSwapQuantity, id.Dec())
		}
	}
	return nil
}

func checkDistinct(ids []*uint256.Int) error {
	seen := make(map[uint256.Int]struct{}, len(ids))
	for _, id := range ids {
		if id == nil {
			return fmt.Errorf("%w: nil item id", ErrInvalidSwapQuantity)
		}
		if _, dup := seen[*id]; dup {
			return fmt.Errorf("%w: duplicate item %s", ErrInvalidSwapQuantity, id.Dec())
		}
		seen[*id] = struct{}{}
	}
	return nil
}
