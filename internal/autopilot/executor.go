package autopilot

import (
	"context"
	"fmt"

	"github.com/tabops/tabpilot/internal/logging"
	"github.com/tabops/tabpilot/internal/tabs"
)

// Executor applies report recommendations against the live inventory.
type Executor struct {
	inv tabs.Inventory
}

// NewExecutor creates an executor over inv.
func NewExecutor(inv tabs.Inventory) *Executor {
	return &Executor{inv: inv}
}

// ExecuteCleanup closes the given tabs one at a time and returns how
// many closed. Individual failures are logged and skipped; closing a
// tab that is already gone counts as success. Returns an error only
// when every close failed.
func (x *Executor) ExecuteCleanup(ctx context.Context, tabIDs []string) (int, error) {
	if len(tabIDs) == 0 {
		return 0, nil
	}

	closed := 0
	var lastErr error
	for _, id := range tabIDs {
		if err := x.inv.Close(ctx, id); err != nil {
			logging.Warnf("failed to close tab %s: %v", id, err)
			lastErr = err
			continue
		}
		closed++
	}

	if closed == 0 && lastErr != nil {
		return 0, fmt.Errorf("cleanup failed: %w", lastErr)
	}
	logging.Infof("cleanup closed %d of %d tabs", closed, len(tabIDs))
	return closed, nil
}

// ExecuteGrouping applies the group suggestions. Suggestions with
// fewer than two tabs are skipped. Returns the number of tabs placed
// into groups.
func (x *Executor) ExecuteGrouping(ctx context.Context, suggestions []GroupSuggestion) (int, error) {
	grouped := 0
	for _, sg := range suggestions {
		if len(sg.TabIDs) < 2 {
			continue
		}
		if _, err := x.inv.Group(ctx, sg.TabIDs, sg.Name); err != nil {
			logging.Warnf("failed to group %d tabs as %q: %v", len(sg.TabIDs), sg.Name, err)
			continue
		}
		grouped += len(sg.TabIDs)
	}
	return grouped, nil
}
