package autopilot

import (
	"context"
	"fmt"
	"strings"

	"github.com/tabops/tabpilot/internal/ai"
	"github.com/tabops/tabpilot/internal/jsonx"
	"github.com/tabops/tabpilot/internal/logging"
	"github.com/tabops/tabpilot/internal/tabs"
)

// categorizeChunkSize bounds how many tabs one prompt carries, keeping
// the response small enough to stay well-formed on small local models.
const categorizeChunkSize = 25

// CategorizeWithAI asks the gateway to assign each tab a category from
// the known set, in chunks. Returns tab ID to category. A failed chunk
// is skipped and earlier results kept; rule-based categorization is
// the caller's fallback for missing entries.
func CategorizeWithAI(ctx context.Context, gateway *ai.Gateway, all []tabs.Tab) (map[string]string, error) {
	if gateway == nil {
		return nil, fmt.Errorf("no AI gateway configured")
	}

	out := make(map[string]string)
	for start := 0; start < len(all); start += categorizeChunkSize {
		end := start + categorizeChunkSize
		if end > len(all) {
			end = len(all)
		}
		chunk := all[start:end]

		assigned, err := categorizeChunk(ctx, gateway, chunk)
		if err != nil {
			logging.Warnf("AI categorization chunk %d-%d failed: %v", start, end, err)
			continue
		}
		for id, cat := range assigned {
			out[id] = cat
		}
	}
	return out, nil
}

func categorizeChunk(ctx context.Context, gateway *ai.Gateway, chunk []tabs.Tab) (map[string]string, error) {
	var b strings.Builder
	b.WriteString("Assign each browser tab one category from this list: ")
	b.WriteString(strings.Join(tabs.Categories(), ", "))
	b.WriteString(".\nReply with only a JSON object mapping tab id to category, no other text.\n\nTabs:\n")
	for _, t := range chunk {
		fmt.Fprintf(&b, "%s: %s (%s)\n", t.ID, t.Title, t.URL)
	}

	reply, err := gateway.Prompt(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if !jsonx.ExtractInto(reply, &raw) {
		return nil, fmt.Errorf("no JSON object in categorization reply")
	}

	known := make(map[string]bool, len(chunk))
	for _, t := range chunk {
		known[t.ID] = true
	}

	out := make(map[string]string)
	for id, cat := range raw {
		if !known[id] {
			continue
		}
		if !tabs.IsKnownCategory(cat) {
			logging.Debugf("dropping unknown AI category %q for tab %s", cat, id)
			continue
		}
		out[id] = cat
	}
	return out, nil
}
