package intake

import (
	"context"
	"log/slog"
)

// Cache memoizes the most recent extraction. Within one turn the same
// utterance is extracted by several consumers (lead merge and slot-preference
// lookup); a single retained entry is enough to avoid issuing the extraction
// call twice for the same text. The entry is replaced, never merged, whenever
// a new text value is submitted.
//
// Each call constructs its own Cache and touches it only from that call's
// turn goroutine, so entries never cross calls and no locking is needed.
type Cache struct {
	extractor Extractor
	logger    *slog.Logger

	lastText   string
	lastResult *Result
	primed     bool
}

func NewCache(extractor Extractor, logger *slog.Logger) *Cache {
	return &Cache{
		extractor: extractor,
		logger:    logger.With(slog.String("component", "intake-cache")),
	}
}

// Extract returns the cached result when text matches the retained entry
// exactly, otherwise invokes the extractor once and replaces the entry.
// Extractor failure is recorded as a nil result: malformed or unavailable
// extraction degrades to "no findings" and is never surfaced to the caller.
func (c *Cache) Extract(ctx context.Context, text string) *Result {
	if c.primed && c.lastText == text {
		return c.lastResult
	}

	result, err := c.extractor.Extract(ctx, text)
	if err != nil {
		c.logger.Warn("lead extraction failed", slogError(err))
		result = nil
	}
	c.lastText = text
	c.lastResult = result
	c.primed = true
	return result
}
