package tabletop

import (
	"fmt"
	"os"
	"time"
)

// debugLog prints per-frame compile/submit timing and op counts to stderr.
// Only called when the engine's debug mode is on.
func (e *Engine) debugLog(compileTime, submitTime time.Duration) {
	_, _ = fmt.Fprintf(os.Stderr,
		"[tabletop] compile: %v | submit: %v | total: %v\n",
		compileTime, submitTime, compileTime+submitTime)
	_, _ = fmt.Fprintf(os.Stderr,
		"[tabletop] ops: %d | tokens drawn: %d | skipped: %d\n",
		e.stats.ops, e.stats.tokensDrawn, e.stats.tokensSkipped)
}
