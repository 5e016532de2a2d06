package logging

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/Gobusters/ectologger"
)

// New returns a logger that writes each entry as a single JSON line to stdout.
func New() ectologger.Logger {
	var mu sync.Mutex
	enc := json.NewEncoder(os.Stdout)

	return ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {
		mu.Lock()
		defer mu.Unlock()
		_ = enc.Encode(msg)
	})
}
