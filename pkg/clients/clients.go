// Package clients provides HTTP clients for the platform services. They are
// used by the ingestion orchestrator to resolve and create entities.
package clients

import (
	"encoding/json"
	"fmt"
)

// createEnvelope tolerates both enveloped ({"data": {...}}) and bare entity
// create responses.
type createEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// decodeCreated unmarshals a create response body into dest, unwrapping a
// "data" envelope when present.
func decodeCreated(body []byte, dest any) error {
	var env createEnvelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		body = env.Data
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to decode create response: %w", err)
	}
	return nil
}

// listPageSize is the page size used when walking paginated listings
const listPageSize = 100
