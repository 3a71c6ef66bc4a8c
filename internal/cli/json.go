package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// fprintJSON encodes v as indented JSON to w. HTML escaping is off so
// unsubscribe URLs keep their literal '&'.
func fprintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
