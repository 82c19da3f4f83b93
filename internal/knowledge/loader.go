// Package knowledge loads the product knowledge document that grounds
// open-ended support replies.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads the product knowledge JSON file and returns it re-marshalled
// as a compact string for embedding into a model prompt. A missing or
// unreadable file is an error; the caller decides whether to boot without
// knowledge-based replies.
func Load(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read product knowledge: %w", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("product knowledge is not valid JSON: %w", err)
	}

	compact, err := json.Marshal(parsed)
	if err != nil {
		return "", fmt.Errorf("failed to re-marshal product knowledge: %w", err)
	}
	return string(compact), nil
}
