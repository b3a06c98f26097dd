package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

// parsePayload decodes a provider payload into a generic tree. Vision and
// language models routinely wrap their JSON in markdown fences or leave
// trailing commas, so a failed strict decode goes through repair before
// giving up.
func parsePayload(payload []byte) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil, fmt.Errorf("empty payload")
	}

	var tree map[string]any
	if err := json.Unmarshal([]byte(trimmed), &tree); err == nil {
		return tree, nil
	}

	repaired, err := jsonrepair.RepairJSON(trimmed)
	if err != nil {
		return nil, fmt.Errorf("repair json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), &tree); err != nil {
		return nil, fmt.Errorf("decode repaired json: %w", err)
	}
	return tree, nil
}
