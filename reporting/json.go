package reporting

import (
	"encoding/json"
	"fmt"
)

// JSONFormatter renders a report as indented JSON
type JSONFormatter struct{}

// Format renders the report
func (JSONFormatter) Format(r *Report) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}
	return string(data) + "\n", nil
}
