// Package analysis provides functionality for analyzing partner reports.
// It maps report severities to the reputation impact they carry.
package analysis

import "pairgo/backend/internal/config"

// GetWeight returns the reputation penalty for a given report severity.
// It returns 0 if the severity is not recognized.
func GetWeight(severity string) int {
	return config.ReportWeights[severity]
}
