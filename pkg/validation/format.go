// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/iwvelando/paysplit/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	switch format {
	case constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON:
		return nil
	}
	return fmt.Errorf("expected output format of %s, %s or %s, got %s",
		constants.OutputFormatPretty, constants.OutputFormatCSV, constants.OutputFormatJSON, format)
}

// ValidateHistoryBackend checks if the history backend is supported.
func ValidateHistoryBackend(backend string) error {
	if backend != constants.HistoryBackendCSV && backend != constants.HistoryBackendSQLite {
		return fmt.Errorf("expected history backend of %s or %s, got %s",
			constants.HistoryBackendCSV, constants.HistoryBackendSQLite, backend)
	}
	return nil
}
