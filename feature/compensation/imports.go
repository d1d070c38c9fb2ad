package compensation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"salary-tracker/core/reconcile"
)

// ErrInvalidImport marks a payroll export that cannot be decoded.
var ErrInvalidImport = errors.New("invalid payroll export")

// importEnvelope is the wrapped export format: {"compensations": [...]}.
type importEnvelope struct {
	Compensations []reconcile.ProviderRecord `json:"compensations"`
}

// DecodeImport parses a payroll export. It accepts either a bare JSON array of
// provider records or an object with a "compensations" array.
func DecodeImport(data []byte) ([]reconcile.ProviderRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidImport)
	}

	if data[0] == '[' {
		var records []reconcile.ProviderRecord
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
		}
		return records, nil
	}

	var env importEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if env.Compensations == nil {
		return nil, fmt.Errorf("%w: no compensations array", ErrInvalidImport)
	}
	return env.Compensations, nil
}
