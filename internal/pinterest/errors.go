package pinterest

import (
	"errors"
	"fmt"
	"strings"
)

// Validation and lookup errors.
var (
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrMissingUpdateData    = errors.New("update data is required")
	ErrInvalidPrivacy       = errors.New("invalid board privacy")
	ErrNotFound             = errors.New("resource not found")
)

// UnsupportedOperationError is returned before any work starts when an
// operation is not one of get, update or delete.
type UnsupportedOperationError struct {
	Resource  string
	Operation Operation
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("Unsupported %s operation: %s", e.Resource, e.Operation)
}

// Is makes errors.Is(err, ErrUnsupportedOperation) hold.
func (e *UnsupportedOperationError) Is(target error) bool {
	return target == ErrUnsupportedOperation
}

// ParseOperation converts user input to an Operation.
func ParseOperation(resource, s string) (Operation, error) {
	op := Operation(strings.ToLower(strings.TrimSpace(s)))
	for _, supported := range Operations() {
		if op == supported {
			return op, nil
		}
	}
	return "", &UnsupportedOperationError{Resource: resource, Operation: Operation(s)}
}

func missingUpdate(resource string) error {
	return fmt.Errorf("%w: %s update needs at least one field", ErrMissingUpdateData, resource)
}

func notFound(resource, id string) error {
	return fmt.Errorf("%s %q: %w", resource, id, ErrNotFound)
}

// validatePrivacy accepts the board privacy values, case-insensitively.
func validatePrivacy(privacy string) (string, error) {
	upper := strings.ToUpper(privacy)
	switch upper {
	case PrivacyPublic, PrivacySecret, PrivacyProtect:
		return upper, nil
	}
	return "", fmt.Errorf("%w: %q (want %s, %s or %s)",
		ErrInvalidPrivacy, privacy, PrivacyPublic, PrivacySecret, PrivacyProtect)
}
