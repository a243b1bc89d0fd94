package normalize

import (
	"errors"
	"fmt"
)

// ErrSchema is wrapped by every SchemaError.
var ErrSchema = errors.New("unrecognized match schema")

// SchemaError reports a payload whose identity fields cannot be resolved.
// It is fatal for that one match only.
type SchemaError struct {
	MatchID string
	Field   string
	Reason  string
}

func (e *SchemaError) Error() string {
	if e.MatchID == "" {
		return fmt.Sprintf("schema: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("schema: match %s: %s: %s", e.MatchID, e.Field, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }
