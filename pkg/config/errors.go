package config

import (
	"fmt"
	"strings"
)

// SchemaError reports a single violated configuration constraint. Path is the
// dotted field path, e.g. "auth.required_env_vars".
type SchemaError struct {
	Path   string
	Reason string
}

func (e SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config: %s: %s", e.Path, e.Reason)
}

// SchemaErrorList accumulates every violation found in a single validation
// pass. Validation never stops at the first violation.
type SchemaErrorList []SchemaError

func (l SchemaErrorList) Error() string {
	if len(l) == 0 {
		return "config: no schema errors"
	}
	msgs := make([]string, 0, len(l))
	for _, e := range l {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
