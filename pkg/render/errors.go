package render

import (
	"fmt"
	"strings"
)

// Error reports a failure to expand a single template. When Variable is set,
// the template referenced a name absent from its render context.
type Error struct {
	TemplateID string
	Variable   string
	Err        error
}

func (e *Error) Error() string {
	if e.Variable != "" {
		return fmt.Sprintf("render: template %s references %q which is not in the render context", e.TemplateID, e.Variable)
	}
	return fmt.Sprintf("render: template %s: %v", e.TemplateID, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorList accumulates every render failure in a run; rendering does not
// stop at the first failing template.
type ErrorList []*Error

func (l ErrorList) Error() string {
	if len(l) == 0 {
		return "render: no errors"
	}
	msgs := make([]string, 0, len(l))
	for _, e := range l {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}
