package output

import (
	"strings"
	"testing"
)

func TestCheckPythonStructure_ValidSource(t *testing.T) {
	source := `"""Module docstring with (unbalanced) brackets ] inside."""

import os


def records(payload: dict) -> list[dict]:
    # comment with a stray ( paren
    out = []
    for item in payload.get("data", []):
        out.append({"cost/cost": item["cost"]})
    return out
`
	if err := checkPythonStructure([]byte(source)); err != nil {
		t.Fatalf("valid source flagged: %v", err)
	}
}

func TestCheckPythonStructure_UnbalancedCloser(t *testing.T) {
	source := "x = (1 + 2))\n"
	err := checkPythonStructure([]byte(source))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("error should carry the line number: %v", err)
	}
}

func TestCheckPythonStructure_MismatchedPair(t *testing.T) {
	if err := checkPythonStructure([]byte("x = [1, 2)\n")); err == nil {
		t.Fatalf("expected mismatch error")
	}
}

func TestCheckPythonStructure_UnclosedAtEOF(t *testing.T) {
	err := checkPythonStructure([]byte("def f():\n    return {\n"))
	if err == nil || !strings.Contains(err.Error(), "unclosed") {
		t.Fatalf("expected unclosed error, got %v", err)
	}
}

func TestCheckPythonStructure_StringsAreOpaque(t *testing.T) {
	source := "s = \"a ( string with } brackets\"\nt = 'another ] one'\n"
	if err := checkPythonStructure([]byte(source)); err != nil {
		t.Fatalf("brackets inside strings flagged: %v", err)
	}
}

func TestCheckPythonStructure_TripleQuoted(t *testing.T) {
	source := "doc = \"\"\"\nmultiline ( with } stray ] delimiters\n\"\"\"\n"
	if err := checkPythonStructure([]byte(source)); err != nil {
		t.Fatalf("triple-quoted string flagged: %v", err)
	}
}

func TestCheckPythonStructure_UnterminatedString(t *testing.T) {
	err := checkPythonStructure([]byte("x = 1\ny = \"oops\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("expected unterminated string on line 2, got %v", err)
	}
}

func TestCheckPythonStructure_EscapedQuote(t *testing.T) {
	if err := checkPythonStructure([]byte(`x = "quote \" inside"` + "\n")); err != nil {
		t.Fatalf("escaped quote flagged: %v", err)
	}
}
