package jsonx

import (
	"testing"
)

func TestExtractPlainObject(t *testing.T) {
	raw, ok := Extract(`{"a": 1}`)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if raw != `{"a": 1}` {
		t.Errorf("unexpected extraction: %s", raw)
	}
}

func TestExtractFenced(t *testing.T) {
	input := "Here you go:\n```json\n{\"category\": \"Development\"}\n```\nLet me know!"
	raw, ok := Extract(input)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if raw != `{"category": "Development"}` {
		t.Errorf("unexpected extraction: %s", raw)
	}
}

func TestExtractWithProsePrefix(t *testing.T) {
	input := `Sure! The groups are: [{"name": "Development", "tabIds": ["a", "b"]}] as requested.`
	raw, ok := Extract(input)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if raw != `[{"name": "Development", "tabIds": ["a", "b"]}]` {
		t.Errorf("unexpected extraction: %s", raw)
	}
}

func TestExtractBracketsInsideStrings(t *testing.T) {
	input := `{"title": "a } tricky ] string", "n": 2}`
	raw, ok := Extract(input)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if raw != input {
		t.Errorf("unexpected extraction: %s", raw)
	}
}

func TestExtractNested(t *testing.T) {
	input := `prefix {"outer": {"inner": [1, 2, {"deep": true}]}} suffix`
	raw, ok := Extract(input)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if raw != `{"outer": {"inner": [1, 2, {"deep": true}]}}` {
		t.Errorf("unexpected extraction: %s", raw)
	}
}

func TestExtractFailures(t *testing.T) {
	cases := []string{
		"",
		"no json here",
		"{unterminated",
		`{"bad": }`, // balanced but invalid
	}
	for _, input := range cases {
		if _, ok := Extract(input); ok {
			t.Errorf("expected extraction to fail for %q", input)
		}
	}
}

func TestExtractInto(t *testing.T) {
	var m map[string]string
	if !ExtractInto("```\n{\"x\": \"y\"}\n```", &m) {
		t.Fatal("expected ExtractInto to succeed")
	}
	if m["x"] != "y" {
		t.Errorf("unexpected map: %v", m)
	}

	if ExtractInto("nothing", &m) {
		t.Error("expected ExtractInto to fail on non-JSON input")
	}
}
