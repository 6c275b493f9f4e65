package safety

import (
	"testing"
)

func TestDetectMatchesLexiconTerms(t *testing.T) {
	t.Parallel()

	d := New()

	inputs := []string{
		"I want to die",
		"sometimes I think about suicide",
		"I've been considering self-harm lately",
		"i might hurt someone",
		"I just want to end my life",
	}
	for _, input := range inputs {
		if !d.Detect(input) {
			t.Errorf("Detect(%q) = false, want true", input)
		}
	}
}

func TestDetectIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	d := New()

	if !d.Detect("I WANT TO DIE") {
		t.Error("expected uppercase crisis text to be detected")
	}
	if !d.Detect("Self-Harm is on my mind") {
		t.Error("expected mixed-case crisis text to be detected")
	}
}

func TestDetectIgnoresSafeText(t *testing.T) {
	t.Parallel()

	d := New()

	inputs := []string{
		"",
		"hello, how are you?",
		"I'm stressed about my exams",
		"can we talk about sleep habits",
	}
	for _, input := range inputs {
		if d.Detect(input) {
			t.Errorf("Detect(%q) = true, want false", input)
		}
	}
}

func TestDetectWithExtraTerms(t *testing.T) {
	t.Parallel()

	d := New("desperate", "  Hopeless  ", "")

	if !d.Detect("I feel completely HOPELESS") {
		t.Error("expected operator-supplied term to be detected")
	}
	if !d.Detect("I am desperate") {
		t.Error("expected extra term to be detected")
	}
	if d.Detect("I am fine") {
		t.Error("expected safe text to pass")
	}
}
