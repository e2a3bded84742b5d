package assistant

import (
	"errors"
	"testing"
)

func TestResolveLanguageDetectsScript(t *testing.T) {
	cases := map[string]string{
		"நான் என் வயலில் நெல் பயிரிடுகிறேன், எப்போது உரம் போட வேண்டும்?": "ta",
		"હું મારા ખેતરમાં કપાસ ઉગાડું છું, ક્યારે પાણી આપવું જોઈએ?":      "gu",
	}
	for text, want := range cases {
		got, err := ResolveLanguage(LanguageAuto, text)
		if err != nil {
			t.Fatalf("ResolveLanguage err: %v", err)
		}
		if got != want {
			t.Fatalf("ResolveLanguage(%q) = %s, want %s", text, got, want)
		}
	}
}

func TestResolveLanguageFallsBackToHindi(t *testing.T) {
	got, err := ResolveLanguage("", "")
	if err != nil {
		t.Fatalf("ResolveLanguage err: %v", err)
	}
	if got != DefaultLanguage {
		t.Fatalf("expected fallback %s, got %s", DefaultLanguage, got)
	}
}

func TestResolveLanguageExplicit(t *testing.T) {
	if got, _ := ResolveLanguage(" MR ", "anything"); got != "mr" {
		t.Fatalf("expected mr, got %s", got)
	}
	if _, err := ResolveLanguage("fr", "bonjour"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Fatalf("expected ErrUnsupportedLanguage, got %v", err)
	}
}
