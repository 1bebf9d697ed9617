package model

import (
	"slices"
	"testing"
)

// BinarySearch only works on sorted input, so the lists must stay sorted.
func TestChoicesAreSorted(t *testing.T) {
	if !slices.IsSorted(Languages) {
		t.Error("Languages is not sorted")
	}
	if !slices.IsSorted(Styles) {
		t.Error("Styles is not sorted")
	}
}

func TestChoiceDefaultsAreMembers(t *testing.T) {
	if !IsLanguage(DefaultLanguage) {
		t.Errorf("default language %q is not in Languages", DefaultLanguage)
	}
	if !IsStyle(DefaultStyle) {
		t.Errorf("default style %q is not in Styles", DefaultStyle)
	}
}

func TestIsLanguage(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"python", true},
		{"py", true},
		{"js", true},
		{"javascript", true},
		{"html", true},
		{"rb", true},
		{"ruby", true},
		{"ts", true},
		{"go", true},
		{"zig", true},
		{"Python", false},
		{"", false},
		{"brainfuck", false},
	}
	for _, tt := range tests {
		if got := IsLanguage(tt.name); got != tt.want {
			t.Errorf("IsLanguage(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsStyle(t *testing.T) {
	if !IsStyle("monokai") {
		t.Error("IsStyle(monokai) = false, want true")
	}
	if IsStyle("neon") {
		t.Error("IsStyle(neon) = true, want false")
	}
}
