package util

import "testing"

func TestNormalizeSurface(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "CNN", "cnn"},
		{"collapses whitespace", "  Support   Vector\tMachine ", "support vector machine"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeSurface(tt.in); got != tt.want {
				t.Errorf("NormalizeSurface(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"words", "Support Vector Machine", "support_vector_machine"},
		{"punctuation dropped", "AT&T Labs", "att_labs"},
		{"hyphens", "k-nearest neighbors", "k_nearest_neighbors"},
		{"leading trailing", "  ReLU  ", "relu"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slug(tt.in); got != tt.want {
				t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
