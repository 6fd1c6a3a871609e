package spiir

import "testing"

func TestSanitizeTag(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"ferie", "ferie"},
		{"Bøger", "Boeger"},
		{"mad & drikke", "mad-drikke"},
		{"  spaced  ", "spaced"},
		{"østjylland", "oestjylland"},
		{"ÆØÅ", "AeOeAa"},
		{"café", "caf"},
		{"señor", "se-or"},
		{"a--b", "a-b"},
		{"-leading-", "leading"},
		{"!!!", ""},
		{"", ""},
		{"under_score", "under_score"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeTag(tt.input); got != tt.want {
				t.Errorf("SanitizeTag(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeSegment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"budgetkonto", "Budgetkonto"},
		{"fælles opsparing", "Faelles-opsparing"},
		{"under_score", "Under-score"},
		{"123konto", "Konto"},
		{"", "Unknown"},
		{"!!!", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := SanitizeSegment(tt.input); got != tt.want {
				t.Errorf("SanitizeSegment(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizedTags(t *testing.T) {
	rec := Record{Tags: "ferie, Bøger,, mad & drikke "}
	got := rec.SanitizedTags()
	want := []string{"ferie", "Boeger", "mad-drikke"}
	if len(got) != len(want) {
		t.Fatalf("SanitizedTags() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SanitizedTags()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
