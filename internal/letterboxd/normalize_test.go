package letterboxd

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Matrix", "the matrix"},
		{"the   matrix!!", "the matrix"},
		{"Alien (1979)", "alien"},
		{"Mission: Impossible – Fallout", "mission impossible fallout"},
		{"Blåfjell (Norsk) (2009)", "blåfjell"},
		{"Ærlig talt, Øyvind", "ærlig talt øyvind"},
		{"Amélie", "am lie"},
		{"  ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeTitle(tt.in); got != tt.want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizationEquivalence(t *testing.T) {
	if !SameTitle("The Matrix", "the   matrix!!") {
		t.Fatal("expected punctuation and spacing differences to normalize away")
	}
	if SameTitle("Amélie (2001)", "amelie") {
		t.Fatal("accented letters outside the whitelist must not fold to ASCII")
	}
}
