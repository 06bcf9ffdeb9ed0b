package library

import "testing"

func TestConfidence(t *testing.T) {
	tc := []struct {
		name    string
		artistA string
		titleA  string
		artistB string
		titleB  string
		min     float64
		max     float64
	}{
		{
			name:    "identical",
			artistA: "Daft Punk", titleA: "One More Time",
			artistB: "Daft Punk", titleB: "One More Time",
			min: 1, max: 1,
		},
		{
			name:    "case and spacing only",
			artistA: "daft punk", titleA: "  One More Time ",
			artistB: "Daft Punk", titleB: "One More Time",
			min: 1, max: 1,
		},
		{
			name:    "punctuation variance",
			artistA: "Daft Punk", titleA: "Harder Better Faster Stronger",
			artistB: "Daft Punk", titleB: "Harder, Better, Faster, Stronger",
			min: 0.9, max: 1,
		},
		{
			name:    "featured artist suffix",
			artistA: "Kanye West", titleA: "Stronger",
			artistB: "Kanye West feat. Daft Punk", titleB: "Stronger",
			min: 0.9, max: 1,
		},
		{
			name:    "unrelated tracks",
			artistA: "Daft Punk", titleA: "One More Time",
			artistB: "Rick Astley", titleB: "Never Gonna Give You Up",
			min: 0, max: 0.8,
		},
		{
			name:    "missing artist halves the score",
			artistA: "", titleA: "One More Time",
			artistB: "Daft Punk", titleB: "One More Time",
			min: 0.5, max: 0.5,
		},
		{
			name:    "both artists empty",
			artistA: "", titleA: "One More Time",
			artistB: "", titleB: "One More Time",
			min: 1, max: 1,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.artistA, tt.titleA, tt.artistB, tt.titleB)
			if got < tt.min || got > tt.max {
				t.Errorf("Confidence() = %v, want in [%v, %v]", got, tt.min, tt.max)
			}

			sym := Confidence(tt.artistB, tt.titleB, tt.artistA, tt.titleA)
			if sym != got {
				t.Errorf("Confidence() not symmetric: %v vs %v", got, sym)
			}
		})
	}
}
