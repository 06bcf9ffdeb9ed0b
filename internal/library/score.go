package library

import "github.com/xrash/smetrics"

// Confidence scores how well two artist/title pairs describe the same
// track, in [0, 1]. Pure and deterministic; callers decide what counts as
// confident by applying an explicit threshold.
//
// The score averages Jaro-Winkler similarity over the normalized artist
// and title so a strong title match cannot fully mask a wrong artist.
func Confidence(artistA, titleA, artistB, titleB string) float64 {
	a := similarity(foldKey(artistA), foldKey(artistB))
	t := similarity(foldKey(titleA), foldKey(titleB))
	return (a + t) / 2
}

func similarity(a, b string) float64 {
	if a == "" || b == "" {
		if a == b {
			return 1
		}
		return 0
	}
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}
