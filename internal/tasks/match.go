package tasks

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/desertthunder/cratesync/internal/library"
	"github.com/desertthunder/cratesync/internal/models"
)

// folderFiles indexes one folder scan for matching. Files are claimed as
// entries account for them; whatever is left unclaimed at the end of a run
// is unmanaged. The index follows renames so a file is never visible under
// a stale name.
type folderFiles struct {
	byName  map[string]models.LocalFile
	claimed map[string]bool
}

func newFolderFiles(files []models.LocalFile) *folderFiles {
	ff := &folderFiles{
		byName:  make(map[string]models.LocalFile, len(files)),
		claimed: make(map[string]bool, len(files)),
	}
	for _, f := range files {
		ff.byName[f.Name] = f
	}
	return ff
}

// lookup returns the unclaimed file with exactly this name, if any.
func (ff *folderFiles) lookup(name string) (models.LocalFile, bool) {
	f, ok := ff.byName[name]
	if !ok || ff.claimed[name] {
		return models.LocalFile{}, false
	}
	return f, true
}

// claim marks a file as accounted for by a manifest entry.
func (ff *folderFiles) claim(name string) {
	ff.claimed[name] = true
}

// renamed moves a file to its new name inside the index.
func (ff *folderFiles) renamed(oldName string, f models.LocalFile) {
	delete(ff.byName, oldName)
	delete(ff.claimed, oldName)
	ff.byName[f.Name] = f
}

// withIdentifier returns the unclaimed files whose tag or stem evidence
// names this track identifier.
func (ff *folderFiles) withIdentifier(id string) []models.LocalFile {
	var out []models.LocalFile
	for name, f := range ff.byName {
		if !ff.claimed[name] && f.Identifier() == id {
			out = append(out, f)
		}
	}
	return out
}

// matchingBase returns the unclaimed files named per the canonical
// convention for this artist and title, numbered variants included.
func (ff *folderFiles) matchingBase(artist, title string) []models.LocalFile {
	var out []models.LocalFile
	for name, f := range ff.byName {
		if !ff.claimed[name] && library.MatchesBase(f.Name, artist, title) {
			out = append(out, f)
		}
	}
	return out
}

// fuzzyCandidates returns the unclaimed files whose metadata evidence
// scores at or above the threshold against this artist and title.
func (ff *folderFiles) fuzzyCandidates(artist, title string, threshold float64) []models.LocalFile {
	var out []models.LocalFile
	for name, f := range ff.byName {
		if !ff.claimed[name] && scoreFile(f, artist, title) >= threshold {
			out = append(out, f)
		}
	}
	return out
}

// unclaimed returns the files no entry accounted for, in name order.
func (ff *folderFiles) unclaimed() []models.LocalFile {
	var out []models.LocalFile
	for name, f := range ff.byName {
		if !ff.claimed[name] {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// scoreFile rates how well a file's evidence matches an entry's metadata,
// taking the best of embedded tags and the filename convention.
func scoreFile(f models.LocalFile, artist, title string) float64 {
	var best float64
	if f.TagArtist != "" || f.TagTitle != "" {
		best = library.Confidence(artist, title, f.TagArtist, f.TagTitle)
	}
	stem := strings.TrimSuffix(f.Name, filepath.Ext(f.Name))
	if a, t, ok := library.SplitStem(stem); ok {
		if s := library.Confidence(artist, title, a, t); s > best {
			best = s
		}
	}
	return best
}

// pickBest resolves duplicate candidates for one identifier: the most
// recently modified file wins, with name order breaking exact timestamp
// ties so runs stay deterministic. Losers are returned for the ambiguity
// report; they stay unclaimed and surface as unmanaged.
func pickBest(candidates []models.LocalFile) (models.LocalFile, []models.LocalFile, bool) {
	if len(candidates) == 0 {
		return models.LocalFile{}, nil, false
	}
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].ModTime.Equal(candidates[j].ModTime) {
			return candidates[i].ModTime.After(candidates[j].ModTime)
		}
		return candidates[i].Name < candidates[j].Name
	})
	return candidates[0], candidates[1:], true
}

// matchResult is one ladder hit for a pending entry.
type matchResult struct {
	file   models.LocalFile
	losers []models.LocalFile
	detail string
}

// matchPending runs the inference ladder for a pending entry: the stored
// filename, then identifier evidence, then the canonical naming convention,
// then fuzzy scoring against the threshold. The first rung with candidates
// decides; weaker rungs never see files a stronger rung could explain.
func (e *ReconcileEngine) matchPending(entry models.ManifestEntry, ff *folderFiles) (matchResult, bool) {
	if f, ok := ff.lookup(entry.Filename); ok {
		return matchResult{file: f, detail: "matched stored filename"}, true
	}

	if picked, losers, ok := pickBest(ff.withIdentifier(entry.ID)); ok {
		return matchResult{file: picked, losers: losers, detail: "matched embedded identifier"}, true
	}

	if picked, losers, ok := pickBest(ff.matchingBase(entry.Artist, entry.Title)); ok {
		return matchResult{file: picked, losers: losers, detail: "matched filename convention"}, true
	}

	if picked, losers, ok := pickBest(ff.fuzzyCandidates(entry.Artist, entry.Title, e.threshold)); ok {
		detail := fmt.Sprintf("fuzzy matched at %.2f", scoreFile(picked, entry.Artist, entry.Title))
		return matchResult{file: picked, losers: losers, detail: detail}, true
	}

	return matchResult{}, false
}

// fixName renames a matched file to the canonical "Artist - Title.ext"
// convention and claims it. When the target name is taken or the rename
// itself fails, the file stays claimed under its current name and a
// conflict is returned; the caller decides what the entry does with it.
func (e *ReconcileEngine) fixName(entry models.ManifestEntry, file models.LocalFile, folder string, ff *folderFiles) (models.LocalFile, *models.Conflict) {
	target := library.CanonicalName(entry.Artist, entry.Title, filepath.Ext(file.Name))
	if file.Name == target {
		ff.claim(file.Name)
		return file, nil
	}

	if _, taken := ff.byName[target]; taken {
		ff.claim(file.Name)
		return file, &models.Conflict{
			ID:     entry.ID,
			Path:   file.Name,
			Other:  target,
			Reason: "canonical filename already taken",
		}
	}

	if err := e.rename(filepath.Join(folder, file.Name), filepath.Join(folder, target)); err != nil {
		ff.claim(file.Name)
		return file, &models.Conflict{
			ID:     entry.ID,
			Path:   file.Name,
			Other:  target,
			Reason: err.Error(),
		}
	}

	oldName := file.Name
	file.Name = target
	file.Path = filepath.Join(folder, target)
	ff.renamed(oldName, file)
	ff.claim(target)
	return file, nil
}
