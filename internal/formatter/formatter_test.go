package formatter

import (
	"strings"
	"testing"

	"github.com/desertthunder/cratesync/internal/models"
)

func sampleReport() *models.Report {
	return &models.Report{
		PlaylistID:   "pl123",
		PlaylistName: "Crate Digs",
		Kind:         models.KindExtract.String(),
		Added: []models.Change{
			{ID: "t1", Artist: "Artist One", Title: "Song One"},
			{ID: "t2", Artist: "Artist Two", Title: "Song Two"},
		},
		Moved: []models.Change{
			{ID: "t3", Artist: "Artist Three", Title: "Song Three", Detail: "position 4 -> 1"},
		},
		Orphaned: []models.Change{
			{ID: "t4", Artist: "Artist Four", Title: "Song Four"},
		},
		Unmanaged: []string{"notes.txt", "cover.jpg"},
		RenameConflicts: []models.Conflict{
			{ID: "t5", Path: "a.mp3", Other: "b.mp3", Reason: "target exists"},
		},
	}
}

func TestExportToText(t *testing.T) {
	t.Run("PopulatedReport", func(t *testing.T) {
		data, err := ExportToText(sampleReport())
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "Extraction report: Crate Digs") {
			t.Errorf("text missing title, got: %s", output)
		}
		if !strings.Contains(output, "playlist pl123") {
			t.Errorf("text missing playlist id")
		}
		if !strings.Contains(output, "Added (2)") {
			t.Errorf("text missing added section header")
		}
		if !strings.Contains(output, "Artist One - Song One (t1)") {
			t.Errorf("text missing added entry, got: %s", output)
		}
		if !strings.Contains(output, "Artist Three - Song Three (t3): position 4 -> 1") {
			t.Errorf("text missing change detail")
		}
		if !strings.Contains(output, "Unmanaged files (2)") {
			t.Errorf("text missing unmanaged section")
		}
		if !strings.Contains(output, "notes.txt") {
			t.Errorf("text missing unmanaged file name")
		}
		if !strings.Contains(output, "t5: a.mp3 vs b.mp3 (target exists)") {
			t.Errorf("text missing rename conflict line, got: %s", output)
		}
		if strings.Contains(output, "Missing (") {
			t.Errorf("text rendered empty category")
		}
	})

	t.Run("EmptyReport", func(t *testing.T) {
		report := &models.Report{
			PlaylistID:   "pl123",
			PlaylistName: "Crate Digs",
			Kind:         models.KindConsolidate.String(),
		}

		data, err := ExportToText(report)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Consolidation report: Crate Digs") {
			t.Errorf("text missing title")
		}
		if !strings.Contains(output, "no drift detected") {
			t.Errorf("text missing no-drift notice, got: %s", output)
		}
	})

	t.Run("NilReport", func(t *testing.T) {
		if _, err := ExportToText(nil); err == nil {
			t.Error("ExportToText with nil report should return error")
		}
	})
}

func TestExportToMarkdown(t *testing.T) {
	t.Run("PopulatedReport", func(t *testing.T) {
		data, err := ExportToMarkdown(sampleReport())
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)

		if !strings.Contains(output, "# Extraction report: Crate Digs") {
			t.Errorf("markdown missing title, got: %s", output)
		}
		if !strings.Contains(output, "**Playlist**: `pl123`") {
			t.Errorf("markdown missing playlist id")
		}
		if !strings.Contains(output, "## Added (2)") {
			t.Errorf("markdown missing added heading")
		}
		if !strings.Contains(output, "- Artist One - Song One (t1)") {
			t.Errorf("markdown missing added entry")
		}
		if !strings.Contains(output, "## Rename conflicts (1)") {
			t.Errorf("markdown missing conflicts heading")
		}
		if !strings.Contains(output, "**Summary**: 2 added, 1 moved, 1 orphaned, 2 unmanaged, 1 rename conflicts") {
			t.Errorf("markdown missing summary line, got: %s", output)
		}
	})

	t.Run("EmptyReport", func(t *testing.T) {
		report := &models.Report{PlaylistID: "pl123", Kind: models.KindExtract.String()}

		data, err := ExportToMarkdown(report)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		if !strings.Contains(string(data), "no drift detected") {
			t.Errorf("markdown missing no-drift notice, got: %s", string(data))
		}
	})

	t.Run("FallsBackToPlaylistID", func(t *testing.T) {
		report := &models.Report{PlaylistID: "pl456", Kind: models.KindExtract.String()}

		data, err := ExportToMarkdown(report)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		if !strings.Contains(string(data), "# Extraction report: pl456") {
			t.Errorf("markdown title should fall back to playlist id, got: %s", string(data))
		}
	})
}

func TestSummary(t *testing.T) {
	t.Run("CountsNonEmptyCategories", func(t *testing.T) {
		got := Summary(sampleReport())
		want := "2 added, 1 moved, 1 orphaned, 2 unmanaged, 1 rename conflicts"
		if got != want {
			t.Errorf("Summary() = %q, want %q", got, want)
		}
	})

	t.Run("EmptyReport", func(t *testing.T) {
		if got := Summary(&models.Report{}); got != "no drift" {
			t.Errorf("Summary() = %q, want %q", got, "no drift")
		}
	})
}
