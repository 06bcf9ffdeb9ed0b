package models

import "testing"

func TestEntryStateRoundTrip(t *testing.T) {
	tc := []struct {
		name  string
		state EntryState
		want  string
	}{
		{name: "pending", state: StatePending, want: "pending"},
		{name: "downloaded", state: StateDownloaded, want: "downloaded"},
		{name: "missing", state: StateMissing, want: "missing"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
			parsed, err := ParseEntryState(tt.want)
			if err != nil {
				t.Fatalf("ParseEntryState(%q) error: %v", tt.want, err)
			}
			if parsed != tt.state {
				t.Errorf("ParseEntryState(%q) = %v, want %v", tt.want, parsed, tt.state)
			}
		})
	}

	t.Run("unknown state", func(t *testing.T) {
		if _, err := ParseEntryState("queued"); err == nil {
			t.Error("expected error for unknown state")
		}
	})
}

func TestEntryFlags(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  EntryFlags
	}{
		{name: "empty", input: "", want: EntryFlags{}},
		{name: "orphaned", input: "orphaned", want: EntryFlags{Orphaned: true}},
		{name: "both", input: "orphaned,local-only", want: EntryFlags{Orphaned: true, LocalOnly: true}},
		{name: "unknown tokens ignored", input: "orphaned,starred", want: EntryFlags{Orphaned: true}},
		{name: "whitespace tolerated", input: " orphaned , local-only ", want: EntryFlags{Orphaned: true, LocalOnly: true}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseEntryFlags(tt.input); got != tt.want {
				t.Errorf("ParseEntryFlags(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}

	t.Run("string round trip", func(t *testing.T) {
		f := EntryFlags{Orphaned: true, LocalOnly: true}
		if got := ParseEntryFlags(f.String()); got != f {
			t.Errorf("round trip = %+v, want %+v", got, f)
		}
	})
}

func TestLocalFileIdentifier(t *testing.T) {
	tc := []struct {
		name string
		file LocalFile
		want string
	}{
		{name: "tag wins over stem", file: LocalFile{TagID: "tag123", StemID: "stem456"}, want: "tag123"},
		{name: "stem fallback", file: LocalFile{StemID: "stem456"}, want: "stem456"},
		{name: "no evidence", file: LocalFile{}, want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.file.Identifier(); got != tt.want {
				t.Errorf("Identifier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReportEmpty(t *testing.T) {
	var r Report
	if !r.Empty() {
		t.Error("zero report should be empty")
	}

	r.Unmanaged = append(r.Unmanaged, "stray.mp3")
	if r.Empty() {
		t.Error("report with unmanaged files should not be empty")
	}
}

func TestCountsFromReport(t *testing.T) {
	r := &Report{
		Added:           []Change{{ID: "a"}, {ID: "b"}},
		Confirmed:       []Change{{ID: "c"}},
		Unmanaged:       []string{"x.mp3"},
		RenameConflicts: []Conflict{{ID: "d"}},
	}

	counts := CountsFromReport(r)
	if counts.Added != 2 || counts.Confirmed != 1 || counts.Unmanaged != 1 || counts.Conflicts != 1 {
		t.Errorf("unexpected counts: %+v", counts)
	}
	if counts.Missing != 0 {
		t.Errorf("expected zero missing, got %d", counts.Missing)
	}
}

func TestRunValidate(t *testing.T) {
	tc := []struct {
		name    string
		run     Run
		wantErr bool
	}{
		{
			name:    "valid",
			run:     Run{PlaylistID: "p1", Kind: KindExtract, Status: RunStatusOK},
			wantErr: false,
		},
		{
			name:    "missing playlist id",
			run:     Run{Kind: KindExtract, Status: RunStatusOK},
			wantErr: true,
		},
		{
			name:    "bad status",
			run:     Run{PlaylistID: "p1", Kind: KindConsolidate, Status: "done"},
			wantErr: true,
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
