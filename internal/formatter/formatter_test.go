package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/desertthunder/stagelog/internal/models"
	tu "github.com/desertthunder/stagelog/internal/testing"
)

func sampleReview() models.ReviewDetail {
	return models.ReviewDetail{
		ID:            5,
		Title:         "Best night",
		Content:       `<p>The <strong>encore</strong> was <em>loud</em>.</p><ul><li>Hype Boy</li></ul>`,
		CreatedAt:     "2025-03-02T21:15:00",
		PlaylistTitle: "Setlist",
		Tracks: []models.Track{
			{ID: 1, Title: "Hype Boy", ArtistName: "NewJeans", SpotifyID: "sp1", AlbumImageURL: "http://img/1.jpg"},
			{ID: 2, Title: "Ditto, Pt. 2", ArtistName: "NewJeans", SpotifyID: "sp2"},
		},
	}
}

func TestFormatDate(t *testing.T) {
	tc := []struct {
		in   string
		want string
	}{
		{in: "2025-03-01", want: "2025.03.01"},
		{in: "2025-03-01T19:30:00", want: "2025.03.01"},
		{in: "2025.12.31", want: "2025.12.31"},
		{in: "", want: "-"},
		{in: "not a date", want: "-"},
	}
	for _, tt := range tc {
		if got := FormatDate(tt.in); got != tt.want {
			t.Errorf("FormatDate(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}

	if got := FormatDateTime("2025-03-01T19:30:00"); got != "2025.03.01 19:30" {
		t.Errorf("expected 2025.03.01 19:30, got %q", got)
	}
	if got := FormatDateTime("x"); got != Placeholder {
		t.Errorf("expected placeholder, got %q", got)
	}
}

func TestFormatDateRange(t *testing.T) {
	if got := FormatDateRange("2025-03-01", "2025-03-03"); got != "2025.03.01 ~ 2025.03.03" {
		t.Errorf("unexpected range %q", got)
	}
	if got := FormatDateRange("2025-03-01", "2025-03-01"); got != "2025.03.01" {
		t.Errorf("expected single day, got %q", got)
	}
	if got := FormatDateRange("2025-03-01", ""); got != Placeholder {
		t.Errorf("expected placeholder, got %q", got)
	}
}

func TestMonths(t *testing.T) {
	if y, m := NextMonth(2025, 12); y != 2026 || m != 1 {
		t.Errorf("expected 2026-1, got %d-%d", y, m)
	}
	if y, m := PrevMonth(2025, 1); y != 2024 || m != 12 {
		t.Errorf("expected 2024-12, got %d-%d", y, m)
	}
	if y, m := NextMonth(2025, 3); y != 2025 || m != 4 {
		t.Errorf("expected 2025-4, got %d-%d", y, m)
	}
	if got := FormatYearMonth(2025, 3); got != "2025.03" {
		t.Errorf("expected 2025.03, got %q", got)
	}
	if got := FormatYearMonth(2025, 13); got != Placeholder {
		t.Errorf("expected placeholder, got %q", got)
	}
}

func TestDDayAndStatus(t *testing.T) {
	now := time.Date(2025, 3, 5, 22, 0, 0, 0, time.Local)

	tc := []struct {
		date string
		want string
	}{
		{date: "2025-03-12", want: "D-7"},
		{date: "2025-03-05", want: "D-Day"},
		{date: "2025-03-06", want: "D-1"},
		{date: "2025-03-04", want: "ended"},
		{date: "", want: Placeholder},
	}
	for _, tt := range tc {
		if got := DDay(tt.date, now); got != tt.want {
			t.Errorf("DDay(%q): expected %q, got %q", tt.date, tt.want, got)
		}
	}

	st := []struct {
		start, end string
		want       PerformanceStatus
	}{
		{start: "2025-03-06", end: "2025-03-08", want: StatusUpcoming},
		{start: "2025-03-05", end: "2025-03-05", want: StatusOngoing},
		{start: "2025-03-01", end: "2025-03-05", want: StatusOngoing},
		{start: "2025-03-01", end: "2025-03-04", want: StatusEnded},
		{start: "bad", end: "2025-03-04", want: StatusUnknown},
	}
	for _, tt := range st {
		if got := Status(tt.start, tt.end, now); got != tt.want {
			t.Errorf("Status(%q, %q): expected %q, got %q", tt.start, tt.end, tt.want, got)
		}
	}
}

func TestReviewToJSON(t *testing.T) {
	r := sampleReview()
	data, err := ReviewToJSON(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc reviewDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if doc.Content != r.Content {
		t.Errorf("expected content verbatim, got %q", doc.Content)
	}
	if len(doc.Tracks) != 2 || doc.Tracks[1].SpotifyID != "sp2" {
		t.Errorf("unexpected tracks %+v", doc.Tracks)
	}
}

func TestReviewToYAML(t *testing.T) {
	r := sampleReview()
	data, err := ReviewToYAML(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var doc reviewDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if doc.Content != r.Content || doc.PlaylistTitle != "Setlist" {
		t.Errorf("unexpected document %+v", doc)
	}
	if !strings.Contains(string(data), "spotify_id: sp1") {
		t.Errorf("expected snake_case keys, got:\n%s", data)
	}
}

func TestReviewToMarkdown(t *testing.T) {
	r := sampleReview()
	data, err := ReviewToMarkdown(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := string(data)

	for _, want := range []string{
		"id: 5\n",
		"# Best night",
		"*2025.03.02 21:15*",
		"**encore**",
		"## Setlist",
		"1. NewJeans - Hype Boy",
		"2. NewJeans - Ditto, Pt. 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected markdown to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<strong>") {
		t.Error("expected HTML tags to be converted")
	}
	if r.Content != sampleReview().Content {
		t.Error("expected review content to be left untouched")
	}

	r.Tracks = nil
	data, err = ReviewToMarkdown(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(data), "## ") {
		t.Error("expected no playlist section without tracks")
	}
}

func TestTracksToCSV(t *testing.T) {
	data, err := TracksToCSV(sampleReview())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(records))
	}
	if records[0][0] != "Position" || records[2][1] != "Ditto, Pt. 2" || records[2][0] != "2" {
		t.Errorf("unexpected records %v", records)
	}
}

func TestWriteReviewExport(t *testing.T) {
	r := sampleReview()

	tc := []struct {
		format string
		files  []string
	}{
		{format: FormatJSON, files: []string{"review_5.json"}},
		{format: FormatYAML, files: []string{"review_5.yaml"}},
		{format: FormatMarkdown, files: []string{"review_5.md"}},
		{format: FormatCSV, files: []string{"review_5_tracks.csv", "review_5.json"}},
	}
	for _, tt := range tc {
		t.Run(tt.format, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "out")
			paths, err := WriteReviewExport(r, tt.format, dir)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(paths) != len(tt.files) {
				t.Fatalf("expected %d files, got %v", len(tt.files), paths)
			}
			for i, name := range tt.files {
				if filepath.Base(paths[i]) != name {
					t.Errorf("expected %s, got %s", name, paths[i])
				}
				tu.AssertFileExists(t, paths[i])
			}
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		if _, err := WriteReviewExport(r, "xml", t.TempDir()); err == nil {
			t.Error("expected error for unknown format")
		}
		if ValidFormat("xml") || !ValidFormat(FormatCSV) {
			t.Error("unexpected ValidFormat result")
		}
	})

	t.Run("unwritable directory", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := WriteReviewExport(r, FormatJSON, filepath.Join(file, "sub")); err == nil {
			t.Error("expected error when directory cannot be created")
		}
	})
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := WriteManifest(map[string]int{"count": 2}, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := tu.MustReadFile(t, path); !strings.Contains(got, `"count": 2`) {
		t.Errorf("unexpected manifest %s", got)
	}
}

func TestPerformanceRendering(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local)
	var buf bytes.Buffer
	err := PerformanceTable(&buf, []models.PerformanceListItem{
		{ID: 1, Title: "Spring Fest", StartDate: "2025-03-01", EndDate: "2025-03-02"},
		{ID: 2, Title: "Jazz Night", StartDate: "2025-04-01", EndDate: "2025-04-01"},
	}, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Spring Fest") || !strings.Contains(out, "ongoing") || !strings.Contains(out, "upcoming") {
		t.Errorf("unexpected table:\n%s", out)
	}

	text := PerformanceText(models.PerformanceDetail{
		ID: 7, Title: "Jazz Night", StartDate: "2025-03-08", EndDate: "2025-03-08",
		Place: "Olympic Hall", Cast: []string{"A", "B"},
	}, now)
	for _, want := range []string{"Jazz Night (#7)", "2025.03.08", "D-7", "Olympic Hall", "A, B"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected %q in:\n%s", want, text)
		}
	}
	if strings.Contains(text, "Runtime") {
		t.Error("expected empty fields to be omitted")
	}

	cal := CalendarText(2025, 3, nil)
	if !strings.Contains(cal, "2025.03") || !strings.Contains(cal, "no performances") {
		t.Errorf("unexpected calendar %q", cal)
	}
}

func TestExcerpt(t *testing.T) {
	content := "<p>The   <strong>en</strong>core\n was loud.</p><p>Again</p>"
	if got := PlainText(content); got != "The encore was loud. Again" {
		t.Errorf("unexpected plain text %q", got)
	}
	if got := Excerpt(content, 10); got != "The encore..." {
		t.Errorf("unexpected excerpt %q", got)
	}
	if got := Excerpt(content, 100); got != "The encore was loud. Again" {
		t.Errorf("unexpected excerpt %q", got)
	}
}
