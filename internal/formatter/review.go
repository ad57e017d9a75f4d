// package formatter renders reviews and performances for export and display.
//
// Review content is HTML and is never modified; the Markdown export converts
// a copy.
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"gopkg.in/yaml.v3"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
)

// Export formats.
const (
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
)

// Formats lists every accepted export format.
var Formats = []string{FormatJSON, FormatYAML, FormatMarkdown, FormatCSV}

// ValidFormat reports whether f is one of [Formats].
func ValidFormat(f string) bool {
	for _, v := range Formats {
		if v == f {
			return true
		}
	}
	return false
}

// reviewDocument is the shape written by the JSON and YAML exports.
type reviewDocument struct {
	ID            int64           `json:"id" yaml:"id"`
	Title         string          `json:"title" yaml:"title"`
	CreatedAt     string          `json:"createdAt" yaml:"created_at"`
	Content       string          `json:"content" yaml:"content"`
	PlaylistTitle string          `json:"playlistTitle,omitempty" yaml:"playlist_title,omitempty"`
	Tracks        []trackDocument `json:"tracks,omitempty" yaml:"tracks,omitempty"`
}

type trackDocument struct {
	Title     string `json:"title" yaml:"title"`
	Artist    string `json:"artist" yaml:"artist"`
	SpotifyID string `json:"spotifyId" yaml:"spotify_id"`
	AlbumArt  string `json:"albumImageUrl,omitempty" yaml:"album_image_url,omitempty"`
}

func document(r models.ReviewDetail) reviewDocument {
	doc := reviewDocument{
		ID:            r.ID,
		Title:         r.Title,
		CreatedAt:     r.CreatedAt,
		Content:       r.Content,
		PlaylistTitle: r.PlaylistTitle,
	}
	for _, t := range r.Tracks {
		doc.Tracks = append(doc.Tracks, trackDocument{Title: t.Title, Artist: t.ArtistName, SpotifyID: t.SpotifyID, AlbumArt: t.AlbumImageURL})
	}
	return doc
}

// ReviewToJSON encodes a review with indentation.
func ReviewToJSON(r models.ReviewDetail) ([]byte, error) {
	return shared.MarshalJSON(document(r), true)
}

// ReviewToYAML encodes a review as a YAML document.
func ReviewToYAML(r models.ReviewDetail) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document(r)); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

func newConverter() *md.Converter {
	c := md.NewConverter("", true, nil)
	c.Use(plugin.GitHubFlavored())
	return c
}

// HTMLToMarkdown converts review HTML into Markdown.
func HTMLToMarkdown(html string) (string, error) {
	out, err := newConverter().ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert review content: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// ReviewToMarkdown renders a review with YAML front matter and its playlist.
func ReviewToMarkdown(r models.ReviewDetail) ([]byte, error) {
	body, err := HTMLToMarkdown(r.Content)
	if err != nil {
		return nil, err
	}

	front, err := yaml.Marshal(map[string]any{"id": r.ID, "created_at": r.CreatedAt})
	if err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(front)
	buf.WriteString("---\n\n")
	fmt.Fprintf(&buf, "# %s\n\n", r.Title)
	fmt.Fprintf(&buf, "*%s*\n\n", FormatDateTime(r.CreatedAt))
	buf.WriteString(body)
	buf.WriteString("\n")

	if len(r.Tracks) > 0 {
		title := r.PlaylistTitle
		if title == "" {
			title = "Playlist"
		}
		fmt.Fprintf(&buf, "\n## %s\n\n", title)
		for i, t := range r.Tracks {
			fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, t.ArtistName, t.Title)
		}
	}
	return buf.Bytes(), nil
}

// TracksToCSV writes the playlist with columns: Position, Title, Artist, SpotifyID, AlbumImageURL
func TracksToCSV(r models.ReviewDetail) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Title", "Artist", "SpotifyID", "AlbumImageURL"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for i, t := range r.Tracks {
		record := []string{strconv.Itoa(i + 1), t.Title, t.ArtistName, t.SpotifyID, t.AlbumImageURL}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteReviewExport writes r into dir in format and returns the files created.
//
// csv writes {id}_tracks.csv plus {id}.json for the review text.
func WriteReviewExport(r models.ReviewDetail, format, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	base := filepath.Join(dir, fmt.Sprintf("review_%d", r.ID))

	write := func(path string, data []byte, err error) ([]string, error) {
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		return []string{path}, nil
	}

	switch format {
	case FormatYAML:
		data, err := ReviewToYAML(r)
		return write(base+".yaml", data, err)
	case FormatMarkdown:
		data, err := ReviewToMarkdown(r)
		return write(base+".md", data, err)
	case FormatCSV:
		data, err := TracksToCSV(r)
		tracks, err := write(base+"_tracks.csv", data, err)
		if err != nil {
			return nil, err
		}
		data, err = ReviewToJSON(r)
		doc, err := write(base+".json", data, err)
		if err != nil {
			return tracks, err
		}
		return append(tracks, doc...), nil
	case FormatJSON, "":
		data, err := ReviewToJSON(r)
		return write(base+".json", data, err)
	default:
		return nil, fmt.Errorf("%w: export format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
