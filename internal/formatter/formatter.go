// package formatter renders track lists and stream results as plain text, CSV and Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/nextup/internal/models"
	"github.com/desertthunder/nextup/internal/shared"
)

// Supported output formats.
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Render dispatches to the exporter for format. "md" is accepted for Markdown.
func Render(format, title string, tracks []models.Candidate) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText:
		return ExportToText(title, tracks)
	case FormatCSV:
		return ExportToCSV(tracks)
	case FormatMarkdown, "md":
		return ExportToMarkdown(title, tracks, "")
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want text, csv or markdown)", shared.ErrInvalidArgument, format)
	}
}

// ExportToCSV converts tracks to CSV format with columns: Position, ID, Title, Artist, Duration, Score, Thumbnail
func ExportToCSV(tracks []models.Candidate) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "Artist", "Duration", "Score", "Thumbnail"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, track := range tracks {
		record := []string{
			strconv.Itoa(i + 1),
			track.ID,
			track.Title,
			track.Artist,
			strconv.Itoa(track.DurationSeconds),
			strconv.Itoa(track.Score),
			track.ThumbnailURL,
		}
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

// ExportToMarkdown converts tracks to a Markdown list with an optional cover image
func ExportToMarkdown(title string, tracks []models.Candidate, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", len(tracks))

	buf.WriteString("## Tracks\n\n")
	for i, track := range tracks {
		fmt.Fprintf(&buf, "%d. %s - %s [%s]\n", i+1, artistOrUnknown(track.Artist), track.Title,
			shared.FormatDuration(track.DurationSeconds))
	}

	return buf.Bytes(), nil
}

// ExportToText converts tracks to a numbered plain text list
func ExportToText(title string, tracks []models.Candidate) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		fmt.Fprintf(&buf, "%s\n", title)
	}
	fmt.Fprintf(&buf, "Tracks: %d\n\n", len(tracks))

	for i, track := range tracks {
		fmt.Fprintf(&buf, "%2d. %s - %s  [%s]  (%s)\n", i+1, artistOrUnknown(track.Artist), track.Title,
			shared.FormatDuration(track.DurationSeconds), track.ID)
	}

	return buf.Bytes(), nil
}

// HomeToText renders each home shelf as a text section.
func HomeToText(feed *models.HomeFeed) ([]byte, error) {
	var buf bytes.Buffer

	sections := []struct {
		title  string
		tracks []models.Candidate
	}{
		{"Jump back in", feed.JumpBackIn},
		{"Made for you", feed.MadeForYou},
		{"Trending", feed.Trending},
	}
	for i, s := range sections {
		if i > 0 {
			buf.WriteString("\n")
		}
		data, err := ExportToText(s.title, s.tracks)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}

	return buf.Bytes(), nil
}

// StreamToText renders a resolved stream.
func StreamToText(res *models.StreamResult) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Title:    %s\n", res.Title)
	fmt.Fprintf(&buf, "Artist:   %s\n", artistOrUnknown(res.Artist))
	fmt.Fprintf(&buf, "Duration: %s\n", shared.FormatDuration(res.DurationSeconds))
	fmt.Fprintf(&buf, "Cached:   %t (%d ms)\n", res.Cached, res.ResolutionTimeMs)
	fmt.Fprintf(&buf, "Stream:   %s\n", res.StreamURL)

	return buf.Bytes()
}

func artistOrUnknown(artist string) string {
	if strings.TrimSpace(artist) == "" {
		return "Unknown"
	}
	return artist
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteExport renders tracks in format and writes them to path, returning the path written.
func WriteExport(format, title string, tracks []models.Candidate, path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: output path", shared.ErrMissingArgument)
	}

	data, err := Render(format, title, tracks)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes {dir}/README.md and, when the first track has a thumbnail, {dir}/cover.jpg.
//
// A cover that fails to download is skipped; the README is still written.
func WriteMarkdownExport(client *http.Client, title string, tracks []models.Candidate, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("%w: output directory", shared.ErrMissingArgument)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if len(tracks) > 0 && tracks[0].ThumbnailURL != "" {
		if imageData, err := DownloadImage(client, tracks[0].ThumbnailURL); err == nil {
			coverImagePath := filepath.Join(outputDir, "cover.jpg")
			if err := os.WriteFile(coverImagePath, imageData, 0644); err == nil {
				coverImageFilename = "cover.jpg"
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(title, tracks, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}
