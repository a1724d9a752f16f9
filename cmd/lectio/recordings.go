package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alkime/lectio/internal/api"
	"github.com/alkime/lectio/internal/catalog"
	"github.com/alkime/lectio/internal/config"
	"github.com/alkime/lectio/internal/stats"
	"github.com/alkime/lectio/internal/workdir"
	"github.com/alkime/lectio/pkg/collections"
	"github.com/dustin/go-humanize"
)

const (
	plotWidth       = 600
	boxPlotHeight   = 80
	histogramHeight = 240
)

// StatsCmd prints the words-per-minute summary of a translation and writes
// its box plot and histogram as PNG files.
type StatsCmd struct {
	Translation int64 `arg:"" optional:"" help:"Translation id (default: first translation)"`
	NoPlot      bool  `flag:"" help:"Skip writing PNG plots"`
}

// Run executes the stats command.
func (c *StatsCmd) Run(cfg *config.Config) error {
	ctx := context.Background()

	client, err := newClient(cfg, slog.Default())
	if err != nil {
		return err
	}

	translation, err := resolveTranslation(ctx, client, c.Translation)
	if err != nil {
		return err
	}

	summary, err := client.FetchSummaryStats(ctx, translation.ID)
	if err != nil {
		return fmt.Errorf("failed to fetch statistics: %w", err)
	}

	fmt.Printf("%s: %d recordings\n", translation.Label(), summary.Count)

	if summary.Count == 0 {
		return nil
	}

	fmt.Printf("  min %.1f  q1 %.1f  median %.1f  q3 %.1f  max %.1f\n",
		summary.Min, summary.Q1, summary.Median, summary.Q3, summary.Max)
	fmt.Printf("  mean %.1f  std %.1f\n", summary.Mean, summary.Std)

	for _, b := range summary.Histogram {
		fmt.Printf("  %6.1f  %d\n", b.LowerBound, b.Count)
	}

	if c.NoPlot {
		return nil
	}

	return writePlots(translation.ID, &summary)
}

func writePlots(translationID int64, summary *catalog.SummaryStats) error {
	if err := workdir.Prep(); err != nil {
		return fmt.Errorf("failed to prepare working directory: %w", err)
	}

	box := stats.NewImageCanvas(plotWidth, boxPlotHeight)
	hist := stats.NewImageCanvas(plotWidth, histogramHeight)
	stats.Render(box, hist, summary)

	for name, canvas := range map[string]*stats.ImageCanvas{"boxplot": box, "histogram": hist} {
		path, err := workdir.StatsPath(fmt.Sprintf("wpm-%d-%s.png", translationID, name))
		if err != nil {
			return fmt.Errorf("failed to determine plot path: %w", err)
		}

		if err := writeFile(path, canvas.WritePNG); err != nil {
			return err
		}

		fmt.Printf("wrote %s\n", path)
	}

	return nil
}

// AudioCmd groups recording management subcommands.
type AudioCmd struct {
	List     AudioListCmd     `cmd:"" help:"List the recordings of a translation"`
	Fetch    AudioFetchCmd    `cmd:"" help:"Save the audio of a recording"`
	Edit     AudioEditCmd     `cmd:"" help:"Change the verse range or transcription of a recording"`
	Delete   AudioDeleteCmd   `cmd:"" help:"Delete a recording"`
	Download AudioDownloadCmd `cmd:"" help:"Download every recording of a translation as a zip archive"`
}

// AudioListCmd lists recordings.
type AudioListCmd struct {
	Translation int64 `arg:"" optional:"" help:"Translation id (default: first translation)"`
}

// Run executes the list command.
func (c *AudioListCmd) Run(cfg *config.Config) error {
	ctx := context.Background()

	client, err := newClient(cfg, slog.Default())
	if err != nil {
		return err
	}

	translation, err := resolveTranslation(ctx, client, c.Translation)
	if err != nil {
		return err
	}

	recordings, err := client.ListRecordings(ctx, translation.ID)
	if err != nil {
		return fmt.Errorf("failed to list recordings: %w", err)
	}

	if len(recordings) == 0 {
		fmt.Printf("%s has no recordings\n", translation.Label())
		return nil
	}

	for _, r := range recordings {
		wpm := "-"
		if r.WPM != nil {
			wpm = fmt.Sprintf("%.0f", *r.WPM)
		}

		fmt.Printf("#%-5d %s %d:%d-%d  %s wpm  played %d times  %s\n",
			r.ID, r.BookName, r.ChapterNumber, r.VerseStart, r.VerseEnd,
			wpm, r.AccessedCount, humanize.Time(r.DateRecorded))
	}

	return nil
}

// AudioFetchCmd saves the audio of one recording.
type AudioFetchCmd struct {
	Recording int64  `arg:"" help:"Recording id"`
	Out       string `flag:"" optional:"" help:"Output file (default: working directory)"`
}

// Run executes the fetch command.
func (c *AudioFetchCmd) Run(cfg *config.Config) error {
	ctx := context.Background()

	client, err := newClient(cfg, slog.Default())
	if err != nil {
		return err
	}

	body, mime, err := client.FetchAudio(ctx, c.Recording)
	if err != nil {
		return fmt.Errorf("failed to fetch audio: %w", err)
	}
	defer body.Close()

	path := c.Out
	if path == "" {
		if err := workdir.Prep(); err != nil {
			return fmt.Errorf("failed to prepare working directory: %w", err)
		}

		path, err = workdir.AudioPath(fmt.Sprintf("recording-%d%s", c.Recording, catalog.AudioExtension(mime)))
		if err != nil {
			return fmt.Errorf("failed to determine audio path: %w", err)
		}
	}

	return saveStream(path, body)
}

// AudioEditCmd edits a recording. Unset flags leave fields unchanged.
type AudioEditCmd struct {
	Recording int64  `arg:"" help:"Recording id"`
	Start     int    `flag:"" help:"First verse"`
	End       int    `flag:"" help:"Last verse"`
	Text      string `flag:"" help:"Replacement transcription"`
	ClearText bool   `flag:"" help:"Clear the transcription"`
}

// Run executes the edit command.
func (c *AudioEditCmd) Run(cfg *config.Config) error {
	var update api.RecordingUpdate

	if c.Start != 0 {
		update.VerseStart = &c.Start
	}

	if c.End != 0 {
		update.VerseEnd = &c.End
	}

	switch {
	case c.ClearText && c.Text != "":
		return errors.New("--text and --clear-text are mutually exclusive")
	case c.ClearText, c.Text != "":
		update.TranscriptionText = &c.Text
	}

	if update == (api.RecordingUpdate{}) { //nolint:exhaustruct // zero comparison
		return errors.New("nothing to change: pass --start, --end, --text or --clear-text")
	}

	client, err := newClient(cfg, slog.Default())
	if err != nil {
		return err
	}

	if err := client.UpdateRecording(context.Background(), c.Recording, update); err != nil {
		return fmt.Errorf("failed to update recording: %w", err)
	}

	fmt.Printf("recording #%d updated\n", c.Recording)

	return nil
}

// AudioDeleteCmd deletes a recording.
type AudioDeleteCmd struct {
	Recording int64 `arg:"" help:"Recording id"`
}

// Run executes the delete command.
func (c *AudioDeleteCmd) Run(cfg *config.Config) error {
	client, err := newClient(cfg, slog.Default())
	if err != nil {
		return err
	}

	if err := client.DeleteRecording(context.Background(), c.Recording); err != nil {
		return fmt.Errorf("failed to delete recording: %w", err)
	}

	fmt.Printf("recording #%d deleted\n", c.Recording)

	return nil
}

// AudioDownloadCmd downloads a translation archive.
type AudioDownloadCmd struct {
	Translation int64  `arg:"" optional:"" help:"Translation id (default: first translation)"`
	Out         string `flag:"" optional:"" help:"Output file (default: working directory)"`
}

// Run executes the download command.
func (c *AudioDownloadCmd) Run(cfg *config.Config) error {
	ctx := context.Background()

	client, err := newClient(cfg, slog.Default())
	if err != nil {
		return err
	}

	translation, err := resolveTranslation(ctx, client, c.Translation)
	if err != nil {
		return err
	}

	body, err := client.DownloadArchive(ctx, translation.ID)
	if err != nil {
		return fmt.Errorf("failed to download archive: %w", err)
	}
	defer body.Close()

	path := c.Out
	if path == "" {
		if err := workdir.Prep(); err != nil {
			return fmt.Errorf("failed to prepare working directory: %w", err)
		}

		path, err = workdir.AudioPath(fmt.Sprintf("bible-%d.zip", translation.ID))
		if err != nil {
			return fmt.Errorf("failed to determine archive path: %w", err)
		}
	}

	return saveStream(path, body)
}

// resolveTranslation returns the translation with id, or the first one when
// id is zero.
func resolveTranslation(ctx context.Context, client *api.Client, id int64) (catalog.Translation, error) {
	translations, err := client.ListTranslations(ctx)
	if err != nil {
		return catalog.Translation{}, fmt.Errorf("failed to list translations: %w", err) //nolint:exhaustruct // error path
	}

	if id == 0 {
		if len(translations) == 0 {
			return catalog.Translation{}, errors.New("no translations available") //nolint:exhaustruct // error path
		}

		return translations[0], nil
	}

	t, ok := collections.Find(translations, func(t catalog.Translation) bool { return t.ID == id })
	if !ok {
		return catalog.Translation{}, fmt.Errorf("translation %d not found", id) //nolint:exhaustruct // error path
	}

	return t, nil
}

func saveStream(path string, r io.Reader) error {
	var n int64

	err := writeFile(path, func(w io.Writer) error {
		var err error
		n, err = io.Copy(w, r)

		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("saved %s (%s)\n", path, humanize.Bytes(uint64(n)))

	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return nil
}
