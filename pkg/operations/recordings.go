// Package operations holds maintenance tasks over the recordings that
// voxbridge leaves on disk.
package operations

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-audio/wav"
	"github.com/rs/zerolog/log"
)

// RecordingPattern matches the files written by the recorder.
const RecordingPattern = "recording-*.wav"

var ErrInvalidWAV = errors.New("not a valid WAV file")

// RecordingInfo describes one recording on disk.
type RecordingInfo struct {
	Path     string
	Size     int64
	ModTime  time.Time
	Duration time.Duration
	Err      error
}

// FindRecordings returns the recordings in dir, oldest first. A missing
// directory holds no recordings.
func FindRecordings(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, RecordingPattern))
	if err != nil {
		return nil, err
	}
	type entry struct {
		path string
		mod  time.Time
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		entries = append(entries, entry{path: m, mod: info.ModTime()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].mod.Before(entries[j].mod) })

	files := make([]string, len(entries))
	for i, e := range entries {
		files[i] = e.path
	}
	return files, nil
}

// InspectRecordings reads the size and duration of files concurrently.
// Results arrive in completion order.
func InspectRecordings(ctx context.Context, files []string, numWorkers int) <-chan RecordingInfo {
	if numWorkers < 1 {
		numWorkers = 1
	}
	tasks := make(chan string, len(files))
	results := make(chan RecordingInfo, len(files))

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for filePath := range tasks {
				select {
				case <-ctx.Done():
					return
				default:
				}
				results <- inspect(filePath)
			}
		}()
	}

	for _, f := range files {
		tasks <- f
	}
	close(tasks)

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func inspect(path string) RecordingInfo {
	ri := RecordingInfo{Path: path}
	file, err := os.Open(path)
	if err != nil {
		ri.Err = err
		return ri
	}
	defer file.Close()

	if info, err := file.Stat(); err == nil {
		ri.Size = info.Size()
		ri.ModTime = info.ModTime()
	}
	d := wav.NewDecoder(file)
	if !d.IsValidFile() {
		ri.Err = ErrInvalidWAV
		return ri
	}
	ri.Duration, ri.Err = d.Duration()
	return ri
}

// CleanRecordings removes recordings in dir last modified before cutoff and
// returns how many files and bytes were removed.
func CleanRecordings(dir string, cutoff time.Time) (int, int64, error) {
	files, err := FindRecordings(dir)
	if err != nil {
		return 0, 0, err
	}
	removed, freed := 0, int64(0)
	for _, path := range files {
		info, err := os.Stat(path)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to remove old recording")
			continue
		}
		removed++
		freed += info.Size()
	}
	return removed, freed, nil
}
