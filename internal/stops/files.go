package stops

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"mystops/internal/trimet"
)

const (
	RawStopsFile = "raw_stops.json"
	StopsFile    = "stops.json"
	RoutesFile   = "routes.json"
)

// Fetcher returns the raw stop directory payload.
type Fetcher interface {
	StopDirectory(ctx context.Context, center trimet.Point, radiusFeet int) ([]byte, error)
}

type SyncOptions struct {
	Dir        string
	Overwrite  bool
	Center     trimet.Point
	RadiusFeet int
}

type dataFile[T any] struct {
	Retrieved int64 `json:"retrieved"`
	Data      []T   `json:"data"`
}

// Sync extracts the stop directory into stops.json and routes.json under
// opts.Dir. The raw payload is kept in raw_stops.json and reused on later
// runs unless opts.Overwrite is set.
func Sync(ctx context.Context, f Fetcher, opts SyncOptions) (*Extraction, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	rawPath := filepath.Join(opts.Dir, RawStopsFile)
	body, err := os.ReadFile(rawPath)
	switch {
	case err == nil && !opts.Overwrite:
		log.Printf("reading cached stop data from %s", rawPath)
	case err == nil || errors.Is(err, fs.ErrNotExist):
		log.Printf("fetching stop data from TriMet API")
		body, err = f.StopDirectory(ctx, opts.Center, opts.RadiusFeet)
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(rawPath, body, 0o644); err != nil {
			return nil, fmt.Errorf("write raw stops: %w", err)
		}
	default:
		return nil, fmt.Errorf("read raw stops: %w", err)
	}

	ex, err := Extract(body)
	if err != nil {
		return nil, err
	}
	if err := WriteFiles(opts.Dir, ex); err != nil {
		return nil, err
	}
	log.Printf("extracted %d stops, %d routes, %d stop routes", len(ex.Stops), len(ex.Routes), len(ex.StopRoutes))
	return ex, nil
}

// WriteFiles writes stops.json and routes.json.
func WriteFiles(dir string, ex *Extraction) error {
	if err := writeJSON(filepath.Join(dir, StopsFile), dataFile[Stop]{ex.Retrieved, ex.Stops}); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, RoutesFile), dataFile[Route]{ex.Retrieved, ex.Routes})
}

func ReadStops(path string) ([]Stop, error) {
	f, err := readJSON[Stop](path)
	return f.Data, err
}

func ReadRoutes(path string) ([]Route, error) {
	f, err := readJSON[Route](path)
	return f.Data, err
}

func writeJSON(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON[T any](path string) (dataFile[T], error) {
	var f dataFile[T]
	b, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &f); err != nil {
		return f, fmt.Errorf("decode %s: %w", path, err)
	}
	return f, nil
}
