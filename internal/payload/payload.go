// Package payload reads provider match payloads from disk.
//
// Files may be plain JSON or gzip/zstd compressed. A file holds a single
// match object, a list of matches, or either wrapped in the provider's
// {"status": ..., "data": ...} envelope.
package payload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/pable/valmetrics/internal/normalize"
)

var ErrNoMatches = errors.New("no match payloads found")

// Source supplies raw payloads of the matches a player took part in.
type Source interface {
	Matches(ctx context.Context, puuid string) ([]normalize.Payload, error)
}

var extensions = []string{".json", ".json.gz", ".json.zst"}

// IsPayloadFile reports whether name carries one of the readable extensions.
func IsPayloadFile(name string) bool {
	name = strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// Load reads every match payload stored in the file at path.
func Load(path string) ([]normalize.Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = f
	switch lower := strings.ToLower(path); {
	case strings.HasSuffix(lower, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd: %w", err)
		}
		defer dec.Close()
		src = dec
	case strings.HasSuffix(lower, ".gz"):
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	body, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	out, err := Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// Decode parses a JSON document into match payloads, unwrapping the
// response envelope and lists.
func Decode(body []byte) ([]normalize.Payload, error) {
	var doc any
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	out, err := unwrap(doc)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoMatches
	}
	return out, nil
}

func unwrap(doc any) ([]normalize.Payload, error) {
	switch t := doc.(type) {
	case []any:
		var out []normalize.Payload
		for i, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d is %T, want object", i, item)
			}
			out = append(out, m)
		}
		return out, nil
	case map[string]any:
		if data, ok := t["data"]; ok && !isMatch(t) {
			return unwrap(data)
		}
		return []normalize.Payload{t}, nil
	default:
		return nil, fmt.Errorf("unexpected top-level %T", doc)
	}
}

func isMatch(m map[string]any) bool {
	_, hasMeta := m["metadata"]
	return hasMeta
}

// HasPlayer reports whether puuid appears in the payload's player list,
// whichever schema it uses.
func HasPlayer(p normalize.Payload, puuid string) bool {
	players, _ := normalize.Normalize(p)["players"].(map[string]any)
	all, _ := players["all_players"].([]any)
	for _, item := range all {
		if m, ok := item.(map[string]any); ok && m["puuid"] == puuid {
			return true
		}
	}
	return false
}

// File is the outcome of loading one file.
type File struct {
	Path     string
	Payloads []normalize.Payload
	Err      error
}

// LoadFiles loads paths with at most workers files in flight. Failures are
// reported per file and never stop the batch; only cancellation does.
// Results keep the order of paths.
func LoadFiles(ctx context.Context, paths []string, workers int) ([]File, error) {
	out := make([]File, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			payloads, err := Load(path)
			out[i] = File{Path: path, Payloads: payloads, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// DirSource serves payload files stored under a directory tree.
type DirSource struct {
	Dir     string
	Workers int
}

var _ Source = DirSource{}

// Files lists readable payload files under the directory, sorted.
func (s DirSource) Files() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.Dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && IsPayloadFile(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.Dir, err)
	}
	slices.Sort(paths)
	return paths, nil
}

// Matches returns every payload in the directory that includes puuid. An
// empty puuid returns all payloads. The first unreadable file is an error.
func (s DirSource) Matches(ctx context.Context, puuid string) ([]normalize.Payload, error) {
	paths, err := s.Files()
	if err != nil {
		return nil, err
	}
	files, err := LoadFiles(ctx, paths, s.Workers)
	if err != nil {
		return nil, err
	}
	var out []normalize.Payload
	for _, f := range files {
		if f.Err != nil {
			return nil, f.Err
		}
		for _, p := range f.Payloads {
			if puuid == "" || HasPlayer(p, puuid) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}
