// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/deep-research/pkg/types"
)

const (
	// DefaultOutputDir is where reports are written when none is configured.
	DefaultOutputDir = "research_reports"

	reportPrefix   = "research_report_"
	filenameLayout = "20060102_150405"
	metadataExt    = ".yaml"
)

// Metadata is the YAML sidecar written next to each report.
type Metadata struct {
	ReportFile    string                 `yaml:"report_file"`
	GeneratedAt   string                 `yaml:"generated_at"`
	Decomposition types.ResearchQuery    `yaml:"decomposition"`
	Results       []types.ResearchResult `yaml:"results"`
}

// Mirror receives a copy of every saved report. S3Mirror is the
// production implementation.
type Mirror interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) error
}

// Saver persists compiled reports.
type Saver struct {
	// OutputDir is created on demand (default "research_reports").
	OutputDir string

	// Mirror optionally copies reports elsewhere. Mirror failures are
	// logged and never fail the save.
	Mirror Mirror

	// Now names reports; nil means time.Now.
	Now    func() time.Time
	Logger *zap.Logger
}

// DefaultFilename returns research_report_YYYYMMDD_HHMMSS.md for t.
func DefaultFilename(t time.Time) string {
	return reportPrefix + t.Format(filenameLayout) + ".md"
}

// Save writes report to the output directory and returns its path. An
// empty filename uses DefaultFilename. When the name is taken an
// underscore and eight hex characters are appended before the extension.
// When meta is non-nil a YAML sidecar with the same base name is written
// too. On failure the path is empty.
func (s *Saver) Save(ctx context.Context, report string, meta *Metadata, filename string) (string, error) {
	log := s.logger()
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	dir := s.OutputDir
	if dir == "" {
		dir = DefaultOutputDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	if filename == "" {
		filename = DefaultFilename(now())
	}
	path, err := createUnique(dir, filename, []byte(report))
	if err != nil {
		log.Error("saving report failed", zap.String("file", filename), zap.Error(err))
		return "", err
	}
	log.Info("report saved", zap.String("path", path), zap.Int("bytes", len(report)))

	name := filepath.Base(path)
	var sidecar []byte
	if meta != nil {
		m := *meta
		m.ReportFile = name
		if m.GeneratedAt == "" {
			m.GeneratedAt = now().Format(time.RFC3339)
		}
		sidecar, err = yaml.Marshal(&m)
		if err != nil {
			return path, fmt.Errorf("encoding report metadata: %w", err)
		}
		if err := os.WriteFile(MetadataPath(path), sidecar, 0o644); err != nil {
			return path, fmt.Errorf("writing report metadata: %w", err)
		}
	}

	if s.Mirror != nil {
		if err := s.Mirror.Upload(ctx, name, []byte(report), "text/markdown; charset=utf-8"); err != nil {
			log.Warn("mirroring report failed", zap.String("file", name), zap.Error(err))
		}
		if sidecar != nil {
			metaName := filepath.Base(MetadataPath(path))
			if err := s.Mirror.Upload(ctx, metaName, sidecar, "application/yaml"); err != nil {
				log.Warn("mirroring report metadata failed", zap.String("file", metaName), zap.Error(err))
			}
		}
	}
	return path, nil
}

// createUnique writes data to dir/name, choosing a suffixed name if the
// file already exists. O_EXCL makes the check and the create atomic.
func createUnique(dir, name string, data []byte) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for attempt := 0; attempt < 5; attempt++ {
		path := filepath.Join(dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			candidate = base + "_" + uuid.NewString()[:8] + ext
			continue
		}
		if err != nil {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("closing %s: %w", path, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free file name for %s", name)
}

// MetadataPath returns the sidecar path for a report path.
func MetadataPath(reportPath string) string {
	return strings.TrimSuffix(reportPath, filepath.Ext(reportPath)) + metadataExt
}

// LoadMetadata reads the sidecar written for reportPath.
func LoadMetadata(reportPath string) (*Metadata, error) {
	data, err := os.ReadFile(MetadataPath(reportPath))
	if err != nil {
		return nil, fmt.Errorf("reading report metadata: %w", err)
	}
	var m Metadata
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing report metadata: %w", err)
	}
	return &m, nil
}

// ListReports returns the report files in dir, newest name first.
func ListReports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading report directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files, nil
}

func (s *Saver) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}
