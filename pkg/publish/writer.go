package publish

import (
	"archive/tar"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/David-Botos/linelist-curation/pkg/model"
)

// SourcesListFile holds the unique source citations of the published dataset
const SourcesListFile = "sources_list.txt"

const snapshotTimeLayout = "2006-01-02T150405"

// Publication lists the files written by one publish
type Publication struct {
	LatestCSV     string
	LatestArchive string
	Timestamped   string
	SourcesList   string
}

// Paths returns every written file
func (p Publication) Paths() []string {
	return []string{p.LatestCSV, p.LatestArchive, p.Timestamped, p.SourcesList}
}

// CommitPaths returns the files tracked in the output repository. The
// uncompressed latestdata.csv is too large to commit.
func (p Publication) CommitPaths() []string {
	return []string{p.LatestArchive, p.SourcesList}
}

// Publisher writes the merged dataset to the output directory
type Publisher struct {
	fs     afero.Fs
	outDir string
	now    func() time.Time
	logger *zap.Logger
}

// NewPublisher creates a publisher rooted at outDir
func NewPublisher(fs afero.Fs, outDir string, logger *zap.Logger) *Publisher {
	return &Publisher{fs: fs, outDir: outDir, now: time.Now, logger: logger.Named("publisher")}
}

// WithClock overrides the clock used for the timestamped snapshot name
func (p *Publisher) WithClock(now func() time.Time) *Publisher {
	p.now = now
	return p
}

// Publish replaces the latest snapshot with ds. It must run after Guard.Check.
func (p *Publisher) Publish(ds *model.Dataset, report GuardReport) (Publication, error) {
	latestDir := filepath.Join(p.outDir, LatestDir)
	pub := Publication{
		LatestCSV:     filepath.Join(latestDir, LatestCSV),
		LatestArchive: filepath.Join(latestDir, LatestArchive),
		Timestamped:   filepath.Join(p.outDir, "covid-19.data."+p.now().Format(snapshotTimeLayout)+".csv"),
		SourcesList:   filepath.Join(p.outDir, SourcesListFile),
	}

	if err := p.fs.MkdirAll(latestDir, 0o755); err != nil {
		return Publication{}, fmt.Errorf("creating %s: %w", latestDir, err)
	}
	for _, old := range []string{pub.LatestCSV, pub.LatestArchive} {
		if err := p.fs.Remove(old); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Publication{}, fmt.Errorf("removing old snapshot %s: %w", old, err)
		}
	}

	data, err := encodeCSV(ds)
	if err != nil {
		return Publication{}, err
	}
	if err := afero.WriteFile(p.fs, pub.Timestamped, data, 0o644); err != nil {
		return Publication{}, fmt.Errorf("writing %s: %w", pub.Timestamped, err)
	}
	if err := afero.WriteFile(p.fs, pub.LatestCSV, data, 0o644); err != nil {
		return Publication{}, fmt.Errorf("writing %s: %w", pub.LatestCSV, err)
	}
	if err := p.writeArchive(pub.LatestArchive, data); err != nil {
		return Publication{}, err
	}
	if err := afero.WriteFile(p.fs, pub.SourcesList, []byte(sourcesList(ds)), 0o644); err != nil {
		return Publication{}, fmt.Errorf("writing %s: %w", pub.SourcesList, err)
	}

	p.logger.Info("Published dataset",
		zap.Int("rows", ds.Len()),
		zap.Int("delta", report.Delta),
		zap.Bool("shrunk", report.Shrunk),
		zap.Strings("paths", pub.Paths()))
	return pub, nil
}

func (p *Publisher) writeArchive(path string, csvData []byte) error {
	f, err := p.fs.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	tw := tar.NewWriter(zw)
	hdr := &tar.Header{
		Name:    LatestCSV,
		Mode:    0o644,
		Size:    int64(len(csvData)),
		ModTime: p.now(),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing tar header: %w", err)
	}
	if _, err := tw.Write(csvData); err != nil {
		return fmt.Errorf("writing tar entry: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing gzip stream: %w", err)
	}
	return nil
}

func encodeCSV(ds *model.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(ds.Columns); err != nil {
		return nil, fmt.Errorf("encoding header: %w", err)
	}
	for _, rec := range ds.Records {
		if err := w.Write(ds.Values(rec)); err != nil {
			return nil, fmt.Errorf("encoding record %s: %w", rec.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encoding dataset: %w", err)
	}
	return buf.Bytes(), nil
}

func sourcesList(ds *model.Dataset) string {
	seen := make(map[string]struct{})
	for _, rec := range ds.Records {
		if s := rec.Get(model.FieldSource); s != "" {
			seen[s] = struct{}{}
		}
	}
	sources := make([]string, 0, len(seen))
	for s := range seen {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	var b strings.Builder
	for _, s := range sources {
		b.WriteString(s)
		b.WriteByte('\n')
	}
	return b.String()
}
