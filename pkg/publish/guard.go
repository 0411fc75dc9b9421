package publish

import (
	"archive/tar"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Locations of the published snapshot inside the output directory
const (
	LatestDir     = "latest_data"
	LatestCSV     = "latestdata.csv"
	LatestArchive = "latestdata.tar.gz"
)

// GuardReport compares the new dataset size with the last published one
type GuardReport struct {
	Old    int
	New    int
	Delta  int
	Shrunk bool
}

// Guard checks that a publication does not lose rows
type Guard struct {
	fs     afero.Fs
	outDir string
	logger *zap.Logger
}

// NewGuard creates a guard over the snapshot kept in outDir
func NewGuard(fs afero.Fs, outDir string, logger *zap.Logger) *Guard {
	return &Guard{fs: fs, outDir: outDir, logger: logger.Named("guard")}
}

// Check compares newCount with the row count of the previous snapshot. A
// shrinking dataset is logged as an error but does not stop publication.
func (g *Guard) Check(newCount int) (GuardReport, error) {
	archive := filepath.Join(g.outDir, LatestDir, LatestArchive)

	oldCount, err := SnapshotRowCount(g.fs, archive)
	if errors.Is(err, os.ErrNotExist) {
		g.logger.Info("No previous snapshot, creating it", zap.String("path", archive))
		oldCount = 0
	} else if err != nil {
		return GuardReport{}, fmt.Errorf("reading previous snapshot: %w", err)
	}

	report := GuardReport{Old: oldCount, New: newCount, Delta: newCount - oldCount}
	report.Shrunk = report.Delta < 0

	if report.Shrunk {
		g.logger.Error("published dataset shrank",
			zap.Int("oldCount", report.Old),
			zap.Int("newCount", report.New),
			zap.Int("delta", report.Delta))
	} else {
		g.logger.Info("Row count check passed",
			zap.Int("oldCount", report.Old),
			zap.Int("newCount", report.New),
			zap.Int("delta", report.Delta))
	}
	return report, nil
}

// SnapshotRowCount counts the data rows of latestdata.csv inside a gzip tar
func SnapshotRowCount(fs afero.Fs, archive string) (int, error) {
	f, err := fs.Open(archive)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return 0, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer zr.Close()

	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%s not found in %s", LatestCSV, archive)
		}
		if err != nil {
			return 0, fmt.Errorf("reading tar entry: %w", err)
		}
		if filepath.Base(hdr.Name) == LatestCSV {
			return countRows(tr)
		}
	}
}

func countRows(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	rows := 0
	for {
		_, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("counting snapshot rows: %w", err)
		}
		rows++
	}
	// header
	if rows > 0 {
		rows--
	}
	return rows, nil
}
