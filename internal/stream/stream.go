// Package stream feeds points read from a text source into a preallocated
// point cloud.
package stream

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/meshview/internal/logger"
	"github.com/Faultbox/meshview/pkg/mesh"
)

// DefaultBatchSize is the number of points sent per batch.
const DefaultBatchSize = 1024

// ReadBatches parses "x y z" lines from r and sends them to out in batches
// of at most batchSize rows. Blank lines and lines starting with # are
// skipped and extra columns are ignored. The last partial batch is sent at
// EOF. out is not closed.
func ReadBatches(ctx context.Context, r io.Reader, batchSize int, out chan<- mesh.MatrixD) error {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	send := func(rows []float64) error {
		batch := mesh.MatrixD{Rows: len(rows) / 3, Cols: 3, Data: rows}
		select {
		case out <- batch:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	rows := make([]float64, 0, 3*batchSize)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return errors.Errorf("line %d: want x y z, got %q", lineNo, line)
		}
		for _, f := range fields[:3] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return errors.Wrapf(err, "line %d", lineNo)
			}
			rows = append(rows, v)
		}
		if len(rows) == 3*batchSize {
			if err := send(rows); err != nil {
				return err
			}
			rows = make([]float64, 0, 3*batchSize)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "reading points")
	}
	if len(rows) > 0 {
		return send(rows)
	}
	return nil
}

// Sink appends batches to a point cloud whose V is preallocated. When the
// buffer is full the accumulated points are discarded and accumulation
// restarts from the incoming batch.
type Sink struct {
	m        *mesh.Mesh
	restarts int
}

// NewSink preallocates capacity rows of m.V.
func NewSink(m *mesh.Mesh, capacity int) *Sink {
	m.PreallocateV(capacity)
	return &Sink{m: m}
}

// Mesh returns the point cloud being filled.
func (s *Sink) Mesh() *mesh.Mesh {
	return s.m
}

// Restarts returns how often the buffer overflowed.
func (s *Sink) Restarts() int {
	return s.restarts
}

// Append copies batch into the point cloud. A batch larger than the whole
// buffer is dropped.
func (s *Sink) Append(batch *mesh.MatrixD) error {
	ok, err := s.m.AppendPoints(batch)
	if err != nil || ok {
		return err
	}

	blob := s.m.VBlob()
	start, end := blob.Allocated()
	if end == start {
		// Nothing to make room from, the batch alone does not fit.
		return nil
	}
	if err := blob.RecycleBlock(start, end); err != nil {
		return err
	}
	s.restarts++
	logger.Debug("point stream buffer restarted",
		zap.String("mesh", s.m.Name),
		zap.Int("restarts", s.restarts))
	_, err = s.m.AppendPoints(batch)
	return err
}
