package container

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"github.com/GasDet-Bonn/tpx3-interpretation/recordschema"
)

// CompressedWriter is a HitWriter that snappy-compresses the hit table
// before writing it to an io.Writer, using the same wrap-and-flush pattern
// as a buffered stream writer but over a plain io.Writer sink instead of a
// net.Conn, to honor the "stored compressed" requirement on a reference
// writer that has no real chunked-container backend.
type CompressedWriter struct {
	w          *snappy.Writer
	configSink ConfigProvider
	rowCount   int
}

// NewCompressedWriter wraps dst with a buffered snappy writer.
func NewCompressedWriter(dst io.Writer) *CompressedWriter {
	return &CompressedWriter{w: snappy.NewBufferedWriter(dst)}
}

// WriteHits serializes each row as fixed-width fields and flushes the
// snappy block. Row order is preserved; no reordering happens here, the
// pipeline has already globally sorted by TOA_Combined.
func (c *CompressedWriter) WriteHits(rows []recordschema.HitRow) error {
	buf := make([]byte, 0, len(rows)*rowSize)
	for _, r := range rows {
		buf = appendRow(buf, r)
	}
	if _, err := c.w.Write(buf); err != nil {
		return errors.Wrap(err, "container: writing compressed hit table")
	}
	if err := c.w.Flush(); err != nil {
		return errors.Wrap(err, "container: flushing compressed hit table")
	}
	c.rowCount += len(rows)
	return nil
}

// CopyConfiguration keeps the source provider by reference in an unexported
// field. This reference writer has no destination configuration tree: the
// configuration is not serialized, so it does not appear in the compressed
// output stream.
func (c *CompressedWriter) CopyConfiguration(src ConfigProvider) error {
	c.configSink = src
	return nil
}

const rowSize = 1 + 1 + 8 + 1 + 1 + 2 + 2 + 2 + 1 + 1 + 2 + 8 + 2 + 8 + 8

func appendRow(buf []byte, r recordschema.HitRow) []byte {
	var tmp [8]byte
	buf = append(buf, r.DataHeader, r.Header)
	binary.LittleEndian.PutUint64(tmp[:8], r.HitIndex)
	buf = append(buf, tmp[:8]...)
	buf = append(buf, r.X, r.Y)
	binary.LittleEndian.PutUint16(tmp[:2], r.TOA)
	buf = append(buf, tmp[:2]...)
	binary.LittleEndian.PutUint16(tmp[:2], r.TOT)
	buf = append(buf, tmp[:2]...)
	binary.LittleEndian.PutUint16(tmp[:2], r.EventCounter)
	buf = append(buf, tmp[:2]...)
	buf = append(buf, r.HitCounter, r.FTOA)
	binary.LittleEndian.PutUint16(tmp[:2], r.ScanParamID)
	buf = append(buf, tmp[:2]...)
	binary.LittleEndian.PutUint64(tmp[:8], math.Float64bits(r.ChunkStartTime))
	buf = append(buf, tmp[:8]...)
	binary.LittleEndian.PutUint16(tmp[:2], r.ITOT)
	buf = append(buf, tmp[:2]...)
	binary.LittleEndian.PutUint64(tmp[:8], r.TOAExtension)
	buf = append(buf, tmp[:8]...)
	binary.LittleEndian.PutUint64(tmp[:8], r.TOACombined)
	buf = append(buf, tmp[:8]...)
	return buf
}
