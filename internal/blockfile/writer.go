package blockfile

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/patgo25/pygama/internal/param"
)

// Writer streams drained blocks into a block file. It implements
// executor.Sink. The column schema is fixed at construction from the
// buffers the chain will drain; every Drain call must pass the same
// buffers.
type Writer struct {
	w    *bufio.Writer
	enc  *zstd.Encoder
	cols []Column
}

// NewWriter writes the file header for the given output buffers and
// returns a sink that appends one frame per drained block.
func NewWriter(w io.Writer, outputs []*param.Buffer) (*Writer, error) {
	if len(outputs) == 0 {
		return nil, fmt.Errorf("blockfile: no output columns")
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("blockfile: %w", err)
	}
	bw := &Writer{w: bufio.NewWriter(w), enc: enc}
	for _, buf := range outputs {
		bw.cols = append(bw.cols, columnOf(buf))
	}
	if err := bw.writeHeader(); err != nil {
		return nil, err
	}
	return bw, nil
}

func (bw *Writer) writeHeader() error {
	if _, err := bw.w.Write(magic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw.w, binary.LittleEndian, formatVersion); err != nil {
		return err
	}
	if err := binary.Write(bw.w, binary.LittleEndian, uint16(len(bw.cols))); err != nil {
		return err
	}
	for _, col := range bw.cols {
		if err := writeString(bw.w, col.Name); err != nil {
			return err
		}
		if err := bw.w.WriteByte(byte(col.DType)); err != nil {
			return err
		}
		if err := bw.w.WriteByte(byte(col.Kind)); err != nil {
			return err
		}
		if err := binary.Write(bw.w, binary.LittleEndian, uint32(col.Width)); err != nil {
			return err
		}
		if err := writeString(bw.w, col.Lengths); err != nil {
			return err
		}
		if err := writeString(bw.w, col.Unit); err != nil {
			return err
		}
	}
	return nil
}

// Drain implements executor.Sink.
func (bw *Writer) Drain(_ context.Context, src []*param.Buffer, validRows int, mask *param.Mask) error {
	if len(src) != len(bw.cols) {
		return fmt.Errorf("blockfile: drain of %d columns, schema has %d", len(src), len(bw.cols))
	}
	if err := binary.Write(bw.w, binary.LittleEndian, uint32(validRows)); err != nil {
		return err
	}

	digest := xxhash.New()
	maskBytes := make([]byte, validRows)
	for r := 0; r < validRows; r++ {
		if mask.Valid(r) {
			maskBytes[r] = 1
		}
	}
	if err := bw.writePayload(digest, maskBytes); err != nil {
		return err
	}
	for i, buf := range src {
		if buf.Name() != bw.cols[i].Name {
			return fmt.Errorf("blockfile: drained column %q, schema expects %q", buf.Name(), bw.cols[i].Name)
		}
		if err := bw.writePayload(digest, encodeColumn(buf, validRows)); err != nil {
			return err
		}
	}
	return binary.Write(bw.w, binary.LittleEndian, digest.Sum64())
}

// writePayload compresses one payload, writes it length-prefixed, and
// folds the compressed bytes into the frame checksum.
func (bw *Writer) writePayload(digest *xxhash.Digest, raw []byte) error {
	comp := bw.enc.EncodeAll(raw, nil)
	if err := binary.Write(bw.w, binary.LittleEndian, uint32(len(comp))); err != nil {
		return err
	}
	if _, err := bw.w.Write(comp); err != nil {
		return err
	}
	digest.Write(comp)
	return nil
}

// Close flushes buffered frames. It does not close the underlying writer.
func (bw *Writer) Close() error {
	if err := bw.enc.Close(); err != nil {
		return err
	}
	return bw.w.Flush()
}

func writeString(w *bufio.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}
