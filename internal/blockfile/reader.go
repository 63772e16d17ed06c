package blockfile

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/patgo25/pygama/internal/param"
)

// Reader streams frames out of a block file. It implements
// executor.Provider: each Fill call decodes the next frame into the chain
// input buffers, matched by name. Columns present in the file but not
// requested are skipped; a requested buffer missing from the file is an
// error.
type Reader struct {
	r    *bufio.Reader
	dec  *zstd.Decoder
	cols []Column
	done bool
}

// NewReader parses the file header.
func NewReader(r io.Reader) (*Reader, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("blockfile: %w", err)
	}
	br := &Reader{r: bufio.NewReader(r), dec: dec}
	if err := br.readHeader(); err != nil {
		return nil, err
	}
	return br, nil
}

// Columns returns the file's column schema.
func (br *Reader) Columns() []Column {
	out := make([]Column, len(br.cols))
	copy(out, br.cols)
	return out
}

func (br *Reader) readHeader() error {
	var m [4]byte
	if _, err := io.ReadFull(br.r, m[:]); err != nil {
		return fmt.Errorf("blockfile: failed to read magic: %w", err)
	}
	if m != magic {
		return fmt.Errorf("blockfile: bad magic %q", m)
	}
	var version uint16
	if err := binary.Read(br.r, binary.LittleEndian, &version); err != nil {
		return err
	}
	if version != formatVersion {
		return fmt.Errorf("blockfile: unsupported version %d", version)
	}
	var count uint16
	if err := binary.Read(br.r, binary.LittleEndian, &count); err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		var col Column
		var err error
		if col.Name, err = readString(br.r); err != nil {
			return err
		}
		dt, err := br.r.ReadByte()
		if err != nil {
			return err
		}
		col.DType = param.DType(dt)
		kind, err := br.r.ReadByte()
		if err != nil {
			return err
		}
		col.Kind = param.ShapeKind(kind)
		var width uint32
		if err := binary.Read(br.r, binary.LittleEndian, &width); err != nil {
			return err
		}
		col.Width = int(width)
		if col.Lengths, err = readString(br.r); err != nil {
			return err
		}
		if col.Unit, err = readString(br.r); err != nil {
			return err
		}
		br.cols = append(br.cols, col)
	}
	return nil
}

// Fill implements executor.Provider.
func (br *Reader) Fill(_ context.Context, dst []*param.Buffer, maxRows int) (int, error) {
	if br.done {
		return 0, io.EOF
	}

	var validRows uint32
	if err := binary.Read(br.r, binary.LittleEndian, &validRows); err != nil {
		if errors.Is(err, io.EOF) {
			br.done = true
			return 0, io.EOF
		}
		return 0, fmt.Errorf("blockfile: failed to read frame: %w", err)
	}
	rows := int(validRows)
	if rows > maxRows {
		return 0, fmt.Errorf("blockfile: frame holds %d rows, block takes at most %d", rows, maxRows)
	}

	byName := make(map[string]*param.Buffer, len(dst))
	for _, buf := range dst {
		byName[buf.Name()] = buf
	}

	digest := xxhash.New()
	// Mask payload: consumed for the checksum; sentinel values already
	// poison masked rows, so the mask itself is not re-applied here.
	if _, err := br.readPayload(digest); err != nil {
		return 0, err
	}
	filled := 0
	for _, col := range br.cols {
		comp, err := br.readPayload(digest)
		if err != nil {
			return 0, err
		}
		buf, wanted := byName[col.Name]
		if !wanted {
			continue
		}
		if buf.DType() != col.DType || !buf.Shape().Equal(col.Shape()) {
			return 0, fmt.Errorf("blockfile: column %q is %s %s, chain input wants %s %s",
				col.Name, col.DType, col.Shape(), buf.DType(), buf.Shape())
		}
		raw, err := br.dec.DecodeAll(comp, nil)
		if err != nil {
			return 0, fmt.Errorf("blockfile: column %q: %w", col.Name, err)
		}
		if err := decodeColumn(buf, raw, rows); err != nil {
			return 0, err
		}
		filled++
	}
	if filled != len(dst) {
		return 0, fmt.Errorf("blockfile: file provides %d of %d chain inputs", filled, len(dst))
	}

	var sum uint64
	if err := binary.Read(br.r, binary.LittleEndian, &sum); err != nil {
		return 0, fmt.Errorf("blockfile: failed to read checksum: %w", err)
	}
	if sum != digest.Sum64() {
		return 0, fmt.Errorf("blockfile: frame checksum mismatch")
	}
	return rows, nil
}

// readPayload reads one length-prefixed compressed payload and folds it
// into the frame checksum.
func (br *Reader) readPayload(digest *xxhash.Digest) ([]byte, error) {
	var length uint32
	if err := binary.Read(br.r, binary.LittleEndian, &length); err != nil {
		return nil, fmt.Errorf("blockfile: truncated frame: %w", err)
	}
	comp := make([]byte, length)
	if _, err := io.ReadFull(br.r, comp); err != nil {
		return nil, fmt.Errorf("blockfile: truncated payload: %w", err)
	}
	digest.Write(comp)
	return comp, nil
}

// Close releases the decoder.
func (br *Reader) Close() error {
	br.dec.Close()
	return nil
}

func readString(r *bufio.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	b := make([]byte, length)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
