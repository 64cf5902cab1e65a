package simprint

import (
	"encoding/hex"
	"fmt"

	"github.com/ZanzyTHEbar/simprint-bench/simbench/common"
)

// CodeMatrix holds the decoded codes of a table in row order. All rows share
// the byte width of the first row; the width fixes the bit length every
// distance computation and threshold sweep runs against.
type CodeMatrix struct {
	codes [][]byte
	width int
}

// NewCodeMatrix validates and collects the codes of a table. Feeding codes
// of mixed widths is a caller error and reports the offending row.
func NewCodeMatrix(t *Table) (*CodeMatrix, error) {
	if t == nil || len(t.Rows) == 0 {
		return nil, common.ErrEmptyTable
	}
	width := len(t.Rows[0].Code)
	if width == 0 {
		return nil, fmt.Errorf("row %d: %w", t.Rows[0].ID, common.ErrCodeWidthMismatch)
	}

	codes := make([][]byte, len(t.Rows))
	for i, row := range t.Rows {
		if len(row.Code) != width {
			return nil, fmt.Errorf("row %d has %d bytes, first row has %d: %w",
				row.ID, len(row.Code), width, common.ErrCodeWidthMismatch)
		}
		codes[i] = row.Code
	}
	return &CodeMatrix{codes: codes, width: width}, nil
}

// Len returns the number of codes.
func (m *CodeMatrix) Len() int {
	return len(m.codes)
}

// Width returns the code width in bytes.
func (m *CodeMatrix) Width() int {
	return m.width
}

// BitLength returns the code width in bits.
func (m *CodeMatrix) BitLength() int {
	return m.width * 8
}

// At returns the code of row i. The slice is shared, not copied.
func (m *CodeMatrix) At(i int) []byte {
	return m.codes[i]
}

// EncodeRow returns the lowercase hex encoding of row i.
func (m *CodeMatrix) EncodeRow(i int) string {
	return hex.EncodeToString(m.codes[i])
}
