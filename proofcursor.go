package mmr

import "encoding/binary"

// ProofCursor reads a proof program out of a caller-owned byte slice: a
// sequence of single-byte opcodes interleaved with length-prefixed node
// records (the record format the VM consumes immediately after opcode 2).
// Node records returned by ReadNode alias the underlying buffer; the
// cursor itself does not copy or allocate.
type ProofCursor struct {
	buf []byte
	pos int
}

// NewProofCursor wraps buf for sequential reading. buf is not copied and
// must not be mutated while the cursor is in use.
func NewProofCursor(buf []byte) *ProofCursor {
	return &ProofCursor{buf: buf}
}

// ReadCommand returns the next opcode byte, or ErrNoMoreCommands once the
// buffer is exhausted.
func (c *ProofCursor) ReadCommand() (byte, error) {
	if c.pos >= len(c.buf) {
		return 0, ErrNoMoreCommands
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// ReadNode reads one u16_le-length-prefixed node record and returns a
// slice aliasing buf. It returns ErrNodeEOF if the length prefix or the
// payload it declares would run past the end of buf.
func (c *ProofCursor) ReadNode() ([]byte, error) {
	node, n, err := readLengthPrefixed(c.buf, c.pos)
	if err != nil {
		return nil, err
	}
	c.pos += n
	return node, nil
}

// readLengthPrefixed parses a u16_le length followed by that many bytes,
// starting at buf[pos:]. It returns the payload slice (aliasing buf) and
// the number of bytes consumed, including the 2-byte prefix.
func readLengthPrefixed(buf []byte, pos int) ([]byte, int, error) {
	if len(buf)-pos < 2 {
		return nil, 0, ErrNodeEOF
	}
	length := int(binary.LittleEndian.Uint16(buf[pos:]))
	if len(buf)-pos-2 < length {
		return nil, 0, ErrNodeEOF
	}
	return buf[pos+2 : pos+2+length], 2 + length, nil
}
