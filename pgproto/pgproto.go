// Package pgproto implements the PostgreSQL v2 frontend/backend wire
// format: outbound packet encoding, inbound packet tag dispatch, and the
// framed I/O primitives both are built on. It is the Framed I/O + Packet
// Codec components of the protocol engine (spec.md §4.1/§4.3), kept
// separate from pgconn because framing has nothing to do with the state
// machine that drives it.
package pgproto

import (
	"bufio"
	"encoding/binary"
	"io"
	"net"

	"github.com/mevdschee/pgwire/metrics"
	"github.com/mevdschee/pgwire/pgerror"
)

// Inbound packet tags, spec.md §4.3.
const (
	TagAuth             = 'R'
	TagBackendKeyData   = 'K'
	TagReadyForQuery    = 'Z'
	TagRowDescription   = 'T'
	TagAsciiRow         = 'D'
	TagBinaryRow        = 'B'
	TagCommandComplete  = 'C'
	TagEmptyQuery       = 'I'
	TagErrorResponse    = 'E'
	TagNoticeResponse   = 'N'
	TagNotification     = 'A'
	TagCursorResponse   = 'P'
	TagCopyInResponse   = 'G'
	TagCopyOutResponse  = 'H'
	TagFunctionResponse = 'V'
)

// Authentication codes carried in the R packet's payload, spec.md §4.3.
const (
	AuthOK              = 0
	AuthKerberosV4      = 1
	AuthKerberosV5      = 2
	AuthCleartextPwd    = 3
	AuthCryptPwd        = 4
	AuthMD5Pwd          = 5
)

// Reader frames an inbound byte stream: read-exactly-N and
// read-until-delimiter, both pulling more bytes from the socket on demand,
// per spec.md §4.1.
type Reader struct {
	br *bufio.Reader
}

func NewReader(conn net.Conn) *Reader {
	return &Reader{br: bufio.NewReaderSize(conn, 8192)}
}

// ReadN reads exactly n bytes, retrying on EINTR, and reports
// connection-closed as a fatal Operational error.
func (r *Reader) ReadN(n int) ([]byte, error) {
	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}
	if err := r.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (r *Reader) readFull(buf []byte) error {
	for len(buf) > 0 {
		n, err := io.ReadFull(r.br, buf)
		metrics.BytesRead.Add(float64(n))
		buf = buf[n:]
		if err == nil {
			return nil
		}
		if isEINTR(err) {
			continue
		}
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return pgerror.Wrap(pgerror.Operational, err, "connection to backend closed")
		}
		return pgerror.Wrap(pgerror.Operational, err, "read failed")
	}
	return nil
}

// ReadUntil reads bytes up to and including delim, and returns the bytes
// before it (the delimiter is not included in the result).
func (r *Reader) ReadUntil(delim byte) ([]byte, error) {
	line, err := r.br.ReadBytes(delim)
	metrics.BytesRead.Add(float64(len(line)))
	if err != nil {
		if err == io.EOF {
			return nil, pgerror.Wrap(pgerror.Operational, err, "connection to backend closed")
		}
		return nil, pgerror.Wrap(pgerror.Operational, err, "read failed")
	}
	return line[:len(line)-1], nil
}

// ReadCString reads a NUL-terminated string, as used throughout the wire
// protocol for names, tags, and messages.
func (r *Reader) ReadCString() (string, error) {
	b, err := r.ReadUntil(0)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadInt32 reads a big-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	b, err := r.ReadN(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadUint32 reads a big-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.ReadN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadInt16 reads a big-endian int16.
func (r *Reader) ReadInt16() (int16, error) {
	b, err := r.ReadN(2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

// ReadByte reads a single byte, satisfying io.ByteReader for callers that
// want to peek at a sub-tag (e.g. FunctionCall's 'G'/'0' dispatch).
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.ReadN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Buffered reports whether any bytes are currently sitting in the input
// buffer without touching the socket — used by wait_for_notify's
// check-before-poll step.
func (r *Reader) Buffered() int { return r.br.Buffered() }

// PeekByte blocks until at least one byte is available (or the
// underlying conn's read deadline expires) without consuming it, so a
// caller can detect readability before committing to a full packet read.
func (r *Reader) PeekByte() (byte, error) {
	b, err := r.br.Peek(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Writer frames outbound packets and loops send until all bytes are
// transmitted, retrying on EINTR, per spec.md §4.1.
type Writer struct {
	conn net.Conn
}

func NewWriter(conn net.Conn) *Writer { return &Writer{conn: conn} }

func (w *Writer) Write(data []byte) error {
	for len(data) > 0 {
		n, err := w.conn.Write(data)
		metrics.BytesWritten.Add(float64(n))
		if err != nil {
			if isEINTR(err) {
				continue
			}
			return pgerror.Wrap(pgerror.Operational, err, "write failed")
		}
		data = data[n:]
	}
	return nil
}

// isEINTR exists for parity with the original socket.error/errno.EINTR
// retry loop. Go's runtime-integrated netpoller retries interrupted
// syscalls internally and never surfaces EINTR through net.Conn, so this
// always returns false; it is the single place that fact is recorded.
func isEINTR(err error) bool {
	return false
}
