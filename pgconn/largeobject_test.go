package pgconn

import (
	"encoding/binary"
	"io"
	"testing"

	"github.com/mevdschee/pgwire/pgproto"
)

// sendFunctionResult writes a FunctionResponse ('V') carrying one 'G'
// sub-message with the given payload, terminated by '0', followed by
// ReadyForQuery — the shape every Funcall caller waits for.
func (s *fakeServer) sendFunctionResult(payload []byte) {
	buf := []byte{pgproto.TagFunctionResponse, 'G'}
	buf = append(buf, u32(uint32(len(payload)))...)
	buf = append(buf, payload...)
	buf = append(buf, '0')
	s.write(buf)
	s.sendReady()
}

func int32Bytes(n int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(n))
	return b
}

// lo_* function name -> OID table the fake server hands back from the
// bootstrap pg_proc query loInit runs on first use.
var loFuncOIDs = map[string]uint32{
	"lo_creat":  701,
	"lo_open":   702,
	"lo_unlink": 703,
	"loread":    704,
	"lowrite":   705,
	"lo_lseek":  706,
	"lo_tell":   707,
	"lo_close":  708,
}

func (s *fakeServer) handleLoInit() {
	if q := s.readQuery(); q != "SELECT proname, oid FROM pg_proc WHERE proname LIKE 'lo%'" {
		s.t.Fatalf("fake server: unexpected loInit query: %q", q)
	}
	s.sendRowDescription([]fieldSpec{{"proname", 25}, {"oid", 0}})
	for name, oid := range loFuncOIDs {
		s.sendAsciiRow([]any{name, itoa(oid)})
	}
	s.sendCommandComplete("SELECT")
	s.sendReady()
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// readFunctionCall drains one 'F' function-call request packet without
// inspecting its contents, since these tests only assert on responses.
func (s *fakeServer) readFunctionCall() {
	s.t.Helper()
	tag, err := s.r.ReadByte()
	if err != nil {
		s.t.Fatalf("fake server: read tag: %v", err)
	}
	if tag != 'F' {
		s.t.Fatalf("fake server: expected F, got %q", tag)
	}
	hdr := make([]byte, 1+4+4) // reserved byte, oid, arg count
	if _, err := io.ReadFull(s.r, hdr); err != nil {
		s.t.Fatalf("fake server: read function-call header: %v", err)
	}
	argCount := binary.BigEndian.Uint32(hdr[5:9])
	for i := uint32(0); i < argCount; i++ {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(s.r, lenBuf); err != nil {
			s.t.Fatalf("fake server: read arg length: %v", err)
		}
		n := binary.BigEndian.Uint32(lenBuf)
		arg := make([]byte, n)
		if _, err := io.ReadFull(s.r, arg); err != nil {
			s.t.Fatalf("fake server: read arg payload: %v", err)
		}
	}
}

// TestLargeObjectRoundTrip covers spec scenario 6: lo_open, write, seek,
// read, tell against a fresh object.
func TestLargeObjectRoundTrip(t *testing.T) {
	conn, srv, cleanup := dialTestConn(t)
	defer cleanup()

	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.handleLoInit()

		// LoOpen(oid, mode) -> fd 9
		srv.readFunctionCall()
		srv.sendFunctionResult(int32Bytes(9))
		// LoOpen's trailing Seek(0, SEEK_SET)
		srv.readFunctionCall()
		srv.sendFunctionResult(int32Bytes(0))
		// Write([]byte("abc"))
		srv.readFunctionCall()
		srv.sendFunctionResult(int32Bytes(3))
		// Seek(0, SEEK_SET)
		srv.readFunctionCall()
		srv.sendFunctionResult(int32Bytes(0))
		// Read(3)
		srv.readFunctionCall()
		srv.sendFunctionResult([]byte("abc"))
		// Tell()
		srv.readFunctionCall()
		srv.sendFunctionResult(int32Bytes(0))
	}()

	lo, err := conn.LoOpen(55, LoRead|LoWrite)
	if err != nil {
		t.Fatalf("LoOpen: %v", err)
	}
	if n, err := lo.Write([]byte("abc")); err != nil || n != 3 {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}
	if err := lo.Seek(0, SeekSet); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	data, err := lo.Read(3)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "abc" {
		t.Fatalf("Read = %q, want \"abc\"", data)
	}
	tell, err := lo.Tell()
	if err != nil {
		t.Fatalf("Tell: %v", err)
	}
	if tell != 0 {
		t.Fatalf("Tell on freshly opened object = %d, want 0", tell)
	}
	<-done
}
