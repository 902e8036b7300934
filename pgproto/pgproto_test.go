package pgproto

import (
	"bytes"
	"net"
	"testing"
)

func TestEncodeStartupShape(t *testing.T) {
	pkt := EncodeStartup("mydb", "jake", "")
	if len(pkt) != StartupLength {
		t.Fatalf("got length %d want %d", len(pkt), StartupLength)
	}
	if pkt[0] != 0 || pkt[1] != 0 || pkt[2] != 1 || pkt[3] != 40 {
		t.Fatalf("unexpected length prefix bytes: %v", pkt[:4])
	}
	if pkt[4] != 0 || pkt[5] != 2 {
		t.Fatalf("unexpected major version bytes: %v", pkt[4:6])
	}
	dbField := pkt[8 : 8+64]
	if !bytes.HasPrefix(dbField, []byte("mydb")) {
		t.Fatalf("database field missing: %v", dbField[:8])
	}
}

func TestEncodeQuery(t *testing.T) {
	pkt := EncodeQuery("SELECT 1")
	if pkt[0] != 'Q' {
		t.Fatalf("missing Q tag")
	}
	if pkt[len(pkt)-1] != 0 {
		t.Fatalf("missing NUL terminator")
	}
	if string(pkt[1:len(pkt)-1]) != "SELECT 1" {
		t.Fatalf("got %q", pkt[1:len(pkt)-1])
	}
}

func TestEncodeFunctionCall(t *testing.T) {
	pkt := EncodeFunctionCall(951, []FuncallArg{OIDArg(42), IntArg(-1), BytesArg([]byte("ab"))})
	if pkt[0] != 'F' || pkt[1] != 0 {
		t.Fatalf("missing F\\0 prefix")
	}
}

func TestNullBitmapRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 8, 9, 33} {
		present := make([]bool, n)
		for i := range present {
			present[i] = i%2 == 0
		}
		bitmap := BuildNullBitmap(present)
		wantBytes := (n + 7) / 8
		if len(bitmap) != wantBytes {
			t.Fatalf("fields=%d: bitmap len %d want %d", n, len(bitmap), wantBytes)
		}
		for i, p := range present {
			if FieldPresent(bitmap, i) != p {
				t.Fatalf("fields=%d: bit %d got %v want %v", n, i, FieldPresent(bitmap, i), p)
			}
		}
	}
}

func TestZeroFieldRowHasEmptyBitmap(t *testing.T) {
	if NullBitmapSize(0) != 0 {
		t.Fatalf("expected zero-length bitmap for zero fields")
	}
}

func TestReaderReadExactAndCString(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		server.Write([]byte("hello\x00world"))
	}()

	r := NewReader(client)
	s, err := r.ReadCString()
	if err != nil {
		t.Fatal(err)
	}
	if s != "hello" {
		t.Fatalf("got %q", s)
	}
	rest, err := r.ReadN(5)
	if err != nil {
		t.Fatal(err)
	}
	if string(rest) != "world" {
		t.Fatalf("got %q", rest)
	}
}

func TestReaderReportsClosedConnection(t *testing.T) {
	client, server := net.Pipe()
	server.Close()

	r := NewReader(client)
	_, err := r.ReadN(4)
	if err == nil {
		t.Fatal("expected error on closed connection")
	}
}
