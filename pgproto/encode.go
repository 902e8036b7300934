package pgproto

import (
	"bytes"
	"encoding/binary"
)

// StartupLength is the fixed size of a v2 startup packet (spec.md §4.3).
const StartupLength = 296

// EncodeStartup builds the fixed-shape v2 startup packet: total length,
// major/minor version, the NUL-padded database, user and options fields,
// then two zero-filled 64-byte fields.
func EncodeStartup(database, user, options string) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, int32(StartupLength))
	binary.Write(buf, binary.BigEndian, int16(2))
	binary.Write(buf, binary.BigEndian, int16(0))
	buf.Write(padded(database, 64))
	buf.Write(padded(user, 32))
	buf.Write(padded(options, 64))
	buf.Write(make([]byte, 64))
	buf.Write(make([]byte, 64))
	return buf.Bytes()
}

func padded(s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return b
}

// EncodePasswordCleartext builds a cleartext password packet.
func EncodePasswordCleartext(password string) []byte {
	return encodePassword([]byte(password))
}

// EncodePasswordCrypt builds a crypt(3)-hashed password packet; callers
// supply the already-hashed value (see pgconn's auth code for how it's
// produced).
func EncodePasswordCrypt(hashed string) []byte {
	return encodePassword([]byte(hashed))
}

// EncodePasswordMD5 builds an MD5 password packet; callers supply the
// already-computed "md5"+hex digest.
func EncodePasswordMD5(hashed string) []byte {
	return encodePassword([]byte(hashed))
}

func encodePassword(payload []byte) []byte {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.BigEndian, int32(len(payload)+5))
	buf.Write(payload)
	buf.WriteByte(0)
	return buf.Bytes()
}

// EncodeQuery builds a simple-query packet: 'Q' + NUL-terminated SQL.
func EncodeQuery(sql string) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte('Q')
	buf.WriteString(sql)
	buf.WriteByte(0)
	return buf.Bytes()
}

// FuncallArg is one positional argument to EncodeFunctionCall. Exactly one
// of Int (signed 32-bit), OID (unsigned 32-bit, sent for non-negative
// 64-bit integers per spec.md §4.3), or Bytes should be set.
type FuncallArg struct {
	IsInt   bool
	Int     int32
	IsOID   bool
	OID     uint32
	Bytes   []byte
}

// IntArg builds a signed-integer function argument.
func IntArg(v int32) FuncallArg { return FuncallArg{IsInt: true, Int: v} }

// OIDArg builds an unsigned-integer (OID-shaped) function argument, used
// for positive 64-bit integers per spec.md §4.3.
func OIDArg(v uint32) FuncallArg { return FuncallArg{IsOID: true, OID: v} }

// BytesArg builds a raw-bytes function argument.
func BytesArg(v []byte) FuncallArg { return FuncallArg{Bytes: v} }

// EncodeFunctionCall builds an 'F' function-call request packet.
func EncodeFunctionCall(oid uint32, args []FuncallArg) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte('F')
	buf.WriteByte(0)
	binary.Write(buf, binary.BigEndian, oid)
	binary.Write(buf, binary.BigEndian, int32(len(args)))
	for _, a := range args {
		switch {
		case a.IsOID:
			binary.Write(buf, binary.BigEndian, int32(4))
			binary.Write(buf, binary.BigEndian, a.OID)
		case a.IsInt:
			binary.Write(buf, binary.BigEndian, int32(4))
			binary.Write(buf, binary.BigEndian, a.Int)
		default:
			binary.Write(buf, binary.BigEndian, int32(len(a.Bytes)))
			buf.Write(a.Bytes)
		}
	}
	return buf.Bytes()
}

// EncodeTerminate builds the single-byte 'X' terminate packet.
func EncodeTerminate() []byte { return []byte{'X'} }
