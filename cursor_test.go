package pkl

import (
	"math/big"
	"testing"
)

func TestCursorReadPrimitives(t *testing.T) {
	c := newCursor([]byte{0x01, 0x02, 0x00, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a})
	b, err := c.readByte()
	if err != nil || b != 0x01 {
		t.Fatalf("readByte() = %v, %v", b, err)
	}
	u16, err := c.readU16LE()
	if err != nil || u16 != 0x0002 {
		t.Fatalf("readU16LE() = %v, %v", u16, err)
	}
	rest, err := c.readBytes(8)
	if err != nil || len(rest) != 8 {
		t.Fatalf("readBytes(8) = %v, %v", rest, err)
	}
}

func TestCursorTruncated(t *testing.T) {
	c := newCursor([]byte{0x01})
	if _, err := c.readBytes(4); err == nil {
		t.Fatal("readBytes(4) on a 1-byte buffer should fail")
	}
}

func TestCursorReadLineRequiresTerminator(t *testing.T) {
	c := newCursor([]byte("no newline here"))
	if _, err := c.readLine(); err == nil {
		t.Fatal("readLine() without a terminating \\n should fail")
	}
}

func TestCursorReadLine(t *testing.T) {
	c := newCursor([]byte("abc\ndef"))
	line, err := c.readLine()
	if err != nil || string(line) != "abc" {
		t.Fatalf("readLine() = %q, %v", line, err)
	}
	if string(c.remaining()) != "def" {
		t.Fatalf("remaining() = %q, want %q", c.remaining(), "def")
	}
}

func TestDecodeLongBytesTwosComplement(t *testing.T) {
	cases := []struct {
		raw  []byte
		want *big.Int
	}{
		{[]byte{}, big.NewInt(0)},
		{[]byte{0x01}, big.NewInt(1)},
		{[]byte{0xff}, big.NewInt(-1)},
		{[]byte{0x00, 0x01}, big.NewInt(256)},
		{[]byte{0xff, 0x7f}, big.NewInt(32767)},
	}
	for _, c := range cases {
		got := decodeLongBytes(c.raw)
		if got.Cmp(c.want) != 0 {
			t.Errorf("decodeLongBytes(% x) = %v, want %v", c.raw, got, c.want)
		}
	}
}
