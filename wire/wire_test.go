package wire_test

import (
	"errors"
	"testing"

	"github.com/go-mclib/mcserver/wire"
)

type allScalars struct {
	B   bool
	I8  int8
	U8  uint8
	I16 int16
	U16 uint16
	I32 int32
	U32 uint32
	I64 int64
	U64 uint64
	F32 float32
	F64 float64
	S   string
}

func TestRoundTripScalars(t *testing.T) {
	in := allScalars{
		B: true, I8: -12, U8: 200,
		I16: -1000, U16: 60000,
		I32: -70000, U32: 4000000000,
		I64: -1, U64: 18446744073709551615,
		F32: 3.5, F64: -2.25,
		S: "hello, minecraft",
	}
	b, err := wire.Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out allScalars
	n, err := wire.Unmarshal(b, &out)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n != len(b) {
		t.Errorf("Unmarshal consumed %d, want %d", n, len(b))
	}
	if out != in {
		t.Errorf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestSizeIsExact(t *testing.T) {
	in := allScalars{S: "a longer string to pad the varint length prefix out a bit"}
	b, err := wire.Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	size, err := wire.Size(&in)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != len(b) {
		t.Errorf("Size() = %d, len(Marshal()) = %d", size, len(b))
	}
}

type fixedInts struct {
	V int32 `mc:"fixed"`
	L int64 `mc:"fixed"`
}

func TestFixedIntsAreBigEndianFourAndEightBytes(t *testing.T) {
	in := fixedInts{V: -1, L: -1}
	b, err := wire.Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(b) != 12 {
		t.Fatalf("len = %d, want 12 (4 + 8)", len(b))
	}
	for _, bb := range b {
		if bb != 0xff {
			t.Errorf("fixed -1 encoding byte = %#x, want 0xff", bb)
		}
	}
	var out fixedInts
	n, err := wire.Unmarshal(b, &out)
	if err != nil || n != 12 {
		t.Fatalf("Unmarshal: n=%d err=%v", n, err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

type withVarintInts struct {
	V int32
	L int64
}

func TestVarintIntsMatchVarintPackageEncoding(t *testing.T) {
	in := withVarintInts{V: 300, L: 300}
	b, err := wire.Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// VarInt(300) = 0xAC 0x02; same two-field layout for VarLong(300).
	want := []byte{0xAC, 0x02, 0xAC, 0x02}
	if string(b) != string(want) {
		t.Errorf("got % x, want % x", b, want)
	}
}

type withByteSlice struct {
	Data []byte
}

func TestByteSliceLengthPrefixed(t *testing.T) {
	in := withByteSlice{Data: []byte{1, 2, 3, 4, 5}}
	b, err := wire.Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := []byte{5, 1, 2, 3, 4, 5}
	if string(b) != string(want) {
		t.Errorf("got % x, want % x", b, want)
	}
	var out withByteSlice
	if _, err := wire.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if string(out.Data) != string(in.Data) {
		t.Errorf("got %v, want %v", out.Data, in.Data)
	}
}

type elem struct {
	X int32
	Y int32
}

type withElemSlice struct {
	Items []elem
}

func TestNonByteSliceIsCountPrefixedSequence(t *testing.T) {
	in := withElemSlice{Items: []elem{{1, 2}, {3, 4}, {5, 6}}}
	b, err := wire.Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out withElemSlice
	n, err := wire.Unmarshal(b, &out)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n != len(b) {
		t.Errorf("consumed %d, want %d", n, len(b))
	}
	if len(out.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(out.Items))
	}
	for i := range in.Items {
		if out.Items[i] != in.Items[i] {
			t.Errorf("item %d: got %+v, want %+v", i, out.Items[i], in.Items[i])
		}
	}
}

type withFixedArray struct {
	UUID [16]byte
}

func TestFixedArrayDefaultsToConcatenation(t *testing.T) {
	var in withFixedArray
	for i := range in.UUID {
		in.UUID[i] = byte(i)
	}
	b, err := wire.Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("len = %d, want 16 (no length prefix)", len(b))
	}
	var out withFixedArray
	n, err := wire.Unmarshal(b, &out)
	if err != nil || n != 16 {
		t.Fatalf("Unmarshal: n=%d err=%v", n, err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

type withSeqArray struct {
	Items [3]int32 `mc:"seq"`
}

func TestSeqArrayIsCountPrefixed(t *testing.T) {
	in := withSeqArray{Items: [3]int32{10, 20, 30}}
	b, err := wire.Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	// VarInt(3) then three VarInt-encoded single-byte values.
	want := []byte{3, 10, 20, 30}
	if string(b) != string(want) {
		t.Errorf("got % x, want % x", b, want)
	}
	var out withSeqArray
	if _, err := wire.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestSeqArrayCountMismatchIsInvalidData(t *testing.T) {
	b := []byte{4, 10, 20, 30}
	var out withSeqArray
	_, err := wire.Unmarshal(b, &out)
	if !errors.Is(err, wire.ErrInvalidData) {
		t.Errorf("got %v, want ErrInvalidData", err)
	}
}

type withMap struct {
	M map[string]string
}

func TestMapIsUnsupported(t *testing.T) {
	_, err := wire.Marshal(&withMap{M: map[string]string{"a": "b"}})
	if !errors.Is(err, wire.ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
}

func TestUnmarshalShortBufferIsUnexpectedEOF(t *testing.T) {
	var out withByteSlice
	_, err := wire.Unmarshal([]byte{5, 1, 2}, &out)
	if !errors.Is(err, wire.ErrUnexpectedEOF) {
		t.Errorf("got %v, want ErrUnexpectedEOF", err)
	}
}

func TestUnmarshalInvalidBoolByte(t *testing.T) {
	type hasBool struct{ B bool }
	var out hasBool
	_, err := wire.Unmarshal([]byte{2}, &out)
	if !errors.Is(err, wire.ErrInvalidData) {
		t.Errorf("got %v, want ErrInvalidData", err)
	}
}

func TestMarshalRejectsNonStruct(t *testing.T) {
	x := 5
	_, err := wire.Marshal(&x)
	if !errors.Is(err, wire.ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
}

func TestSizeRejectsNonStruct(t *testing.T) {
	x := 5
	_, err := wire.Size(&x)
	if !errors.Is(err, wire.ErrUnsupported) {
		t.Errorf("got %v, want ErrUnsupported", err)
	}
}

func TestSizeMatchesMarshalForSlicesAndNestedStructs(t *testing.T) {
	in := withElemSlice{Items: []elem{{1, 2}, {3, 4}, {5, 6}}}
	b, err := wire.Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	size, err := wire.Size(&in)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != len(b) {
		t.Errorf("Size() = %d, len(Marshal()) = %d", size, len(b))
	}
}

func TestNestedStruct(t *testing.T) {
	type inner struct {
		A int32
		B string
	}
	type outer struct {
		Name  string
		Inner inner
	}
	in := outer{Name: "x", Inner: inner{A: 42, B: "nested"}}
	b, err := wire.Marshal(&in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out outer
	n, err := wire.Unmarshal(b, &out)
	if err != nil || n != len(b) {
		t.Fatalf("Unmarshal: n=%d err=%v", n, err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}
