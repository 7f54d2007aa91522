// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/bureau-foundation/hexlog/lib/hexdump"
)

func TestCarryKeepsAlignment(t *testing.T) {
	random := rand.New(rand.NewPCG(1, 2))
	var carry carryBuffer
	var emitted, all []byte
	emit := func(chunk []byte) {
		if len(chunk)%hexdump.LineWidth != 0 {
			t.Fatalf("emitted %d bytes, not a multiple of %d", len(chunk), hexdump.LineWidth)
		}
		emitted = append(emitted, chunk...)
	}

	for range 500 {
		chunk := make([]byte, random.IntN(ScratchSize)+1)
		for i := range chunk {
			chunk[i] = byte(random.Uint32())
		}
		all = append(all, chunk...)
		if err := carry.append(chunk, emit); err != nil {
			t.Fatalf("append: %v", err)
		}
		if carry.Len() >= hexdump.LineWidth {
			t.Fatalf("carry length %d after append, want < %d", carry.Len(), hexdump.LineWidth)
		}
		if carry.Len() != len(all)%hexdump.LineWidth {
			t.Fatalf("carry length %d, want total %d mod %d", carry.Len(), len(all), hexdump.LineWidth)
		}
	}

	carry.flush(func(chunk []byte) { emitted = append(emitted, chunk...) })
	if !bytes.Equal(emitted, all) {
		t.Error("emitted bytes differ from appended bytes")
	}
	if carry.Len() != 0 {
		t.Errorf("carry length %d after flush, want 0", carry.Len())
	}
}

func TestCarryShortAppendDoesNotEmit(t *testing.T) {
	var carry carryBuffer
	emit := func(chunk []byte) { t.Fatalf("unexpected emit of %d bytes", len(chunk)) }
	for _, chunk := range [][]byte{[]byte("abc"), []byte("defghij"), []byte("klmno")} {
		if err := carry.append(chunk, emit); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if carry.Len() != 15 {
		t.Errorf("carry length %d, want 15", carry.Len())
	}
}

func TestCarryCompletesLine(t *testing.T) {
	var carry carryBuffer
	var emitted []byte
	emit := func(chunk []byte) { emitted = append(emitted, chunk...) }
	if err := carry.append([]byte("0123456789abcde"), emit); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := carry.append([]byte("fXY"), emit); err != nil {
		t.Fatalf("append: %v", err)
	}
	if string(emitted) != "0123456789abcdef" {
		t.Errorf("emitted %q, want first 16 bytes", emitted)
	}
	var rest []byte
	carry.flush(func(chunk []byte) { rest = append(rest, chunk...) })
	if string(rest) != "XY" {
		t.Errorf("remainder %q, want %q", rest, "XY")
	}
}

func TestCarryOverflow(t *testing.T) {
	var carry carryBuffer
	err := carry.append(make([]byte, CarryCapacity+1), func([]byte) {})
	if !errors.Is(err, ErrCarryOverflow) {
		t.Fatalf("append of %d bytes: got %v, want ErrCarryOverflow", CarryCapacity+1, err)
	}
}

func TestCarryDiscard(t *testing.T) {
	var carry carryBuffer
	if err := carry.append([]byte("partial"), func([]byte) {}); err != nil {
		t.Fatalf("append: %v", err)
	}
	carry.discard()
	carry.flush(func(chunk []byte) { t.Fatalf("flush after discard emitted %q", chunk) })
}
