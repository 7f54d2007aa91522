// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package logsink

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/bureau-foundation/hexlog/lib/hexdump"
)

func TestParseCompression(t *testing.T) {
	tests := []struct {
		name    string
		want    Compression
		wantErr bool
	}{
		{name: "", want: None},
		{name: "none", want: None},
		{name: "lz4", want: LZ4},
		{name: "zstd", want: Zstd},
		{name: "gzip", wantErr: true},
		{name: "ZSTD", wantErr: true},
	}
	for _, test := range tests {
		got, err := ParseCompression(test.name)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseCompression(%q) = %v, want error", test.name, got)
			}
			continue
		}
		if err != nil || got != test.want {
			t.Errorf("ParseCompression(%q) = %v, %v; want %v", test.name, got, err, test.want)
		}
		if test.name != "" && got.String() != test.name {
			t.Errorf("%v.String() = %q, want %q", got, got.String(), test.name)
		}
	}
}

func decompress(t *testing.T, compression Compression, data []byte) string {
	t.Helper()
	var reader io.Reader
	switch compression {
	case None:
		reader = bytes.NewReader(data)
	case LZ4:
		reader = lz4.NewReader(bytes.NewReader(data))
	case Zstd:
		decoder, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("zstd reader: %v", err)
		}
		defer decoder.Close()
		reader = decoder
	}
	plain, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("decompress %v: %v", compression, err)
	}
	return string(plain)
}

// hexLog renders a realistic log: hex-dump lines of a repetitive
// protocol exchange.
func hexLog() []string {
	formatter := hexdump.New(hexdump.Formatted)
	var chunks []string
	for i := range 50 {
		message := strings.Repeat("GET /status HTTP/1.1\r\n", 1+i%3)
		chunks = append(chunks, string(formatter.Append(nil, " (0)", []byte(message))))
	}
	return chunks
}

func TestWriterRoundTrip(t *testing.T) {
	chunks := hexLog()
	want := strings.Join(chunks, "")

	for _, compression := range []Compression{None, LZ4, Zstd} {
		t.Run(compression.String(), func(t *testing.T) {
			var destination bytes.Buffer
			writer, err := New(&destination, compression)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			for _, chunk := range chunks {
				n, err := writer.Write([]byte(chunk))
				if err != nil || n != len(chunk) {
					t.Fatalf("Write = %d, %v; want %d, nil", n, err, len(chunk))
				}
			}
			if err := writer.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if err := writer.Close(); err != nil {
				t.Fatalf("second Close: %v", err)
			}

			if got := decompress(t, compression, destination.Bytes()); got != want {
				t.Errorf("decompressed log differs (%d bytes, want %d)", len(got), len(want))
			}
			// Blocks share one zstd window, so repeated exchanges
			// compress even though every write is flushed.
			if compression == Zstd && destination.Len() >= len(want) {
				t.Errorf("%v output is %d bytes for %d bytes of input", compression, destination.Len(), len(want))
			}
		})
	}
}

func TestWriterFlushesEachWrite(t *testing.T) {
	var destination bytes.Buffer
	writer, err := New(&destination, Zstd)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	line := "68 65 6C 6C 6F                                    |hello| (0)\n"
	if _, err := writer.Write([]byte(line)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	// Without Close the frame is incomplete, but the flushed block is
	// already decodable.
	decoder, err := zstd.NewReader(bytes.NewReader(destination.Bytes()))
	if err != nil {
		t.Fatalf("zstd reader: %v", err)
	}
	defer decoder.Close()
	got := make([]byte, len(line))
	if _, err := io.ReadFull(decoder, got); err != nil {
		t.Fatalf("reading flushed block: %v", err)
	}
	if string(got) != line {
		t.Errorf("flushed block = %q, want %q", got, line)
	}
}

func TestWriterAfterClose(t *testing.T) {
	writer, err := New(io.Discard, LZ4)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	writer.Close()
	if _, err := writer.Write([]byte("late")); err == nil {
		t.Error("Write after Close succeeded")
	}
}
