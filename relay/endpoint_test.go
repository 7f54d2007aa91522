// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package relay

import (
	"bytes"
	"encoding/hex"
	"os"
	"strings"
	"testing"

	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/hexlog/lib/hexdump"
	"github.com/bureau-foundation/hexlog/lib/testutil"
)

// endpointHarness is an endpoint between two pipes. The test writes
// into feed and reads relayed bytes from drain.
type endpointHarness struct {
	endpoint *Endpoint
	feed     *os.File
	drain    *os.File
	log      *bytes.Buffer
}

func newEndpointHarness(t *testing.T, direction Direction, mode hexdump.Mode) *endpointHarness {
	t.Helper()
	sourceRead, sourceWrite := testutil.Pipe(t)
	sinkRead, sinkWrite := testutil.Pipe(t)
	log := &bytes.Buffer{}
	endpoint, err := NewEndpoint(EndpointConfig{
		Label:     DefaultInputLabel,
		Source:    sourceRead,
		Sink:      sinkWrite,
		Direction: direction,
		Log:       log,
		Formatter: hexdump.New(mode),
	})
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}
	t.Cleanup(func() { endpoint.Close() })
	return &endpointHarness{
		endpoint: endpoint,
		feed:     testutil.File(t, sourceWrite, "feed"),
		drain:    testutil.File(t, sinkRead, "drain"),
		log:      log,
	}
}

// relay writes data into the source, pumps until all of it has been
// relayed, and checks the sink received it unchanged.
func (h *endpointHarness) relay(t *testing.T, mask Direction, data []byte) {
	t.Helper()
	if _, err := h.feed.Write(data); err != nil {
		t.Fatalf("feeding %d bytes: %v", len(data), err)
	}
	before := h.endpoint.Summary().Relayed
	for h.endpoint.Summary().Relayed-before < uint64(len(data)) {
		result, err := h.endpoint.Pump(mask)
		if err != nil {
			t.Fatalf("Pump: %v", err)
		}
		if result != Processed {
			t.Fatalf("Pump = %v, want Processed", result)
		}
	}
	if got := testutil.ReadExactly(t, h.drain, len(data)); !bytes.Equal(got, data) {
		t.Fatalf("sink received %q, want %q", got, data)
	}
}

func TestEndpointScenarioHelloWorld(t *testing.T) {
	harness := newEndpointHarness(t, In, hexdump.Formatted)
	harness.relay(t, InOut, []byte("hello world!"))

	if harness.log.Len() != 0 {
		t.Fatalf("logged %q before a full line was available", harness.log.String())
	}
	if harness.endpoint.Pending() != 12 {
		t.Fatalf("Pending = %d, want 12", harness.endpoint.Pending())
	}

	harness.endpoint.Flush()
	want := "68 65 6C 6C 6F 20 77 6F  72 6C 64 21              |hello world!| (0)\n"
	if got := harness.log.String(); got != want {
		t.Errorf("log\n%q\nwant\n%q", got, want)
	}
}

func TestEndpointLinesCoverSixteenBytes(t *testing.T) {
	harness := newEndpointHarness(t, Out, hexdump.Formatted)
	var all []byte
	for i, size := range []int{1, 5, 16, 17, 31, 100, 7, 4096, 3, 4095} {
		chunk := bytes.Repeat([]byte{byte('a' + i)}, size)
		all = append(all, chunk...)
		harness.relay(t, Out, chunk)
		if harness.endpoint.Pending() != len(all)%hexdump.LineWidth {
			t.Fatalf("after %d bytes: Pending = %d, want %d", len(all), harness.endpoint.Pending(), len(all)%hexdump.LineWidth)
		}
	}
	harness.endpoint.Flush()

	lines := strings.Split(strings.TrimSuffix(harness.log.String(), "\n"), "\n")
	if want := (len(all) + hexdump.LineWidth - 1) / hexdump.LineWidth; len(lines) != want {
		t.Fatalf("got %d lines, want %d", len(lines), want)
	}
	want := string(hexdump.New(hexdump.Formatted).Append(nil, DefaultInputLabel, all))
	if harness.log.String() != want {
		t.Error("log differs from a single rendering of all relayed bytes")
	}
}

func TestEndpointDisabledDiscardsCarry(t *testing.T) {
	harness := newEndpointHarness(t, In, hexdump.Raw)

	harness.relay(t, In, []byte("0123456789"))
	if harness.endpoint.Pending() != 10 {
		t.Fatalf("Pending = %d, want 10", harness.endpoint.Pending())
	}

	// Logging toggled off: relay continues, the carry is dropped.
	harness.relay(t, Out, []byte("hidden"))
	if harness.endpoint.Pending() != 0 {
		t.Fatalf("Pending = %d with logging disabled, want 0", harness.endpoint.Pending())
	}

	harness.relay(t, InOut, []byte("ABCDEFGHIJKLMNOP"))
	harness.endpoint.Flush()
	if got := harness.log.String(); got != "ABCDEFGHIJKLMNOP" {
		t.Errorf("log = %q, want only bytes relayed while enabled", got)
	}
}

func TestEndpointNoneLogsNothing(t *testing.T) {
	harness := newEndpointHarness(t, In, hexdump.Formatted)
	for range 10 {
		harness.relay(t, None, bytes.Repeat([]byte("x"), 1000))
	}
	harness.endpoint.Flush()
	if harness.log.Len() != 0 {
		t.Errorf("logged %d bytes with mask none", harness.log.Len())
	}
	summary := harness.endpoint.Summary()
	if summary.Relayed != 10000 || summary.Logged != 0 {
		t.Errorf("summary relayed=%d logged=%d, want 10000 and 0", summary.Relayed, summary.Logged)
	}
}

func TestEndpointRawLogEqualsRelayedBytes(t *testing.T) {
	harness := newEndpointHarness(t, Out, hexdump.Raw)
	var all []byte
	for i := range 20 {
		chunk := make([]byte, 37*i+1)
		for j := range chunk {
			chunk[j] = byte(i*31 + j)
		}
		all = append(all, chunk...)
		harness.relay(t, Out, chunk)
	}
	harness.endpoint.Flush()
	if !bytes.Equal(harness.log.Bytes(), all) {
		t.Errorf("raw log (%d bytes) differs from relayed bytes (%d bytes)", harness.log.Len(), len(all))
	}
}

func TestEndpointEndOfStream(t *testing.T) {
	harness := newEndpointHarness(t, In, hexdump.Formatted)
	harness.feed.Close()

	result, err := harness.endpoint.Pump(InOut)
	if err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if result != EndOfStream {
		t.Fatalf("Pump = %v, want EndOfStream", result)
	}

	if err := harness.endpoint.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := harness.endpoint.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if harness.endpoint.Source() != -1 || harness.endpoint.Sink() != -1 {
		t.Errorf("descriptors after Close = %d, %d; want -1, -1", harness.endpoint.Source(), harness.endpoint.Sink())
	}
	if result, err := harness.endpoint.Pump(InOut); result != EndOfStream || err != nil {
		t.Errorf("Pump after Close = %v, %v; want EndOfStream, nil", result, err)
	}
}

func TestEndpointDrainStopsWhenEmpty(t *testing.T) {
	harness := newEndpointHarness(t, Out, hexdump.Raw)
	data := bytes.Repeat([]byte("drain"), 3000)
	if _, err := harness.feed.Write(data); err != nil {
		t.Fatalf("feed: %v", err)
	}

	// The writer stays open, so only non-blocking reads can finish.
	if err := harness.endpoint.Drain(Out); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if got := testutil.ReadExactly(t, harness.drain, len(data)); !bytes.Equal(got, data) {
		t.Fatal("drained bytes differ from written bytes")
	}
	if !bytes.Equal(harness.log.Bytes(), data) {
		t.Errorf("logged %d bytes, want %d", harness.log.Len(), len(data))
	}
}

func TestEndpointDrainIsBounded(t *testing.T) {
	// /dev/zero never runs dry, like a descendant that keeps writing
	// after the child has exited.
	source, err := unix.Open("/dev/zero", unix.O_RDONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		t.Skipf("open /dev/zero: %v", err)
	}
	sink, err := unix.Open(os.DevNull, unix.O_WRONLY|unix.O_CLOEXEC, 0)
	if err != nil {
		unix.Close(source)
		t.Fatalf("open %s: %v", os.DevNull, err)
	}
	log := &bytes.Buffer{}
	endpoint, err := NewEndpoint(EndpointConfig{
		Label:     DefaultOutputLabel,
		Source:    source,
		Sink:      sink,
		Direction: Out,
		Log:       log,
		Formatter: hexdump.New(hexdump.Raw),
	})
	if err != nil {
		t.Fatalf("NewEndpoint: %v", err)
	}
	t.Cleanup(func() { endpoint.Close() })

	done := make(chan error, 1)
	go func() { done <- endpoint.Drain(Out) }()
	if err := testutil.RequireReceive(t, done, loopTimeout, "drain of an endless source"); err != nil {
		t.Fatalf("Drain: %v", err)
	}

	relayed := endpoint.Summary().Relayed
	if relayed < drainLimit || relayed >= drainLimit+ScratchSize {
		t.Errorf("Drain relayed %d bytes, want between %d and %d", relayed, drainLimit, drainLimit+ScratchSize)
	}
	if uint64(log.Len()) != relayed {
		t.Errorf("logged %d bytes, want %d", log.Len(), relayed)
	}
}

func TestEndpointSummaryDigest(t *testing.T) {
	harness := newEndpointHarness(t, In, hexdump.Formatted)
	data := []byte("the quick brown fox jumps over the lazy dog")
	harness.relay(t, In, data[:10])
	harness.relay(t, None, data[10:])

	hasher, err := blake3.NewKeyed(digestKey[:])
	if err != nil {
		t.Fatalf("NewKeyed: %v", err)
	}
	hasher.Write(data)

	summary := harness.endpoint.Summary()
	if summary.Label != DefaultInputLabel {
		t.Errorf("Label = %q, want %q", summary.Label, DefaultInputLabel)
	}
	if summary.Relayed != uint64(len(data)) {
		t.Errorf("Relayed = %d, want %d", summary.Relayed, len(data))
	}
	if want := hex.EncodeToString(hasher.Sum(nil)); summary.Digest != want {
		t.Errorf("Digest = %s, want %s", summary.Digest, want)
	}
}

func TestNewEndpointRejectsMask(t *testing.T) {
	for _, direction := range []Direction{None, InOut} {
		if _, err := NewEndpoint(EndpointConfig{Direction: direction}); err == nil {
			t.Errorf("NewEndpoint accepted direction %v", direction)
		}
	}
}
