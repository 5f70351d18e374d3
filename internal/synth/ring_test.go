package synth

import (
	"bytes"
	"testing"
	"time"
)

func TestChunkRingRoundTrip(t *testing.T) {
	r := NewChunkRing(2)
	stop := make(chan struct{})

	a := []byte{1, 2, 3, 4}
	b := []byte{5, 6, 7, 8}
	if !r.Push(stop, a) || !r.Push(stop, b) {
		t.Fatal("push failed on a ring with room")
	}

	got, ok := r.TryPop()
	if !ok || !bytes.Equal(got, a) {
		t.Fatalf("first pop = %v, %v", got, ok)
	}
	got, ok = r.TryPop()
	if !ok || !bytes.Equal(got, b) {
		t.Fatalf("second pop = %v, %v", got, ok)
	}
	if _, ok := r.TryPop(); ok {
		t.Error("pop on an empty ring succeeded")
	}
}

func TestChunkRingPushBlocksUntilStop(t *testing.T) {
	r := NewChunkRing(1)
	stop := make(chan struct{})
	r.Push(stop, []byte{1})

	done := make(chan bool)
	go func() {
		done <- r.Push(stop, []byte{2})
	}()

	select {
	case <-done:
		t.Fatal("push on a full ring returned without stop")
	case <-time.After(10 * time.Millisecond):
	}

	close(stop)
	if ok := <-done; ok {
		t.Error("push reported success after stop")
	}
}

func TestPackSamples8Bit(t *testing.T) {
	samples := []int32{0, 127, -127, -128, 64}
	dst := make([]byte, len(samples))
	PackSamples(dst, samples, 8, 1)

	want := []byte{128, 255, 1, 0, 192}
	if !bytes.Equal(dst, want) {
		t.Errorf("packed = %v, want %v", dst, want)
	}
}

func TestPackSamples16Bit(t *testing.T) {
	samples := []int32{0, 1, -1, 32767, -32768}
	dst := make([]byte, len(samples)*2)
	PackSamples(dst, samples, 16, 1)

	want := []byte{
		0x00, 0x00,
		0x01, 0x00,
		0xFF, 0xFF,
		0xFF, 0x7F,
		0x00, 0x80,
	}
	if !bytes.Equal(dst, want) {
		t.Errorf("packed = %v, want %v", dst, want)
	}
}

func TestPackSamplesStereoDuplicates(t *testing.T) {
	samples := []int32{10, -10}
	dst := make([]byte, len(samples)*2)
	PackSamples(dst, samples, 8, 2)

	want := []byte{138, 138, 118, 118}
	if !bytes.Equal(dst, want) {
		t.Errorf("packed = %v, want %v", dst, want)
	}
}

func TestSilenceByte(t *testing.T) {
	if got := SilenceByte(8); got != 128 {
		t.Errorf("SilenceByte(8) = %d, want 128", got)
	}
	if got := SilenceByte(16); got != 0 {
		t.Errorf("SilenceByte(16) = %d, want 0", got)
	}
}
