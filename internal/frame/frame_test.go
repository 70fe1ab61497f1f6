package frame

import (
	"bytes"
	"testing"
)

func TestSplitAndAssembleMiParcel(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, MiChunkSize*2+5)

	chunks := SplitMiParcel(payload)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	var asm MiParcelAssembler
	for _, c := range chunks {
		if err := asm.Add(c); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	if !bytes.Equal(asm.Bytes(), payload) {
		t.Fatalf("reassembled payload mismatch")
	}
}

func TestFrameCount(t *testing.T) {
	notification := []byte{0x01, 0x00, 0x00, 0x00, 0x05, 0x00}
	got, err := FrameCount(notification)
	if err != nil {
		t.Fatalf("FrameCount: %v", err)
	}
	if got != 5 {
		t.Fatalf("FrameCount = %d, want 5", got)
	}
}

func TestSplitAndJoinNbFrames(t *testing.T) {
	payload := bytes.Repeat([]byte{0x01, 0x02}, NbChunkSize)
	chunks := SplitNbFrames(payload)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	for _, c := range chunks {
		if len(c) != NbChunkSize {
			t.Fatalf("chunk size = %d, want %d", len(c), NbChunkSize)
		}
	}

	joined := JoinNbFrames(chunks)
	if !bytes.Equal(joined, payload) {
		t.Fatal("joined payload mismatch")
	}
}
