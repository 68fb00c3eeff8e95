package world

import (
	"testing"

	"github.com/voidreach/voxelcore/server/world/chunk"
)

func sampleArrays() ([]chunk.ID, []uint8) {
	blocks := make([]chunk.ID, chunk.SX*chunk.SZ*chunk.SubH)
	light := make([]uint8, len(blocks))
	for i := range blocks {
		blocks[i] = chunk.ID(i % 7)
		light[i] = uint8((i * 13) & 0xFF)
	}
	return blocks, light
}

func TestEnvelopeRoundTrip(t *testing.T) {
	blocks, light := sampleArrays()
	data := EncodeSubChunk(blocks, light)

	gotBlocks, gotLight, err := DecodeSubChunk(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i := range blocks {
		if gotBlocks[i] != blocks[i] {
			t.Fatalf("block %d: got %d, want %d", i, gotBlocks[i], blocks[i])
		}
		if gotLight[i] != light[i] {
			t.Fatalf("light %d: got %d, want %d", i, gotLight[i], light[i])
		}
	}
}

func TestEnvelopeNoLight(t *testing.T) {
	blocks, _ := sampleArrays()
	data := EncodeSubChunk(blocks, nil)

	gotBlocks, gotLight, err := DecodeSubChunk(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if gotLight != nil {
		t.Fatal("expected nil light data when the flag is unset")
	}
	if len(gotBlocks) != len(blocks) {
		t.Fatalf("block count: got %d, want %d", len(gotBlocks), len(blocks))
	}
}

func TestEnvelopeRejectsCorruption(t *testing.T) {
	blocks, light := sampleArrays()
	data := EncodeSubChunk(blocks, light)

	data[envelopeHeaderSize+100] ^= 0xFF
	if _, _, err := DecodeSubChunk(data); err == nil {
		t.Fatal("corrupted payload must fail the checksum")
	}
}

func TestEnvelopeRejectsBadMagic(t *testing.T) {
	blocks, light := sampleArrays()
	data := EncodeSubChunk(blocks, light)
	data[0] ^= 0xFF
	if _, _, err := DecodeSubChunk(data); err == nil {
		t.Fatal("wrong magic must be rejected")
	}
}

func TestEnvelopeRejectsTruncation(t *testing.T) {
	blocks, light := sampleArrays()
	data := EncodeSubChunk(blocks, light)
	if _, _, err := DecodeSubChunk(data[:len(data)/2]); err == nil {
		t.Fatal("truncated envelope must be rejected")
	}
}
