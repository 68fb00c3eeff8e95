package world

import "testing"

func TestChunkPosFromBlockNegative(t *testing.T) {
	tests := []struct {
		pos  BlockPos
		want ChunkPos
	}{
		{BlockPos{0, 0, 0}, ChunkPos{0, 0}},
		{BlockPos{31, 0, 31}, ChunkPos{0, 0}},
		{BlockPos{32, 0, 0}, ChunkPos{1, 0}},
		{BlockPos{-1, 0, -1}, ChunkPos{-1, -1}},
		{BlockPos{-32, 0, -32}, ChunkPos{-1, -1}},
		{BlockPos{-33, 0, 0}, ChunkPos{-2, 0}},
	}
	for _, tt := range tests {
		if got := ChunkPosFromBlock(tt.pos); got != tt.want {
			t.Errorf("ChunkPosFromBlock(%v) = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestLocalBlockPositiveModulo(t *testing.T) {
	x, y, z := LocalBlock(BlockPos{-1, -1, -1})
	if x != SX-1 || y != SubH-1 || z != SZ-1 {
		t.Errorf("LocalBlock(-1,-1,-1) = (%d,%d,%d), want (%d,%d,%d)", x, y, z, SX-1, SubH-1, SZ-1)
	}
	x, y, z = LocalBlock(BlockPos{33, 65, 33})
	if x != 1 || y != 1 || z != 1 {
		t.Errorf("LocalBlock(33,65,33) = (%d,%d,%d), want (1,1,1)", x, y, z)
	}
}

func TestSubChunkPosFromBlock(t *testing.T) {
	sc := SubChunkPosFromBlock(BlockPos{10, SubH + 5, 10})
	if sc.Sub != 1 {
		t.Errorf("Sub = %d, want 1", sc.Sub)
	}
	rt := BlockFromChunkLocal(sc, 10, 5, 10)
	if rt != (BlockPos{10, SubH + 5, 10}) {
		t.Errorf("round-trip = %v, want (10, %d, 10)", rt, SubH+5)
	}
}

func TestLocalIndexYMajorContiguity(t *testing.T) {
	// A full horizontal slice at fixed y must occupy a contiguous index
	// range so column/slice scans stay cache-friendly.
	base := LocalIndex(0, 3, 0)
	last := LocalIndex(SX-1, 3, SZ-1)
	if last-base != SX*SZ-1 {
		t.Errorf("slice span = %d, want %d", last-base, SX*SZ-1)
	}
}
