package world

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/voidreach/voxelcore/server/world/chunk"
)

// Persisted sub-chunk binary envelope:
//
//	magic   u32 = 0x534C4F50 ("SLOP")
//	version u16 = 1
//	flags   u32; bit 0 = has light data, bit 1 = xxhash64 trailer
//	block-data length u32, light-data length u32
//	block data: blockCount·2 bytes, little-endian u16
//	light data (flag bit 0): blockCount bytes, packed nibbles
//	trailer (flag bit 1): xxhash64 of everything before it, little-endian
const (
	envelopeMagic   uint32 = 0x534C4F50
	envelopeVersion uint16 = 1

	flagHasLight uint32 = 1 << 0
	flagChecksum uint32 = 1 << 1

	envelopeHeaderSize = 4 + 2 + 4 + 4 + 4
)

// EncodeSubChunk serialises a sub-chunk's arrays into the versioned binary
// envelope. light may be nil when no light data has been computed yet; a
// content checksum is always appended so corruption is detected at load
// time rather than rendered.
func EncodeSubChunk(blocks []chunk.ID, light []uint8) []byte {
	flags := flagChecksum
	lightLen := 0
	if light != nil {
		flags |= flagHasLight
		lightLen = len(light)
	}

	buf := make([]byte, 0, envelopeHeaderSize+len(blocks)*2+lightLen+8)
	buf = binary.LittleEndian.AppendUint32(buf, envelopeMagic)
	buf = binary.LittleEndian.AppendUint16(buf, envelopeVersion)
	buf = binary.LittleEndian.AppendUint32(buf, flags)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(blocks)*2))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(lightLen))
	for _, id := range blocks {
		buf = binary.LittleEndian.AppendUint16(buf, id)
	}
	buf = append(buf, light...)
	buf = binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(buf))
	return buf
}

// DecodeSubChunk parses the envelope back into block and light arrays.
// light is nil when the envelope carried none.
func DecodeSubChunk(data []byte) (blocks []chunk.ID, light []uint8, err error) {
	if len(data) < envelopeHeaderSize {
		return nil, nil, fmt.Errorf("world: sub-chunk envelope truncated at %d bytes", len(data))
	}
	if magic := binary.LittleEndian.Uint32(data[0:4]); magic != envelopeMagic {
		return nil, nil, fmt.Errorf("world: bad sub-chunk envelope magic %#x", magic)
	}
	if version := binary.LittleEndian.Uint16(data[4:6]); version != envelopeVersion {
		return nil, nil, fmt.Errorf("world: unsupported sub-chunk envelope version %d", version)
	}
	flags := binary.LittleEndian.Uint32(data[6:10])
	blockLen := int(binary.LittleEndian.Uint32(data[10:14]))
	lightLen := int(binary.LittleEndian.Uint32(data[14:18]))

	want := envelopeHeaderSize + blockLen + lightLen
	if flags&flagChecksum != 0 {
		want += 8
	}
	if len(data) != want {
		return nil, nil, fmt.Errorf("world: sub-chunk envelope length mismatch: have %d, want %d", len(data), want)
	}
	if flags&flagChecksum != 0 {
		payload := data[:len(data)-8]
		if got := binary.LittleEndian.Uint64(data[len(data)-8:]); got != xxhash.Sum64(payload) {
			return nil, nil, fmt.Errorf("world: sub-chunk envelope checksum mismatch")
		}
	}

	blocks = make([]chunk.ID, blockLen/2)
	off := envelopeHeaderSize
	for i := range blocks {
		blocks[i] = binary.LittleEndian.Uint16(data[off : off+2])
		off += 2
	}
	if flags&flagHasLight != 0 {
		light = make([]uint8, lightLen)
		copy(light, data[off:off+lightLen])
	}
	return blocks, light, nil
}
