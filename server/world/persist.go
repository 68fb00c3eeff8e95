package world

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/pelletier/go-toml"

	"github.com/voidreach/voxelcore/server/world/chunk"
)

// ErrNotFound is returned by providers when no data exists for the
// requested key. The world treats it as "generate procedurally", never as a
// failure.
var ErrNotFound = errors.New("world: not found")

// Metadata is the persisted world metadata record. Times are unix
// milliseconds.
type Metadata struct {
	Version     int   `toml:"version"`
	Seed        int64 `toml:"seed"`
	CreatedAt   int64 `toml:"created_at"`
	LastSavedAt int64 `toml:"last_saved_at"`
	// PlayerPos is the optional saved player position, empty when never
	// recorded.
	PlayerPos []float64 `toml:"player_position,omitempty"`
}

// Provider is the persistence backend the world consumes at sub-chunk
// granularity: a key-value store with three logical
// namespaces (chunks, player, metadata).
type Provider interface {
	LoadSubChunk(pos SubChunkPos) (blocks []chunk.ID, light []uint8, err error)
	SaveSubChunk(pos SubChunkPos, blocks []chunk.ID, light []uint8) error
	SubChunkExists(pos SubChunkPos) (bool, error)
	ClearSubChunk(pos SubChunkPos) error

	LoadMetadata() (Metadata, error)
	SaveMetadata(Metadata) error

	Close() error
}

// NopProvider is the provider used when no save path is configured: every
// load misses and every save succeeds by discarding.
type NopProvider struct{}

func (NopProvider) LoadSubChunk(SubChunkPos) ([]chunk.ID, []uint8, error) {
	return nil, nil, ErrNotFound
}
func (NopProvider) SaveSubChunk(SubChunkPos, []chunk.ID, []uint8) error { return nil }
func (NopProvider) SubChunkExists(SubChunkPos) (bool, error)            { return false, nil }
func (NopProvider) ClearSubChunk(SubChunkPos) error                     { return nil }
func (NopProvider) LoadMetadata() (Metadata, error)                     { return Metadata{}, ErrNotFound }
func (NopProvider) SaveMetadata(Metadata) error                         { return nil }
func (NopProvider) Close() error                                        { return nil }

// Namespace prefixes of the three logical keyspaces.
const (
	keyPrefixChunk  byte = 'c'
	keyPrefixMeta   byte = 'm'
	keyPrefixPlayer byte = 'p'
)

// LevelDBProvider persists sub-chunks and metadata in a single goleveldb
// database.
type LevelDBProvider struct {
	db *leveldb.DB
}

// OpenLevelDB opens (or creates) the database at path.
func OpenLevelDB(path string) (*LevelDBProvider, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("world: opening leveldb at %q: %w", path, err)
	}
	return &LevelDBProvider{db: db}, nil
}

func subChunkKey(pos SubChunkPos) []byte {
	key := make([]byte, 1+8+8+1)
	key[0] = keyPrefixChunk
	binary.LittleEndian.PutUint64(key[1:9], uint64(pos.X))
	binary.LittleEndian.PutUint64(key[9:17], uint64(pos.Z))
	key[17] = byte(pos.Sub)
	return key
}

func (p *LevelDBProvider) LoadSubChunk(pos SubChunkPos) ([]chunk.ID, []uint8, error) {
	data, err := p.db.Get(subChunkKey(pos), nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return nil, nil, ErrNotFound
	case err != nil:
		return nil, nil, fmt.Errorf("world: loading sub-chunk %v: %w", pos, err)
	}
	return DecodeSubChunk(data)
}

func (p *LevelDBProvider) SaveSubChunk(pos SubChunkPos, blocks []chunk.ID, light []uint8) error {
	if err := p.db.Put(subChunkKey(pos), EncodeSubChunk(blocks, light), nil); err != nil {
		return fmt.Errorf("world: saving sub-chunk %v: %w", pos, err)
	}
	return nil
}

func (p *LevelDBProvider) SubChunkExists(pos SubChunkPos) (bool, error) {
	ok, err := p.db.Has(subChunkKey(pos), nil)
	if err != nil {
		return false, fmt.Errorf("world: checking sub-chunk %v: %w", pos, err)
	}
	return ok, nil
}

func (p *LevelDBProvider) ClearSubChunk(pos SubChunkPos) error {
	if err := p.db.Delete(subChunkKey(pos), nil); err != nil {
		return fmt.Errorf("world: clearing sub-chunk %v: %w", pos, err)
	}
	return nil
}

var metadataKey = []byte{keyPrefixMeta}

func (p *LevelDBProvider) LoadMetadata() (Metadata, error) {
	data, err := p.db.Get(metadataKey, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		return Metadata{}, ErrNotFound
	case err != nil:
		return Metadata{}, fmt.Errorf("world: loading metadata: %w", err)
	}
	var m Metadata
	if err := toml.Unmarshal(data, &m); err != nil {
		return Metadata{}, fmt.Errorf("world: decoding metadata: %w", err)
	}
	return m, nil
}

func (p *LevelDBProvider) SaveMetadata(m Metadata) error {
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("world: encoding metadata: %w", err)
	}
	if err := p.db.Put(metadataKey, data, nil); err != nil {
		return fmt.Errorf("world: saving metadata: %w", err)
	}
	return nil
}

func (p *LevelDBProvider) Close() error { return p.db.Close() }
