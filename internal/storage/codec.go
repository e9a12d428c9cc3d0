package storage

import (
	"fmt"
	"followtrack/internal/models"
	"followtrack/internal/storage/interfaces"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"
)

// ZstdCompression packs snapshot blobs and backup files.
type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func NewZstdCompressor() (interfaces.CompressorInterface, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}

func (z *ZstdCompression) Compress(val []byte) ([]byte, error) {
	return z.encoder.EncodeAll(val, make([]byte, 0, len(val)/2)), nil
}

func (z *ZstdCompression) Decompress(val []byte) ([]byte, error) {
	return z.decoder.DecodeAll(val, nil)
}

func (z *ZstdCompression) Close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}

// encodeFollowers stores follower lists as zstd(json). A nil list is stored
// as [] and decodeFollowers always returns a non-nil slice.
func (s *Store) encodeFollowers(followers []models.FollowerRecord) ([]byte, error) {
	if followers == nil {
		followers = []models.FollowerRecord{}
	}
	data, err := json.Marshal(followers)
	if err != nil {
		return nil, err
	}
	return s.compressor.Compress(data)
}

func (s *Store) decodeFollowers(blob []byte) ([]models.FollowerRecord, error) {
	data, err := s.compressor.Decompress(blob)
	if err != nil {
		return nil, err
	}
	var followers []models.FollowerRecord
	if err := json.Unmarshal(data, &followers); err != nil {
		return nil, err
	}
	if followers == nil {
		followers = []models.FollowerRecord{}
	}
	return followers, nil
}
