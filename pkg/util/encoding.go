package util

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// DescriptorSize is the wire size of a length descriptor
const DescriptorSize = 4

// EncodeLength serializes a length descriptor (little endian int32)
func EncodeLength(n int32) []byte {
	bs := make([]byte, DescriptorSize)
	binary.LittleEndian.PutUint32(bs, uint32(n))
	return bs
}

// DecodeLength parses a length descriptor written by a peer
func DecodeLength(b []byte) (int32, error) {
	if len(b) != DescriptorSize {
		return 0, errors.Errorf("length descriptor must be %d bytes, got %d", DescriptorSize, len(b))
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}
