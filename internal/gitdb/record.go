package gitdb

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// headerSize is the key length and value length prefix of every record.
const headerSize = 8

type Record struct {
	Key   string
	Value []byte
}

// Encode converts a Record into a byte slice.
func (record Record) Encode() ([]byte, error) {
	if record.Key == "" {
		return nil, errors.New("empty key")
	}
	keyBytes := []byte(record.Key)

	buf := make([]byte, headerSize+len(keyBytes)+len(record.Value))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(keyBytes)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(record.Value)))

	copy(buf[headerSize:headerSize+len(keyBytes)], keyBytes)
	copy(buf[headerSize+len(keyBytes):], record.Value)

	return buf, nil
}

// DecodeRecord decodes a record and its size from bytes.
func DecodeRecord(log []byte, offset int64) (rec Record, size int64, err error) {
	if offset < 0 || offset >= int64(len(log)) {
		return Record{}, 0, errors.Errorf("offset %d out of range", offset)
	}
	if int64(len(log))-offset < headerSize {
		return Record{}, 0, errors.New("not enough bytes for header")
	}

	keyLen := int64(binary.LittleEndian.Uint32(log[offset : offset+4]))
	valLen := int64(binary.LittleEndian.Uint32(log[offset+4 : offset+8]))

	total := headerSize + keyLen + valLen
	if int64(len(log))-offset < total {
		return Record{}, 0, errors.New("not enough bytes for record")
	}

	keyStart := offset + headerSize
	valStart := keyStart + keyLen

	key := string(log[keyStart:valStart])
	val := make([]byte, valLen)
	copy(val, log[valStart:valStart+valLen])

	return Record{Key: key, Value: val}, total, nil
}
