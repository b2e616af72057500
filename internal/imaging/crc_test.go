package imaging

import (
	"encoding/binary"
	"hash/crc32"
)

// fixIHDRCRC rewrites the checksum of the IHDR chunk of a PNG after its
// fields were edited.
func fixIHDRCRC(b []byte) {
	// 8 byte signature, 4 byte length, then "IHDR" + 13 data bytes.
	sum := crc32.ChecksumIEEE(b[12:29])
	binary.BigEndian.PutUint32(b[29:33], sum)
}
