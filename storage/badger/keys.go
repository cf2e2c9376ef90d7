package badger

import (
	"github.com/UBH-Fall-2024/FileSeekr/core"
)

// Key prefixes for different data types
const (
	fileRecordPrefix = "file:"
	vectorPrefix     = "vec:"
	settingsKey      = "settings"
)

// makeFileKey generates a key for a file record by path.
// Format: file:<path>
func makeFileKey(path string) []byte {
	return append([]byte(fileRecordPrefix), path...)
}

// makeVectorKey generates a key for a vector entry.
// Format: vec:<space>:<path>
func makeVectorKey(space core.SpaceID, path string) []byte {
	return append(makeVectorSpacePrefix(space), path...)
}

// makeVectorSpacePrefix generates the partial key shared by all vectors in a space.
func makeVectorSpacePrefix(space core.SpaceID) []byte {
	buf := make([]byte, 0, len(vectorPrefix)+len(space)+1)
	buf = append(buf, vectorPrefix...)
	buf = append(buf, space...)
	return append(buf, ':')
}

// pathFromKey strips a key prefix, returning the file path.
func pathFromKey(key, prefix []byte) string {
	return string(key[len(prefix):])
}
