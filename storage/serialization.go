package storage

import (
	"fmt"
	"time"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

const formatVersion uint64 = 1

// VectorEntry is the value stored under a space key: the embedding plus the
// fields needed to rank it without loading the full record.
type VectorEntry struct {
	IndexedAt time.Time
	Vector    []float32
}

// MarshalFileRecord serializes a FileRecord to bytes.
func MarshalFileRecord(record *core.FileRecord) []byte {
	buf := make([]byte, fileRecordMUS.Size(record))
	fileRecordMUS.Marshal(record, buf)
	return buf
}

// UnmarshalFileRecord deserializes a FileRecord from bytes.
func UnmarshalFileRecord(data []byte) (record *core.FileRecord, err error) {
	defer recoverTruncated(&err)
	record, _, err = fileRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: file record: %w", ErrSerializationFailed, err)
	}
	return record, nil
}

// MarshalVectorEntry serializes a VectorEntry to bytes.
func MarshalVectorEntry(entry *VectorEntry) []byte {
	size := varint.Uint64.Size(formatVersion)
	size += varint.Int64.Size(timeToMicro(entry.IndexedAt))
	size += float32sSize(entry.Vector)
	buf := make([]byte, size)
	n := varint.Uint64.Marshal(formatVersion, buf)
	n += varint.Int64.Marshal(timeToMicro(entry.IndexedAt), buf[n:])
	marshalFloat32s(entry.Vector, buf[n:])
	return buf
}

// UnmarshalVectorEntry deserializes a VectorEntry from bytes.
func UnmarshalVectorEntry(data []byte) (entry *VectorEntry, err error) {
	defer recoverTruncated(&err)
	n, err := unmarshalVersion(data)
	if err != nil {
		return nil, err
	}
	micros, m, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector entry: %w", ErrSerializationFailed, err)
	}
	n += m
	vec, _, err := unmarshalFloat32s(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: vector entry: %w", ErrSerializationFailed, err)
	}
	return &VectorEntry{IndexedAt: microToTime(micros), Vector: vec}, nil
}

// MarshalSettings serializes Settings to bytes.
func MarshalSettings(settings *core.Settings) []byte {
	buf := make([]byte, settingsMUS.Size(settings))
	settingsMUS.Marshal(settings, buf)
	return buf
}

// UnmarshalSettings deserializes Settings from bytes.
func UnmarshalSettings(data []byte) (settings *core.Settings, err error) {
	defer recoverTruncated(&err)
	settings, _, err = settingsMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: settings: %w", ErrSerializationFailed, err)
	}
	return settings, nil
}

var (
	fileRecordMUS = fileRecordSer{}
	settingsMUS   = settingsSer{}
)

type fileRecordSer struct{}

func (fileRecordSer) Size(r *core.FileRecord) (size int) {
	size = varint.Uint64.Size(formatVersion)
	size += ord.String.Size(r.Path)
	size += varint.Int64.Size(int64(r.FileType))
	size += varint.Int64.Size(r.SizeBytes)
	size += varint.Int64.Size(timeToMicro(r.ModTime))
	size += ord.String.Size(r.ContentHash)
	size += ord.String.Size(string(r.Space))
	size += ord.String.Size(r.ModelVersion)
	size += float32sSize(r.Embedding)
	size += ord.String.Size(r.Thumbnail)
	size += ord.Bool.Size(r.Truncated)
	size += varint.Int64.Size(timeToMicro(r.IndexedAt))
	size += varint.Int64.Size(int64(r.Status))
	size += ord.String.Size(r.FailureReason)
	return
}

func (fileRecordSer) Marshal(r *core.FileRecord, bs []byte) (n int) {
	n = varint.Uint64.Marshal(formatVersion, bs)
	n += ord.String.Marshal(r.Path, bs[n:])
	n += varint.Int64.Marshal(int64(r.FileType), bs[n:])
	n += varint.Int64.Marshal(r.SizeBytes, bs[n:])
	n += varint.Int64.Marshal(timeToMicro(r.ModTime), bs[n:])
	n += ord.String.Marshal(r.ContentHash, bs[n:])
	n += ord.String.Marshal(string(r.Space), bs[n:])
	n += ord.String.Marshal(r.ModelVersion, bs[n:])
	n += marshalFloat32s(r.Embedding, bs[n:])
	n += ord.String.Marshal(r.Thumbnail, bs[n:])
	n += ord.Bool.Marshal(r.Truncated, bs[n:])
	n += varint.Int64.Marshal(timeToMicro(r.IndexedAt), bs[n:])
	n += varint.Int64.Marshal(int64(r.Status), bs[n:])
	n += ord.String.Marshal(r.FailureReason, bs[n:])
	return
}

func (fileRecordSer) Unmarshal(bs []byte) (r *core.FileRecord, n int, err error) {
	n, err = unmarshalVersion(bs)
	if err != nil {
		return
	}
	r = &core.FileRecord{}
	var (
		m      int
		i64    int64
		str    string
		micros int64
	)
	if r.Path, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if i64, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	r.FileType = core.FileType(i64)
	n += m
	if r.SizeBytes, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if micros, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	r.ModTime = microToTime(micros)
	n += m
	if r.ContentHash, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if str, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	r.Space = core.SpaceID(str)
	n += m
	if r.ModelVersion, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Embedding, m, err = unmarshalFloat32s(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Thumbnail, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if r.Truncated, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if micros, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	r.IndexedAt = microToTime(micros)
	n += m
	if i64, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	r.Status = core.Status(i64)
	n += m
	if r.FailureReason, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	return
}

type settingsSer struct{}

func (settingsSer) Size(s *core.Settings) (size int) {
	size = varint.Uint64.Size(formatVersion)
	size += varint.Uint64.Size(uint64(len(s.Paths)))
	for _, p := range s.Paths {
		size += ord.String.Size(p)
	}
	size += varint.Uint64.Size(uint64(len(s.FileTypes)))
	for _, t := range s.FileTypes {
		size += varint.Int64.Size(int64(t))
	}
	size += varint.Uint64.Size(uint64(len(s.CloudServices)))
	for _, c := range s.CloudServices {
		size += ord.String.Size(string(c))
	}
	size += ord.Bool.Size(s.OCREnabled)
	size += varint.Uint64.Size(s.Version)
	return
}

func (settingsSer) Marshal(s *core.Settings, bs []byte) (n int) {
	n = varint.Uint64.Marshal(formatVersion, bs)
	n += varint.Uint64.Marshal(uint64(len(s.Paths)), bs[n:])
	for _, p := range s.Paths {
		n += ord.String.Marshal(p, bs[n:])
	}
	n += varint.Uint64.Marshal(uint64(len(s.FileTypes)), bs[n:])
	for _, t := range s.FileTypes {
		n += varint.Int64.Marshal(int64(t), bs[n:])
	}
	n += varint.Uint64.Marshal(uint64(len(s.CloudServices)), bs[n:])
	for _, c := range s.CloudServices {
		n += ord.String.Marshal(string(c), bs[n:])
	}
	n += ord.Bool.Marshal(s.OCREnabled, bs[n:])
	n += varint.Uint64.Marshal(s.Version, bs[n:])
	return
}

func (settingsSer) Unmarshal(bs []byte) (s *core.Settings, n int, err error) {
	n, err = unmarshalVersion(bs)
	if err != nil {
		return
	}
	s = &core.Settings{}
	var (
		m     int
		count uint64
	)

	if count, m, err = unmarshalLength(bs[n:]); err != nil {
		return
	}
	n += m
	s.Paths = make([]string, count)
	for i := range s.Paths {
		if s.Paths[i], m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		n += m
	}

	if count, m, err = unmarshalLength(bs[n:]); err != nil {
		return
	}
	n += m
	s.FileTypes = make([]core.FileType, count)
	for i := range s.FileTypes {
		var v int64
		if v, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
			return
		}
		s.FileTypes[i] = core.FileType(v)
		n += m
	}

	if count, m, err = unmarshalLength(bs[n:]); err != nil {
		return
	}
	n += m
	s.CloudServices = make([]core.CloudService, count)
	for i := range s.CloudServices {
		var v string
		if v, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
			return
		}
		s.CloudServices[i] = core.CloudService(v)
		n += m
	}

	if s.OCREnabled, m, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	if s.Version, m, err = varint.Uint64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += m
	return
}

func float32sSize(v []float32) (size int) {
	size = varint.Uint64.Size(uint64(len(v)))
	for _, f := range v {
		size += raw.Float32.Size(f)
	}
	return
}

func marshalFloat32s(v []float32, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(v)), bs)
	for _, f := range v {
		n += raw.Float32.Marshal(f, bs[n:])
	}
	return
}

// unmarshalFloat32s returns nil for an empty vector so that "no embedding" survives a round trip.
func unmarshalFloat32s(bs []byte) (v []float32, n int, err error) {
	count, n, err := unmarshalLength(bs)
	if err != nil || count == 0 {
		return nil, n, err
	}
	v = make([]float32, count)
	for i := range v {
		var m int
		if v[i], m, err = raw.Float32.Unmarshal(bs[n:]); err != nil {
			return nil, n, err
		}
		n += m
	}
	return v, n, nil
}

// unmarshalLength reads a collection length and rejects values that cannot fit in the remaining bytes.
func unmarshalLength(bs []byte) (count uint64, n int, err error) {
	count, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	if count > uint64(len(bs)-n) {
		return 0, n, ErrTruncatedData
	}
	return
}

func unmarshalVersion(bs []byte) (n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if v != formatVersion {
		return n, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	return n, nil
}

func recoverTruncated(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %w: %v", ErrSerializationFailed, ErrTruncatedData, r)
	}
}

// timeToMicro maps the zero time to 0 so that unset timestamps stay unset.
func timeToMicro(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMicro()
}

func microToTime(micros int64) time.Time {
	if micros == 0 {
		return time.Time{}
	}
	return time.UnixMicro(micros).UTC()
}
