package common

import (
	"unsafe"
)

// CopyRowAlignment is the byte alignment WebGPU requires for bytesPerRow in texture to buffer copies.
const CopyRowAlignment = 256

// AlignUp rounds value up to the next multiple of alignment. Alignment must be a power of two.
func AlignUp(value, alignment uint64) uint64 {
	return (value + alignment - 1) &^ (alignment - 1)
}

// PaddedBytesPerRow returns the row pitch of a texture copy, aligned to CopyRowAlignment.
//
// Parameters:
//   - width: row width in pixels
//   - bytesPerPixel: size of one pixel in bytes
//
// Returns:
//   - uint32: aligned row pitch in bytes
func PaddedBytesPerRow(width, bytesPerPixel uint32) uint32 {
	return uint32(AlignUp(uint64(width)*uint64(bytesPerPixel), CopyRowAlignment))
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// StructToBytes reinterprets a pointer to a struct as a raw byte slice using unsafe.
// The returned slice has length equal to the struct's size in memory.
//
// Parameters:
//   - v: pointer to the struct to reinterpret
//
// Returns:
//   - []byte: byte slice view of the struct's memory
func StructToBytes[T any](v *T) []byte {
	size := unsafe.Sizeof(*v)
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), int(size))
}

// BytesToSlice copies raw bytes into a freshly allocated slice of T.
// Trailing bytes that do not fill a whole T are dropped.
//
// Parameters:
//   - data: raw bytes, e.g. from a mapped GPU buffer
//
// Returns:
//   - []T: typed copy of the data
func BytesToSlice[T any](data []byte) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 || len(data) < size {
		return nil
	}
	out := make([]T, len(data)/size)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(out)*size), data)
	return out
}
