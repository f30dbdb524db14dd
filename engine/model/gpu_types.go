package model

import (
	_ "embed"
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

// VertexSource is the canonical WGSL definition of the VertexInput struct read by model pipelines.
// Matches the Vertex layout exactly (56 bytes, locations 0 through 4).
//
//go:embed assets/vertex.wgsl
var VertexSource string

// VertexSize is the stride of a marshaled Vertex in bytes.
const VertexSize = 56

// Vertex is a single model vertex as laid out in a mesh vertex buffer.
// Matches the WGSL VertexInput struct layout exactly (see VertexSource).
type Vertex struct {
	Position  [3]float32 // offset  0: position in model space (12 bytes)
	TexCoords [2]float32 // offset 12: UV texture coordinate (8 bytes)
	Normal    [3]float32 // offset 20: vertex normal (12 bytes)
	Tangent   [3]float32 // offset 32: tangent for normal mapping (12 bytes)
	Bitangent [3]float32 // offset 44: bitangent for normal mapping (12 bytes)
}

// Marshal serializes the vertex into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 56-byte buffer ready for GPU upload.
func (v *Vertex) Marshal() []byte {
	buf := make([]byte, VertexSize)
	v.marshalTo(buf)
	return buf
}

func (v *Vertex) marshalTo(buf []byte) {
	putFloats(buf[0:12], v.Position[:])
	putFloats(buf[12:20], v.TexCoords[:])
	putFloats(buf[20:32], v.Normal[:])
	putFloats(buf[32:44], v.Tangent[:])
	putFloats(buf[44:56], v.Bitangent[:])
}

// MarshalVertices serializes vertices back to back into one vertex buffer payload.
//
// Parameters:
//   - vertices: the vertices to serialize
//
// Returns:
//   - []byte: len(vertices) * VertexSize bytes
func MarshalVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexSize)
	for i := range vertices {
		vertices[i].marshalTo(buf[i*VertexSize : (i+1)*VertexSize])
	}
	return buf
}

// VertexLayout describes the Vertex buffer layout for a render shader.
//
// Returns:
//   - wgpu.VertexBufferLayout: per-vertex layout at locations 0 through 4
func VertexLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: VertexSize,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 20, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 32, ShaderLocation: 3},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 44, ShaderLocation: 4},
		},
	}
}

// InstanceSource is the canonical WGSL definition of the InstanceInput struct.
// Matches the InstanceRaw layout exactly (100 bytes, locations 5 through 11).
//
//go:embed assets/instance.wgsl
var InstanceSource string

// InstanceRawSize is the stride of a marshaled InstanceRaw in bytes.
const InstanceRawSize = 100

// InstanceRaw is the per-instance data read by model pipelines: a column-major model matrix and normal matrix.
type InstanceRaw struct {
	Model  [16]float32 // offset  0: model matrix, four vec4 columns (64 bytes)
	Normal [9]float32  // offset 64: normal matrix, three vec3 columns (36 bytes)
}

// Marshal serializes the instance into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 100-byte buffer ready for GPU upload.
func (r *InstanceRaw) Marshal() []byte {
	buf := make([]byte, InstanceRawSize)
	putFloats(buf[0:64], r.Model[:])
	putFloats(buf[64:100], r.Normal[:])
	return buf
}

// InstanceLayout describes the InstanceRaw buffer layout for a render shader.
//
// Returns:
//   - wgpu.VertexBufferLayout: per-instance layout at locations 5 through 11
func InstanceLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: InstanceRawSize,
		StepMode:    wgpu.VertexStepModeInstance,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 5},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 6},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 32, ShaderLocation: 7},
			{Format: wgpu.VertexFormatFloat32x4, Offset: 48, ShaderLocation: 8},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 64, ShaderLocation: 9},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 76, ShaderLocation: 10},
			{Format: wgpu.VertexFormatFloat32x3, Offset: 88, ShaderLocation: 11},
		},
	}
}

func putFloats(buf []byte, values []float32) {
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
}
