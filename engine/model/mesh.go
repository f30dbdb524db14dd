package model

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/cogentcore/webgpu/wgpu"
)

// mesh is the implementation of the Mesh interface.
type mesh struct {
	id           common.ResourceID
	label        string
	numElements  uint32
	material     int
	vertexBuffer buffer.Buffer
	indexBuffer  buffer.Buffer
}

// Mesh is one drawable part of a model: a vertex buffer, a uint32 index buffer and the index of the material it is
// drawn with.
type Mesh interface {
	// ID retrieves the id of the mesh inside its model.
	//
	// Returns:
	//   - common.ResourceID: the id
	ID() common.ResourceID

	// Label retrieves the name of the mesh.
	//
	// Returns:
	//   - string: the label
	Label() string

	// NumElements retrieves the number of indices drawn for the mesh.
	//
	// Returns:
	//   - uint32: the index count
	NumElements() uint32

	// Material retrieves the index of the model material the mesh is drawn with.
	//
	// Returns:
	//   - int: the material index
	Material() int

	// VertexBuffer retrieves the vertex buffer, bound at its own binding slot.
	//
	// Returns:
	//   - buffer.Buffer: the vertex buffer
	VertexBuffer() buffer.Buffer

	// IndexBuffer retrieves the uint32 index buffer.
	//
	// Returns:
	//   - buffer.Buffer: the index buffer
	IndexBuffer() buffer.Buffer

	// Release releases both buffers.
	Release()
}

var _ Mesh = &mesh{}

type meshBuilder struct {
	id            common.ResourceID
	label         string
	numElements   *uint32
	material      int
	vertexBinding uint32
	vertices      []byte
	indices       []uint32
}

// MeshBuilderOption is a functional option used to configure a Mesh during construction.
type MeshBuilderOption func(*meshBuilder)

// NewMesh creates a mesh. Vertex and index data are both required. The element count defaults to the number of indices.
//
// Parameters:
//   - device: the device used to create the buffers
//   - options: builder options configuring the mesh
//
// Returns:
//   - Mesh: the created mesh
//   - error: a MissingFieldError when vertex or index data is unset, or the first buffer error
func NewMesh(device gpu.Device, options ...MeshBuilderOption) (Mesh, error) {
	b := &meshBuilder{}
	for _, opt := range options {
		opt(b)
	}

	if len(b.vertices) == 0 || len(b.indices) == 0 {
		return nil, errs.Missing(errs.KindMesh, errs.FieldData)
	}

	label := common.DefaultLabel(b.label, string(errs.KindMesh), b.id)
	numElements := uint32(len(b.indices))
	if b.numElements != nil {
		numElements = *b.numElements
	}
	log.WithFields(log.Fields{
		"label":          label,
		"vertex_bytes":   len(b.vertices),
		"indices":        len(b.indices),
		"num_elements":   numElements,
		"material":       b.material,
		"vertex_binding": b.vertexBinding,
	}).Debug("build mesh")

	vertexBuffer, err := buffer.NewBuffer(device,
		buffer.WithLabel("Vertex buffer: "+label),
		buffer.WithBinding(b.vertexBinding),
		buffer.WithData(b.vertices),
		buffer.WithUsage(wgpu.BufferUsageVertex|wgpu.BufferUsageCopyDst),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mesh %q: %w", label, err)
	}

	indexBuffer, err := buffer.NewBuffer(device,
		buffer.WithLabel("Index buffer: "+label),
		buffer.WithValues(b.indices),
		buffer.WithUsage(wgpu.BufferUsageIndex|wgpu.BufferUsageCopyDst),
	)
	if err != nil {
		vertexBuffer.Release()
		return nil, fmt.Errorf("failed to create mesh %q: %w", label, err)
	}

	return &mesh{
		id:           b.id,
		label:        label,
		numElements:  numElements,
		material:     b.material,
		vertexBuffer: vertexBuffer,
		indexBuffer:  indexBuffer,
	}, nil
}

// WithMeshID sets the id of the mesh.
func WithMeshID(id common.ResourceID) MeshBuilderOption {
	return func(b *meshBuilder) {
		b.id = id
	}
}

// WithMeshLabel sets the name of the mesh. Buffer labels are derived from it.
func WithMeshLabel(label string) MeshBuilderOption {
	return func(b *meshBuilder) {
		b.label = label
	}
}

// WithVertices sets the vertex buffer contents from vertices laid out as VertexLayout describes.
func WithVertices(vertices []Vertex) MeshBuilderOption {
	return func(b *meshBuilder) {
		b.vertices = MarshalVertices(vertices)
	}
}

// WithVertexData sets raw vertex buffer contents, for vertex formats other than Vertex.
func WithVertexData(data []byte) MeshBuilderOption {
	return func(b *meshBuilder) {
		b.vertices = data
	}
}

// WithIndices sets the uint32 index buffer contents.
func WithIndices(indices []uint32) MeshBuilderOption {
	return func(b *meshBuilder) {
		b.indices = indices
	}
}

// WithNumElements overrides the number of indices drawn.
func WithNumElements(n uint32) MeshBuilderOption {
	return func(b *meshBuilder) {
		b.numElements = &n
	}
}

// WithMaterial sets the index of the model material the mesh is drawn with.
func WithMaterial(index int) MeshBuilderOption {
	return func(b *meshBuilder) {
		b.material = index
	}
}

// WithMeshVertexBinding sets the vertex buffer slot the mesh vertex buffer is bound at.
func WithMeshVertexBinding(binding uint32) MeshBuilderOption {
	return func(b *meshBuilder) {
		b.vertexBinding = binding
	}
}

func (m *mesh) ID() common.ResourceID {
	return m.id
}

func (m *mesh) Label() string {
	return m.label
}

func (m *mesh) NumElements() uint32 {
	return m.numElements
}

func (m *mesh) Material() int {
	return m.material
}

func (m *mesh) VertexBuffer() buffer.Buffer {
	return m.vertexBuffer
}

func (m *mesh) IndexBuffer() buffer.Buffer {
	return m.indexBuffer
}

func (m *mesh) Release() {
	if m.vertexBuffer != nil {
		m.vertexBuffer.Release()
		m.vertexBuffer = nil
	}
	if m.indexBuffer != nil {
		m.indexBuffer.Release()
		m.indexBuffer = nil
	}
}
