package model

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu/gputest"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture"
)

var diffuseParams = material.TextureParams{ViewBinding: 0, SamplerBinding: 1}

func quad() ([]Vertex, []uint32) {
	vertices := []Vertex{
		{Position: [3]float32{0, 0, 0}, TexCoords: [2]float32{0, 0}},
		{Position: [3]float32{1, 0, 0}, TexCoords: [2]float32{1, 0}},
		{Position: [3]float32{1, 1, 0}, TexCoords: [2]float32{1, 1}},
		{Position: [3]float32{0, 1, 0}, TexCoords: [2]float32{0, 1}},
	}
	return vertices, []uint32{0, 1, 2, 0, 2, 3}
}

func rgba(w, h uint32) common.ImageData {
	return common.ImageData{Pixels: make([]byte, w*h*4), Width: w, Height: h}
}

func TestNewModel_RequiredFields(t *testing.T) {
	device := gputest.NewFakeDevice()

	tests := []struct {
		name    string
		options []ModelBuilderOption
		field   errs.Field
	}{
		{name: "diffuse params", options: []ModelBuilderOption{WithSource(Source{})}, field: errs.FieldDiffuseTexture},
		{name: "source", options: []ModelBuilderOption{WithDiffuseTexture(diffuseParams)}, field: errs.FieldSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(device, tt.options...)

			var missing *errs.MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, errs.KindModel, missing.Resource)
			assert.Equal(t, tt.field, missing.Field)
			assert.Empty(t, device.BindGroupLayouts)
		})
	}
}

func TestNewModel_MeshesAndMaterials(t *testing.T) {
	device := gputest.NewFakeDevice()
	vertices, indices := quad()

	m, err := NewModel(device,
		WithID(5),
		WithDiffuseTexture(diffuseParams),
		WithMaterialBinding(1),
		WithWorkers(2),
		WithSource(Source{
			Meshes: []MeshSource{
				{Name: "front", Vertices: MarshalVertices(vertices), Indices: indices, Material: 0},
				{Name: "back", Vertices: MarshalVertices(vertices), Indices: indices, NumElements: 3, Material: 1},
			},
			Materials: []MaterialSource{
				{Name: "red", Diffuse: rgba(2, 2)},
				{Name: "blue", Diffuse: rgba(4, 4)},
			},
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, "Model: 5", m.Label())
	require.Len(t, m.Meshes(), 2)
	require.Len(t, m.Materials(), 2)
	assert.Len(t, m.Layout().Entries(), 2)

	front := m.Meshes()[0]
	assert.Equal(t, "front", front.Label())
	assert.Equal(t, uint32(6), front.NumElements())
	assert.Equal(t, uint64(4*VertexSize), front.VertexBuffer().Capacity())
	assert.Equal(t, uint64(24), front.IndexBuffer().Capacity())
	assert.Equal(t, "Vertex buffer: front", front.VertexBuffer().Label())
	assert.Equal(t, "Index buffer: front", front.IndexBuffer().Label())
	assert.NotZero(t, device.Usage(front.VertexBuffer().Handle())&wgpu.BufferUsageVertex)
	assert.NotZero(t, device.Usage(front.IndexBuffer().Handle())&wgpu.BufferUsageIndex)
	assert.Equal(t, indices, common.BytesToSlice[uint32](device.Contents(front.IndexBuffer().Handle())))

	assert.Equal(t, uint32(3), m.Meshes()[1].NumElements())

	blue, err := m.Material(1)
	require.NoError(t, err)
	assert.Equal(t, "blue", blue.Label())
	assert.Equal(t, common.Size{Width: 4, Height: 4}, blue.Diffuse().Size())
	assert.Equal(t, uint32(1), blue.BindGroup().Binding())

	require.NoError(t, m.Load(device))
	assert.Equal(t, 2, device.TextureWrites)
}

func TestNewModel_SkipsUndecodableMaterial(t *testing.T) {
	device := gputest.NewFakeDevice()
	vertices, indices := quad()

	m, err := NewModel(device,
		WithDiffuseTexture(diffuseParams),
		WithSource(Source{
			Meshes: []MeshSource{
				{Vertices: MarshalVertices(vertices), Indices: indices, Material: 0},
				{Vertices: MarshalVertices(vertices), Indices: indices, Material: 1},
			},
			Materials: []MaterialSource{
				{Name: "broken", Diffuse: common.ImageData{Encoded: []byte("not an image")}},
				{Name: "fine", Diffuse: rgba(1, 1)},
			},
		}),
	)
	require.NoError(t, err)

	assert.Len(t, m.Meshes(), 2)
	assert.Len(t, m.Materials(), 1)

	_, err = m.Material(0)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = m.Material(7)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	fine, err := m.Material(1)
	require.NoError(t, err)
	assert.Equal(t, "fine", fine.Label())
}

func TestNewModel_SkipsMeshWithoutIndices(t *testing.T) {
	device := gputest.NewFakeDevice()
	vertices, _ := quad()

	m, err := NewModel(device,
		WithDiffuseTexture(diffuseParams),
		WithSource(Source{Meshes: []MeshSource{{Name: "empty", Vertices: MarshalVertices(vertices)}}}),
	)
	require.NoError(t, err)

	assert.Empty(t, m.Meshes())
	assert.Empty(t, device.Buffers)
}

func TestNewModel_NormalFallback(t *testing.T) {
	device := gputest.NewFakeDevice()

	m, err := NewModel(device,
		WithDiffuseTexture(diffuseParams),
		WithNormalTexture(material.TextureParams{ViewBinding: 2, SamplerBinding: 3, Kind: texture.KindNormalMap}),
		WithSource(Source{Materials: []MaterialSource{{Diffuse: rgba(2, 2)}}}),
	)
	require.NoError(t, err)

	assert.Len(t, m.Layout().Entries(), 4)
	mat, err := m.Material(0)
	require.NoError(t, err)
	require.NotNil(t, mat.Normal())
	assert.Equal(t, common.Size{Width: 1, Height: 1}, mat.Normal().Size())
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, mat.Normal().Format())
	assert.Len(t, mat.BindGroup().Entries(), 4)
}

func TestNewMesh_RequiresData(t *testing.T) {
	device := gputest.NewFakeDevice()

	_, err := NewMesh(device, WithIndices([]uint32{0, 1, 2}))

	var missing *errs.MissingFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, errs.KindMesh, missing.Resource)
	assert.Empty(t, device.Buffers)
}

func TestComputeTangents(t *testing.T) {
	vertices := []Vertex{
		{Position: [3]float32{0, 0, 0}, TexCoords: [2]float32{0, 0}},
		{Position: [3]float32{1, 0, 0}, TexCoords: [2]float32{1, 0}},
		{Position: [3]float32{0, 1, 0}, TexCoords: [2]float32{0, 1}},
		{Position: [3]float32{5, 5, 5}},
	}

	ComputeTangents(vertices, []uint32{0, 1, 2})

	for _, v := range vertices[:3] {
		assert.InDeltaSlice(t, []float32{1, 0, 0}, v.Tangent[:], 1e-6)
		assert.InDeltaSlice(t, []float32{0, -1, 0}, v.Bitangent[:], 1e-6)
	}
	assert.Equal(t, [3]float32{}, vertices[3].Tangent)
}

func TestNewInstances(t *testing.T) {
	instances := NewInstances(2, 3)

	require.Len(t, instances, 9)
	assert.Equal(t, mgl32.Vec3{-3, 0, -3}, instances[0].Position)
	assert.Equal(t, mgl32.Vec3{-1, 0, -3}, instances[1].Position)
	assert.Len(t, instances.Marshal(), 9*InstanceRawSize)

	origin := NewInstance(1, 1, 1, 2).Raw()
	ident := mgl32.Ident4()
	assert.InDeltaSlice(t, ident[:], origin.Model[:], 1e-6)

	moved := instances[0].Raw()
	assert.InDelta(t, -3, moved.Model[12], 1e-6)
	assert.InDelta(t, -3, moved.Model[14], 1e-6)
}

func TestLayouts(t *testing.T) {
	vertex := VertexLayout()
	assert.Equal(t, uint64(VertexSize), vertex.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeVertex, vertex.StepMode)
	assert.Len(t, vertex.Attributes, 5)

	instance := InstanceLayout()
	assert.Equal(t, uint64(InstanceRawSize), instance.ArrayStride)
	assert.Equal(t, wgpu.VertexStepModeInstance, instance.StepMode)
	assert.Equal(t, uint32(11), instance.Attributes[6].ShaderLocation)

	v := Vertex{Position: [3]float32{1, 2, 3}}
	assert.Equal(t, []float32{1, 2, 3}, common.BytesToSlice[float32](v.Marshal())[:3])
	assert.Contains(t, VertexSource, "@location(4) bitangent")
}
