package model

import (
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/material"
)

// MeshSource is the host side data of one mesh.
type MeshSource struct {
	Name string
	// Vertices is the raw vertex buffer payload, usually produced by MarshalVertices.
	Vertices []byte
	Indices  []uint32
	// NumElements is the number of indices drawn. Zero draws every index.
	NumElements uint32
	// Material is the index into Source.Materials.
	Material int
}

// MaterialSource is the host side data of one material.
type MaterialSource struct {
	Name    string
	Diffuse common.ImageData
	// Normal is optional. Models built with normal params fall back to a flat normal map when it is nil.
	Normal *common.ImageData
}

// Source is everything NewModel needs to build a model.
type Source struct {
	Meshes    []MeshSource
	Materials []MaterialSource
}

type modelBuilder struct {
	id              common.ResourceID
	label           string
	source          *Source
	diffuse         *material.TextureParams
	normal          *material.TextureParams
	materialBinding uint32
	vertexBinding   uint32
	workers         int
}

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*modelBuilder)

// WithID sets the arena id of the model.
//
// Parameters:
//   - id: the id
//
// Returns:
//   - ModelBuilderOption: a function that sets the id
func WithID(id common.ResourceID) ModelBuilderOption {
	return func(b *modelBuilder) {
		b.id = id
	}
}

// WithLabel sets the name of the model.
//
// Parameters:
//   - label: the name
//
// Returns:
//   - ModelBuilderOption: a function that sets the label
func WithLabel(label string) ModelBuilderOption {
	return func(b *modelBuilder) {
		b.label = label
	}
}

// WithSource sets the mesh and material data of the model.
//
// Parameters:
//   - source: the host side model data
//
// Returns:
//   - ModelBuilderOption: a function that sets the source
func WithSource(source Source) ModelBuilderOption {
	return func(b *modelBuilder) {
		b.source = &source
	}
}

// WithDiffuseTexture places the diffuse texture of every material inside the material layout.
//
// Parameters:
//   - params: the view and sampler bindings and the texel kind
//
// Returns:
//   - ModelBuilderOption: a function that sets the diffuse params
func WithDiffuseTexture(params material.TextureParams) ModelBuilderOption {
	return func(b *modelBuilder) {
		b.diffuse = &params
	}
}

// WithNormalTexture adds a normal map to every material of the model.
//
// Parameters:
//   - params: the view and sampler bindings and the texel kind
//
// Returns:
//   - ModelBuilderOption: a function that sets the normal params
func WithNormalTexture(params material.TextureParams) ModelBuilderOption {
	return func(b *modelBuilder) {
		b.normal = &params
	}
}

// WithMaterialBinding sets the group index material bind groups are bound at.
func WithMaterialBinding(binding uint32) ModelBuilderOption {
	return func(b *modelBuilder) {
		b.materialBinding = binding
	}
}

// WithVertexBinding sets the vertex buffer slot mesh vertex buffers are bound at.
func WithVertexBinding(binding uint32) ModelBuilderOption {
	return func(b *modelBuilder) {
		b.vertexBinding = binding
	}
}

// WithWorkers caps the number of goroutines decoding material images. Defaults to the number of CPUs.
func WithWorkers(n int) ModelBuilderOption {
	return func(b *modelBuilder) {
		b.workers = n
	}
}
