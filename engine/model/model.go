// Package model builds models: meshes with their vertex and index buffers, and the materials they are drawn with,
// all sharing one material bind group layout.
package model

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/bind_group"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/material"
)

// flatNormal is the tangent space normal (0, 0, 1) encoded as a single RGBA pixel.
var flatNormal = []byte{128, 128, 255, 255}

// model is the implementation of the Model interface.
type model struct {
	id        common.ResourceID
	label     string
	layout    bind_group.Layout
	meshes    []Mesh
	materials []material.Material
}

// Model defines the interface for a GPU-ready model: meshes, the materials they reference by index and the bind group
// layout every material is created against. Pipelines drawing the model include Layout in their pipeline layout.
type Model interface {
	// ID retrieves the arena id of the model.
	//
	// Returns:
	//   - common.ResourceID: the id
	ID() common.ResourceID

	// SetID re-keys the model.
	//
	// Parameters:
	//   - id: the new id
	SetID(id common.ResourceID)

	// Label retrieves the name of the model.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Layout retrieves the bind group layout shared by every material.
	//
	// Returns:
	//   - bind_group.Layout: the material layout
	Layout() bind_group.Layout

	// Meshes retrieves the meshes in source order. Meshes that failed to build are absent.
	//
	// Returns:
	//   - []Mesh: the meshes
	Meshes() []Mesh

	// Materials retrieves the materials that were built, in source order.
	//
	// Returns:
	//   - []material.Material: the materials
	Materials() []material.Material

	// Material retrieves the material at a source index, as referenced by Mesh.Material.
	//
	// Parameters:
	//   - index: the source index
	//
	// Returns:
	//   - material.Material: the material
	//   - error: a NotFoundError when the index is out of range or the material was skipped
	Material(index int) (material.Material, error)

	// Load uploads the pending pixels of every material texture.
	//
	// Parameters:
	//   - device: the device whose queue receives the writes
	//
	// Returns:
	//   - error: the first upload error
	Load(device gpu.Device) error

	// Release releases every mesh, every material and the layout.
	Release()
}

var _ Model = &model{}

// NewModel creates a model from its source. The diffuse texture params and the source are required. Material images
// are decoded in parallel on a worker pool; the GPU resources are then created on the calling goroutine. A material
// that fails to decode or build is logged and skipped, and so is a mesh that fails to build.
//
// Parameters:
//   - device: the device used to create the layout, materials and meshes
//   - options: builder options configuring the model
//
// Returns:
//   - Model: the created model
//   - error: a MissingFieldError when the diffuse params or source are unset, or the layout error
func NewModel(device gpu.Device, options ...ModelBuilderOption) (Model, error) {
	b := &modelBuilder{
		workers: runtime.NumCPU(),
	}
	for _, opt := range options {
		opt(b)
	}

	if b.diffuse == nil {
		return nil, errs.Missing(errs.KindModel, errs.FieldDiffuseTexture)
	}
	if b.source == nil {
		return nil, errs.Missing(errs.KindModel, errs.FieldSource)
	}

	label := common.DefaultLabel(b.label, string(errs.KindModel), b.id)
	log.WithFields(log.Fields{
		"label":            label,
		"meshes":           len(b.source.Meshes),
		"materials":        len(b.source.Materials),
		"normal":           b.normal != nil,
		"material_binding": b.materialBinding,
		"vertex_binding":   b.vertexBinding,
	}).Debug("build model")

	entries := b.diffuse.LayoutEntries()
	if b.normal != nil {
		entries = append(entries, b.normal.LayoutEntries()...)
	}
	layout, err := bind_group.NewLayout(device,
		bind_group.WithLayoutLabel(fmt.Sprintf("Bind group layout of `%s`", label)),
		bind_group.WithLayoutEntries(entries...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model %q: %w", label, err)
	}

	m := &model{
		id:        b.id,
		label:     label,
		layout:    layout,
		materials: make([]material.Material, len(b.source.Materials)),
	}

	for i, img := range decodeImages(b.source.Materials, b.workers) {
		src := b.source.Materials[i]
		name := common.Coalesce(src.Name, fmt.Sprintf("%s material %d", label, i))
		if img.err != nil {
			log.WithError(img.err).WithField("material", name).Error("skip material")
			continue
		}

		matOptions := []material.MaterialBuilderOption{
			material.WithID(common.ResourceID(i)),
			material.WithLabel(name),
			material.WithBinding(b.materialBinding),
			material.WithLayout(layout),
			material.WithDiffuseParams(*b.diffuse),
			material.WithDiffuse(img.diffuse),
		}
		if b.normal != nil {
			normal := common.ImageData{Pixels: flatNormal, Width: 1, Height: 1}
			if img.normal != nil {
				normal = *img.normal
			}
			matOptions = append(matOptions, material.WithNormalParams(*b.normal), material.WithNormal(normal))
		}

		mat, err := material.NewMaterial(device, matOptions...)
		if err != nil {
			log.WithError(err).WithField("material", name).Error("skip material")
			continue
		}
		m.materials[i] = mat
	}

	for i, src := range b.source.Meshes {
		name := common.Coalesce(src.Name, fmt.Sprintf("%s mesh %d", label, i))
		meshOptions := []MeshBuilderOption{
			WithMeshID(common.ResourceID(i)),
			WithMeshLabel(name),
			WithVertexData(src.Vertices),
			WithIndices(src.Indices),
			WithMaterial(src.Material),
			WithMeshVertexBinding(b.vertexBinding),
		}
		if src.NumElements > 0 {
			meshOptions = append(meshOptions, WithNumElements(src.NumElements))
		}

		mesh, err := NewMesh(device, meshOptions...)
		if err != nil {
			log.WithError(err).WithField("mesh", name).Error("skip mesh")
			continue
		}
		m.meshes = append(m.meshes, mesh)
	}

	return m, nil
}

type decodedImages struct {
	diffuse common.ImageData
	normal  *common.ImageData
	err     error
}

// decodeImages decodes every material image on a worker pool and returns the results in source order.
func decodeImages(sources []MaterialSource, workers int) []decodedImages {
	results := make([]decodedImages, len(sources))
	if len(sources) == 0 {
		return results
	}

	pool := worker.NewDynamicWorkerPool(min(workers, len(sources)), len(sources), 1*time.Second)
	defer pool.Stop()

	// pool.Wait() only returns once workers idle out, so a WaitGroup is the barrier.
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID:      i,
			Payload: src.Name,
			Do: func() (any, error) {
				defer wg.Done()
				results[i] = decode(src)
				return nil, results[i].err
			},
		})
	}
	wg.Wait()

	return results
}

func decode(src MaterialSource) decodedImages {
	out := decodedImages{diffuse: src.Diffuse}
	if err := out.diffuse.Decode(); err != nil {
		out.err = fmt.Errorf("failed to decode diffuse texture: %w", err)
		return out
	}
	if src.Normal != nil {
		normal := *src.Normal
		if err := normal.Decode(); err != nil {
			out.err = fmt.Errorf("failed to decode normal texture: %w", err)
			return out
		}
		out.normal = &normal
	}
	return out
}

func (m *model) ID() common.ResourceID {
	return m.id
}

func (m *model) SetID(id common.ResourceID) {
	m.id = id
}

func (m *model) Label() string {
	return m.label
}

func (m *model) Layout() bind_group.Layout {
	return m.layout
}

func (m *model) Meshes() []Mesh {
	return m.meshes
}

func (m *model) Materials() []material.Material {
	built := make([]material.Material, 0, len(m.materials))
	for _, mat := range m.materials {
		if mat != nil {
			built = append(built, mat)
		}
	}
	return built
}

func (m *model) Material(index int) (material.Material, error) {
	if index < 0 || index >= len(m.materials) || m.materials[index] == nil {
		return nil, errs.NotFound(errs.KindMaterial, common.ResourceID(index))
	}
	return m.materials[index], nil
}

func (m *model) Load(device gpu.Device) error {
	for _, mat := range m.materials {
		if mat == nil {
			continue
		}
		if err := mat.StoreTexturesToMemory(device); err != nil {
			return fmt.Errorf("failed to load %q: %w", m.label, err)
		}
	}
	return nil
}

func (m *model) Release() {
	for _, mesh := range m.meshes {
		mesh.Release()
	}
	m.meshes = nil
	for _, mat := range m.materials {
		if mat != nil {
			mat.Release()
		}
	}
	m.materials = nil
	if m.layout != nil {
		m.layout.Release()
		m.layout = nil
	}
}
