package model

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Instance places one copy of a model in the world.
type Instance struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
}

// NewInstance places the instance at grid cell (x, z) of a square grid centered on the origin. Instances away from
// the origin are rotated 45 degrees about their normalized position.
//
// Parameters:
//   - x: the grid column
//   - z: the grid row
//   - spaceBetween: the distance between neighbouring cells
//   - perRow: the number of cells along each side of the grid
//
// Returns:
//   - Instance: the placed instance
func NewInstance(x, z uint32, spaceBetween float32, perRow uint32) Instance {
	half := float32(perRow) / 2
	position := mgl32.Vec3{
		spaceBetween * (float32(x) - half),
		0,
		spaceBetween * (float32(z) - half),
	}

	rotation := mgl32.QuatRotate(0, mgl32.Vec3{0, 0, 1})
	if position.Len() != 0 {
		rotation = mgl32.QuatRotate(mgl32.DegToRad(45), position.Normalize())
	}
	return Instance{Position: position, Rotation: rotation}
}

// Raw returns the model and normal matrices of the instance.
func (i Instance) Raw() InstanceRaw {
	rotation := i.Rotation.Mat4()
	model := mgl32.Translate3D(i.Position.X(), i.Position.Y(), i.Position.Z()).Mul4(rotation)
	return InstanceRaw{
		Model:  model,
		Normal: rotation.Mat3(),
	}
}

// Instances is a grid of model instances drawn with a single instanced draw call.
type Instances []Instance

// NewInstances builds a perRow x perRow grid of instances, row by row along z.
//
// Parameters:
//   - spaceBetween: the distance between neighbouring instances
//   - perRow: the number of instances along each side of the grid
//
// Returns:
//   - Instances: perRow * perRow instances
func NewInstances(spaceBetween float32, perRow uint32) Instances {
	instances := make(Instances, 0, perRow*perRow)
	for z := range perRow {
		for x := range perRow {
			instances = append(instances, NewInstance(x, z, spaceBetween, perRow))
		}
	}
	return instances
}

// Data returns the raw per-instance data of every instance.
func (in Instances) Data() []InstanceRaw {
	data := make([]InstanceRaw, len(in))
	for i, instance := range in {
		data[i] = instance.Raw()
	}
	return data
}

// Marshal serializes every instance into one instance buffer payload laid out as InstanceLayout describes.
//
// Returns:
//   - []byte: len(in) * InstanceRawSize bytes
func (in Instances) Marshal() []byte {
	buf := make([]byte, 0, len(in)*InstanceRawSize)
	for _, raw := range in.Data() {
		buf = append(buf, raw.Marshal()...)
	}
	return buf
}
