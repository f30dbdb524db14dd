// Package errs holds the typed errors shared by the resource builders, the arena, the device session and the stage graph.
// Every error works with errors.Is and errors.As so callers can branch on the category without string matching.
package errs

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-core/common"
)

// Kind names a resource kind in lookup and configuration errors.
type Kind string

const (
	KindBuffer          Kind = "Buffer"
	KindBindGroup       Kind = "Bind group"
	KindBindGroupLayout Kind = "Bind group layout"
	KindBindLayoutEntry Kind = "Bind group layout entry"
	KindPipeline        Kind = "Pipeline"
	KindPipelineLayout  Kind = "Pipeline layout"
	KindShader          Kind = "Shader"
	KindRenderTexture   Kind = "Texture"
	KindDepthTexture    Kind = "Depth texture"
	KindModel           Kind = "Model"
	KindMaterial        Kind = "Material"
	KindMesh            Kind = "Mesh"
	KindUniform         Kind = "Uniform"
	KindStorage         Kind = "Storage"
	KindColorAttachment Kind = "Color attachment"
	KindDepthAttachment Kind = "Depth stencil attachment"
	KindRenderPass      Kind = "Render pass"
	KindStage           Kind = "Stage"
	KindEngine          Kind = "Engine"
)

// Field names a builder field in a MissingFieldError.
type Field string

const (
	FieldData             Field = "data"
	FieldEntries          Field = "entries"
	FieldBinding          Field = "binding"
	FieldBindType         Field = "bind type"
	FieldLayout           Field = "layout"
	FieldEntryPoint       Field = "entry point"
	FieldShaderSource     Field = "shader source"
	FieldShader           Field = "shader"
	FieldMultisample      Field = "multisample"
	FieldPrimitive        Field = "primitive"
	FieldTextureSize      Field = "texture size"
	FieldTextureView      Field = "texture view"
	FieldDiffuseTexture   Field = "diffuse texture"
	FieldSource           Field = "source"
	FieldColorAttachments Field = "color attachments"
	FieldEntities         Field = "entities"
	FieldInstances        Field = "instances"
	FieldPipeline         Field = "pipeline"
	FieldSession          Field = "session"
)

var (
	// ErrMissingField matches every MissingFieldError.
	ErrMissingField = errors.New("missing required field")
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate matches every DuplicateError.
	ErrDuplicate = errors.New("resource already exists")
	// ErrCapacity matches every CapacityError.
	ErrCapacity = errors.New("write exceeds buffer capacity")
	// ErrAlignment matches every AlignmentError.
	ErrAlignment = errors.New("unaligned buffer write")
	// ErrMap matches every MapError.
	ErrMap = errors.New("buffer map failed")
	// ErrWrongVariant matches every WrongVariantError.
	ErrWrongVariant = errors.New("wrong resource variant")

	// ErrNotInitView is returned by render and present when no view was acquired for the frame.
	ErrNotInitView = errors.New("view is not initialized, call ViewSurface or ViewTexture first")
	// ErrSurfaceNotConfigured is returned when a surface operation runs on a session without a surface.
	ErrSurfaceNotConfigured = errors.New("surface is not configured")
	// ErrSurfaceLost is returned when the swapchain frame could not be acquired because the surface is lost or outdated.
	ErrSurfaceLost = errors.New("surface lost")
	// ErrSurfaceTimeout is returned when acquiring the swapchain frame timed out.
	ErrSurfaceTimeout = errors.New("surface timeout")
	// ErrOutOfMemory is returned when the device ran out of memory.
	ErrOutOfMemory = errors.New("device out of memory")
	// ErrStaleRef is returned when resolving a Ref whose slot was taken or replaced.
	ErrStaleRef = errors.New("stale resource reference")
	// ErrImageReconstruct is returned when captured bytes cannot be turned into an image.
	ErrImageReconstruct = errors.New("failed to reconstruct image from captured bytes")
	// ErrPassConsumed is returned when a render pass is executed more than once.
	ErrPassConsumed = errors.New("render pass already executed")
)

// MissingFieldError reports a required builder field left unset.
type MissingFieldError struct {
	Resource Kind
	Field    Field
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s: missing required field %q", e.Resource, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// Missing builds a MissingFieldError.
func Missing(resource Kind, field Field) error {
	return &MissingFieldError{Resource: resource, Field: field}
}

// NotFoundError reports an arena or group lookup by an absent key.
type NotFoundError struct {
	Kind Kind
	ID   common.ResourceID
	// Name is set instead of ID for name keyed lookups such as uniform group entries.
	Name string
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s with id %d not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NotFound builds a NotFoundError for an id keyed lookup.
func NotFound(kind Kind, id common.ResourceID) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// NotFoundName builds a NotFoundError for a name keyed lookup.
func NotFoundName(kind Kind, name string) error {
	return &NotFoundError{Kind: kind, Name: name}
}

// DuplicateError reports an insert under a key that is already taken.
type DuplicateError struct {
	Kind Kind
	ID   common.ResourceID
	// Name is set instead of ID for name keyed inserts.
	Name string
}

func (e *DuplicateError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
	}
	return fmt.Sprintf("%s with id %d already exists", e.Kind, e.ID)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// CapacityError reports a write that would run past the end of a buffer.
type CapacityError struct {
	Label    string
	Offset   uint64
	Length   uint64
	Capacity uint64
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("write of %d bytes at offset %d exceeds capacity %d of %s", e.Length, e.Offset, e.Capacity, e.Label)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }

// AlignmentError reports a buffer write whose offset or length is not a multiple of the copy alignment.
type AlignmentError struct {
	Label     string
	Offset    uint64
	Length    uint64
	Alignment uint64
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("write of %d bytes at offset %d into %s is not aligned to %d bytes", e.Length, e.Offset, e.Label, e.Alignment)
}

func (e *AlignmentError) Unwrap() error { return ErrAlignment }

// CheckAlignment returns an AlignmentError when offset or length is not a multiple of alignment.
func CheckAlignment(label string, offset, length, alignment uint64) error {
	if offset%alignment != 0 || length%alignment != 0 {
		return &AlignmentError{Label: label, Offset: offset, Length: length, Alignment: alignment}
	}
	return nil
}

// CheckCapacity returns a CapacityError when offset+length does not fit in capacity.
func CheckCapacity(label string, offset, length, capacity uint64) error {
	if offset > capacity || length > capacity-offset {
		return &CapacityError{Label: label, Offset: offset, Length: length, Capacity: capacity}
	}
	return nil
}

// MapError reports a failed asynchronous buffer map.
type MapError struct {
	Label  string
	Status string
	Err    error
}

func (e *MapError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to map %s: %v", e.Label, e.Err)
	}
	return fmt.Sprintf("failed to map %s: status %s", e.Label, e.Status)
}

func (e *MapError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMap, e.Err}
	}
	return []error{ErrMap}
}

// WrongVariantError reports a render resource used where a compute one is needed, or the reverse.
type WrongVariantError struct {
	Kind     Kind
	Label    string
	Expected string
	Actual   string
}

func (e *WrongVariantError) Error() string {
	return fmt.Sprintf("%s %q is a %s variant, expected %s", e.Kind, e.Label, e.Actual, e.Expected)
}

func (e *WrongVariantError) Unwrap() error { return ErrWrongVariant }

// IsTransient reports whether err is a device error the frame loop recovers from by resizing and retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrSurfaceLost) || errors.Is(err, ErrSurfaceTimeout)
}

// IsFatal reports whether err must stop the frame loop.
func IsFatal(err error) bool {
	return errors.Is(err, ErrOutOfMemory)
}
