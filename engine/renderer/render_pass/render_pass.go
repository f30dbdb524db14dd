// Package render_pass assembles the stages of one frame into a single command submission. Stages run in ascending
// key order; a pass may end with a copy of the target texture into a readback buffer.
package render_pass

import (
	"fmt"
	"slices"

	log "github.com/sirupsen/logrus"

	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/errs"
	"github.com/Carmen-Shannon/oxy-core/engine/gpu"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/buffer"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/texture"
)

// CopyParams copies a texture into a buffer after every stage has run.
type CopyParams struct {
	Texture texture.RenderTexture
	Buffer  buffer.Buffer
}

type renderPass struct {
	id       common.ResourceID
	label    string
	stages   map[int]Stage
	copy     *CopyParams
	consumed bool
}

// RenderPass is an ordered set of stages recorded into one encoder and submitted once.
type RenderPass interface {
	// ID returns the id of the pass.
	//
	// Returns:
	//   - common.ResourceID: the id
	ID() common.ResourceID

	// Label returns the name of the pass.
	//
	// Returns:
	//   - string: the label
	Label() string

	// AddStage registers a stage under key.
	//
	// Parameters:
	//   - key: the ordering key
	//   - stage: a *RenderStage or *ComputeStage
	//
	// Returns:
	//   - error: a DuplicateError when key is already used
	AddStage(key int, stage Stage) error

	// Append registers a stage after every registered one.
	//
	// Parameters:
	//   - stage: a *RenderStage or *ComputeStage
	//
	// Returns:
	//   - int: the assigned key, 0 for an empty pass and the highest key plus one otherwise
	Append(stage Stage) int

	// Keys returns the stage keys in execution order.
	//
	// Returns:
	//   - []int: the sorted keys
	Keys() []int

	// SetCopyParams records a texture to buffer copy as the last command of the pass.
	//
	// Parameters:
	//   - params: the texture and its destination buffer
	SetCopyParams(params CopyParams)

	// Validate checks every stage without recording anything.
	//
	// Returns:
	//   - error: the first stage error, wrapped with the stage key
	Validate() error

	// Execute validates the pass, records every stage and the copy into enc and submits it. A pass runs once.
	//
	// Parameters:
	//   - enc: a fresh encoder
	//
	// Returns:
	//   - error: ErrPassConsumed on a second call, a validation error, or the first recording error
	Execute(enc gpu.Encoder) error
}

var _ RenderPass = &renderPass{}

type renderPassBuilder struct {
	id    common.ResourceID
	label string
}

// RenderPassBuilderOption is a functional option used to configure a RenderPass during construction.
type RenderPassBuilderOption func(*renderPassBuilder)

// NewRenderPass creates an empty pass.
//
// Parameters:
//   - options: builder options configuring the pass
//
// Returns:
//   - RenderPass: the pass
func NewRenderPass(options ...RenderPassBuilderOption) RenderPass {
	b := &renderPassBuilder{}
	for _, opt := range options {
		opt(b)
	}
	return &renderPass{
		id:     b.id,
		label:  common.DefaultLabel(b.label, string(errs.KindRenderPass), b.id),
		stages: make(map[int]Stage),
	}
}

// WithID sets the id of the pass.
func WithID(id common.ResourceID) RenderPassBuilderOption {
	return func(b *renderPassBuilder) {
		b.id = id
	}
}

// WithLabel sets the name of the pass.
func WithLabel(label string) RenderPassBuilderOption {
	return func(b *renderPassBuilder) {
		b.label = label
	}
}

func (p *renderPass) ID() common.ResourceID {
	return p.id
}

func (p *renderPass) Label() string {
	return p.label
}

func (p *renderPass) AddStage(key int, stage Stage) error {
	if _, ok := p.stages[key]; ok {
		return &errs.DuplicateError{Kind: errs.KindStage, Name: fmt.Sprintf("%s stage %d", p.label, key)}
	}
	p.stages[key] = stage
	return nil
}

func (p *renderPass) Append(stage Stage) int {
	key := 0
	if len(p.stages) > 0 {
		key = slices.Max(p.Keys()) + 1
	}
	p.stages[key] = stage
	return key
}

func (p *renderPass) Keys() []int {
	keys := make([]int, 0, len(p.stages))
	for k := range p.stages {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (p *renderPass) SetCopyParams(params CopyParams) {
	p.copy = &params
}

func (p *renderPass) Validate() error {
	for _, key := range p.Keys() {
		if err := p.stages[key].Validate(); err != nil {
			return fmt.Errorf("%s stage %d: %w", p.label, key, err)
		}
	}
	return nil
}

func (p *renderPass) Execute(enc gpu.Encoder) error {
	if p.consumed {
		return errs.ErrPassConsumed
	}
	p.consumed = true

	if err := p.Validate(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"label":  p.label,
		"stages": len(p.stages),
		"copy":   p.copy != nil,
	}).Debug("execute render pass")

	for _, key := range p.Keys() {
		if err := p.stages[key].record(enc, fmt.Sprintf("%s stage %d", p.label, key)); err != nil {
			return err
		}
	}

	if p.copy != nil {
		if err := p.copy.Texture.LoadToBuffer(enc, p.copy.Buffer); err != nil {
			return fmt.Errorf("failed to copy out %q: %w", p.label, err)
		}
	}

	if err := enc.Submit(); err != nil {
		return fmt.Errorf("failed to submit %q: %w", p.label, err)
	}
	return nil
}
