package stage

import (
	"context"
	"fmt"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"sync"
)

// CommandProvider delegates to an external command template.
type CommandProvider struct {
	invoker  port.ToolInvoker
	template *string
	label    string
}

func NewCommandProvider(capability domain.Capability, invoker port.ToolInvoker, template *string) *CommandProvider {
	return &CommandProvider{invoker: invoker, template: template, label: fmt.Sprintf("%s command", capability)}
}

func (p *CommandProvider) Missing() []string {
	if p.template == nil {
		return []string{p.label}
	}
	return nil
}

func (p *CommandProvider) Run(ctx context.Context, inputPath, outputPath string) error {
	_, err := p.invoker.Invoke(ctx, *p.template, inputPath, outputPath)
	return err
}

// Model runs in-process inference from one file to another.
type Model interface {
	Enhance(ctx context.Context, inputPath, outputPath string) error
}

// ModelLoader loads weights from a model asset path.
type ModelLoader func(path string) (Model, error)

// ModelProvider runs a locally loaded model. The model is loaded on first use and shared afterwards.
type ModelProvider struct {
	path     *string
	load     ModelLoader
	requires []port.Provider
	label    string

	once  sync.Once
	model Model
	err   error
}

// NewModelProvider creates a provider that needs the asset at path and every provider in requires.
func NewModelProvider(capability domain.Capability, path *string, load ModelLoader,
	requires ...port.Provider) *ModelProvider {
	return &ModelProvider{
		path:     path,
		load:     load,
		requires: requires,
		label:    fmt.Sprintf("%s model path", capability),
	}
}

func (p *ModelProvider) Missing() []string {
	var missing []string
	if p.path == nil || p.load == nil {
		missing = append(missing, p.label)
	}
	for _, r := range p.requires {
		missing = append(missing, r.Missing()...)
	}
	return missing
}

func (p *ModelProvider) Run(ctx context.Context, inputPath, outputPath string) error {
	p.once.Do(func() {
		p.model, p.err = p.load(*p.path)
		if p.err != nil {
			p.err = fmt.Errorf("error loading %s: %w", p.label, p.err)
		}
	})
	if p.err != nil {
		return p.err
	}

	return p.model.Enhance(ctx, inputPath, outputPath)
}
