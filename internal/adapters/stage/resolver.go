package stage

import (
	"context"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"

	"github.com/rs/zerolog/log"
)

// Resolver serves a capability with the first provider that has everything it needs.
type Resolver struct {
	capability domain.Capability
	providers  []port.Provider
}

func NewResolver(capability domain.Capability, providers ...port.Provider) *Resolver {
	return &Resolver{capability: capability, providers: providers}
}

func (r *Resolver) Capability() domain.Capability {
	return r.capability
}

// Resolve returns the first configured provider, or a CapabilityUnavailableError naming everything missing.
func (r *Resolver) Resolve() (port.Provider, error) {
	var missing []string
	for _, p := range r.providers {
		m := p.Missing()
		if len(m) == 0 {
			return p, nil
		}
		missing = append(missing, m...)
	}

	return nil, &domain.CapabilityUnavailableError{Capability: r.capability, Missing: missing}
}

// Missing lets a resolver act as a nested dependency of another provider.
func (r *Resolver) Missing() []string {
	_, err := r.Resolve()
	if err == nil {
		return nil
	}
	return err.(*domain.CapabilityUnavailableError).Missing
}

func (r *Resolver) Run(ctx context.Context, inputPath, outputPath string) error {
	p, err := r.Resolve()
	if err != nil {
		return err
	}

	log.Debug().Str("capability", string(r.capability)).Str("provider", describe(p)).Msg("resolved provider")

	return p.Run(ctx, inputPath, outputPath)
}

func describe(p port.Provider) string {
	switch v := p.(type) {
	case *CommandProvider:
		return v.label
	case *ModelProvider:
		return v.label
	default:
		return "custom"
	}
}

// Adapter exposes a resolver as a pipeline stage.
type Adapter struct {
	resolver *Resolver
}

func NewAdapter(resolver *Resolver) *Adapter {
	return &Adapter{resolver: resolver}
}

func (a *Adapter) Capability() domain.Capability {
	return a.resolver.Capability()
}

func (a *Adapter) Run(ctx context.Context, input domain.StageResult, outputPath string) (domain.StageResult, error) {
	if err := a.resolver.Run(ctx, input.Path, outputPath); err != nil {
		return domain.StageResult{}, err
	}
	return domain.NewStageResult(outputPath), nil
}

// Missing reports what the stage still needs to be usable, nil when it can run.
func (a *Adapter) Missing() []string {
	return a.resolver.Missing()
}
