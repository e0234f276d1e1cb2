package port

import (
	"context"
	"restorebot/internal/core/domain"
)

// Stage is one step of the restoration pipeline.
type Stage interface {
	// Capability names the stage.
	Capability() domain.Capability
	// Run transforms input into a file at outputPath and returns what it produced. The returned path may
	// differ from outputPath when the stage has to switch to another container format.
	Run(ctx context.Context, input domain.StageResult, outputPath string) (domain.StageResult, error)
}

// Provider is one way of serving a capability, tried in order by a resolver.
type Provider interface {
	// Missing names the configuration this provider lacks; empty when it can run.
	Missing() []string
	// Run writes the transformed image for inputPath to outputPath.
	Run(ctx context.Context, inputPath, outputPath string) error
}

// ToolInvoker runs an external command template against an input/output file pair.
type ToolInvoker interface {
	Invoke(ctx context.Context, commandTemplate, inputPath, outputPath string) (string, error)
}

// FilterEngine applies classical filters to an image file and returns the written path.
type FilterEngine interface {
	ApplyFile(ctx context.Context, inputPath, outputPath string, opts domain.FilterOptions) (string, error)
}

// CapabilityStatus reports whether a stage is configured.
type CapabilityStatus interface {
	Capability() domain.Capability
	Missing() []string
}
