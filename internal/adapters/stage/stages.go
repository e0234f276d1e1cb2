package stage

import (
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
)

// FaceLoader loads face restoration weights that depend on a background upsampler.
type FaceLoader func(path string, background port.Provider) (Model, error)

// NewUpscale resolves to the upscale command, else the upscale model.
func NewUpscale(invoker port.ToolInvoker, command, modelPath *string, load ModelLoader) *Adapter {
	return NewAdapter(NewResolver(domain.Upscale,
		NewCommandProvider(domain.Upscale, invoker, command),
		NewModelProvider(domain.Upscale, modelPath, load),
	))
}

// NewBackground resolves the upsampler that face restoration runs over the whole frame.
func NewBackground(invoker port.ToolInvoker, command, modelPath *string, load ModelLoader) *Resolver {
	return NewResolver(domain.FaceBackground,
		NewCommandProvider(domain.FaceBackground, invoker, command),
		NewModelProvider(domain.FaceBackground, modelPath, load),
	)
}

// NewFaceRestore resolves to the face restore command, else the face model, which also needs background to
// resolve.
func NewFaceRestore(invoker port.ToolInvoker, command, modelPath *string, load FaceLoader,
	background *Resolver) *Adapter {
	var loader ModelLoader
	if load != nil {
		loader = func(path string) (Model, error) {
			return load(path, background)
		}
	}

	return NewAdapter(NewResolver(domain.FaceRestore,
		NewCommandProvider(domain.FaceRestore, invoker, command),
		NewModelProvider(domain.FaceRestore, modelPath, loader, background),
	))
}

// NewColorize only supports an external command.
func NewColorize(invoker port.ToolInvoker, command *string) *Adapter {
	return NewAdapter(NewResolver(domain.Colorize,
		NewCommandProvider(domain.Colorize, invoker, command),
	))
}
