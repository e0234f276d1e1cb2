package model

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

// normalization maps 8-bit RGB into the value range a network expects, blob = (pixel - mean) * scale.
type normalization struct {
	scale float64
	mean  float64
}

var (
	unitRange   = normalization{scale: 1.0 / 255.0}
	signedRange = normalization{scale: 1.0 / 127.5, mean: 127.5}
)

// denormalize is the inverse of the normalization for one output value.
func (n normalization) denormalize(v float32) float32 {
	return float32(float64(v)/n.scale + n.mean)
}

// onnxNet wraps a DNN net. gocv nets are not safe for concurrent use, so Forward is serialized.
type onnxNet struct {
	mu   sync.Mutex
	net  gocv.Net
	norm normalization
	path string
}

func loadNet(path string, norm normalization) (*onnxNet, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model file %w", err)
	}

	net := gocv.ReadNet(path, "")
	if net.Empty() {
		return nil, fmt.Errorf("could not read network from %s", path)
	}

	log.Info().Str("path", path).Msg("loaded model")

	return &onnxNet{net: net, norm: norm, path: path}, nil
}

// infer runs img through the net at the given input size and returns the output as an image.
func (n *onnxNet) infer(ctx context.Context, img image.Image, size image.Point) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("error converting image %w", err)
	}
	defer mat.Close()

	mean := gocv.NewScalar(n.norm.mean, n.norm.mean, n.norm.mean, 0)
	blob := gocv.BlobFromImage(mat, n.norm.scale, size, mean, true, false)
	defer blob.Close()

	n.mu.Lock()
	n.net.SetInput(blob, "")
	out := n.net.Forward("")
	n.mu.Unlock()
	defer out.Close()

	dims := out.Size()
	if len(dims) != 4 || dims[1] != 3 {
		return nil, fmt.Errorf("unexpected output shape %v from %s", dims, n.path)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("error reading network output %w", err)
	}

	return tensorToImage(data, dims[3], dims[2], n.norm)
}

func (n *onnxNet) Close() error {
	return n.net.Close()
}
