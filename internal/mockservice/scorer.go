package mockservice

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/nfnt/resize"

	"github.com/goliatone/go-lesionform/pkg/model"
)

// Sample is one decoded prediction request.
type Sample struct {
	Image        []byte
	Sex          string
	DxType       string
	Localization string
	Age          float64
}

// Scorer produces class probabilities for a sample, in model.ClassOrder.
type Scorer interface {
	Score(ctx context.Context, sample Sample) (model.Probabilities, error)
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(ctx context.Context, sample Sample) (model.Probabilities, error)

func (f ScorerFunc) Score(ctx context.Context, sample Sample) (model.Probabilities, error) {
	return f(ctx, sample)
}

// thumbnailSize is the edge of the square the image is reduced to before the
// colour features are taken.
const thumbnailSize = 8

// sharpness scales logits so that confident predictions occur.
const sharpness = 3.0

// weights maps the five features (mean red, green, blue, scaled age, metadata
// hash) to one logit per class in model.ClassOrder.
var weights = [][]float64{
	{1.2, -0.4, -0.8, 2.0, 0.6},
	{0.3, 0.9, -0.2, 1.4, -0.5},
	{-0.6, 0.4, 0.7, 1.0, 0.8},
	{0.1, -0.9, 1.1, -0.3, 0.2},
	{1.8, -1.2, -0.5, 1.6, 1.1},
	{-0.4, 1.3, 0.2, -1.5, 0.9},
	{-1.0, 0.2, 1.5, 0.4, -0.7},
}

// ImageScorer is a deterministic stand-in for a trained model: it decodes the
// image, reduces it to a thumbnail and mixes its mean colour with the metadata.
type ImageScorer struct{}

func (ImageScorer) Score(ctx context.Context, sample Sample) (model.Probabilities, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(sample.Image))
	if err != nil {
		return nil, fmt.Errorf("cannot identify image file: %w", err)
	}

	thumb := resize.Resize(thumbnailSize, thumbnailSize, img, resize.Bilinear)
	r, g, b := meanColour(thumb)

	h := fnv.New32a()
	fmt.Fprintf(h, "%s|%s|%s", sample.Sex, sample.DxType, sample.Localization)
	meta := float64(h.Sum32()%1000) / 1000

	features := []float64{r, g, b, sample.Age / 100, meta}
	logits := make([]float64, len(model.ClassOrder))
	for i := range logits {
		for j, f := range features {
			logits[i] += sharpness * weights[i][j] * f
		}
	}

	probs := softmax(logits)
	out := make(model.Probabilities, 0, len(probs))
	for i, class := range model.ClassOrder {
		out = append(out, model.ClassProbability{Class: class, Value: probs[i]})
	}
	return out, nil
}

func meanColour(img image.Image) (r, g, b float64) {
	bounds := img.Bounds()
	n := float64(bounds.Dx() * bounds.Dy())
	if n == 0 {
		return 0, 0, 0
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r += float64(cr) / 65535
			g += float64(cg) / 65535
			b += float64(cb) / 65535
		}
	}
	return r / n, g / n, b / n
}

func softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, l := range logits {
		maxLogit = math.Max(maxLogit, l)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
