// Package metadata renders token URIs. Output is a pure function of stage so
// verifiers can recompute it off-ledger byte for byte.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"evonft/internal/evolution/models"
	id "evonft/pkg/domain"
	dErrors "evonft/pkg/domain-errors"
)

// URIPrefix starts every token URI.
const URIPrefix = "data:image/svg+xml;utf8,"

type palette struct {
	background string
	body       string
	accent     string
	radius     int
}

// Colors are rgb() literals: a raw '#' would end the URI at the fragment.
var palettes = map[models.Stage]palette{
	models.StageInitial:      {background: "rgb(240,234,214)", body: "rgb(214,170,94)", accent: "rgb(120,84,36)", radius: 28},
	models.StageIntermediate: {background: "rgb(212,232,240)", body: "rgb(72,150,196)", accent: "rgb(22,70,110)", radius: 40},
	models.StageFinal:        {background: "rgb(34,20,56)", body: "rgb(196,120,236)", accent: "rgb(255,214,92)", radius: 52},
}

// bodies is built once; RenderURI only concatenates.
var bodies = func() map[models.Stage]string {
	out := make(map[models.Stage]string, len(palettes))
	for stage, p := range palettes {
		out[stage] = renderSVG(stage, p)
	}
	return out
}()

func renderSVG(stage models.Stage, p palette) string {
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="160" height="160" viewBox="0 0 160 160">`)
	fmt.Fprintf(&b, `<rect width="160" height="160" fill="%s"/>`, p.background)
	fmt.Fprintf(&b, `<circle cx="80" cy="76" r="%d" fill="%s"/>`, p.radius, p.body)
	for i := range int(stage) {
		fmt.Fprintf(&b, `<circle cx="%d" cy="76" r="4" fill="%s"/>`, 80-8*(int(stage)-1)+16*i, p.accent)
	}
	fmt.Fprintf(&b, `<text x="80" y="148" font-family="monospace" font-size="14" text-anchor="middle" fill="%s">%s %d/%d</text>`,
		p.accent, stage.Name(), stage, models.MaxStage)
	b.WriteString(`</svg>`)
	return b.String()
}

// RenderURI returns the token URI for stage. Stages outside 1..3 cannot occur
// for stored assets and fail with CodeUnknownAsset.
func RenderURI(stage models.Stage) (string, error) {
	body, ok := bodies[stage]
	if !ok {
		return "", dErrors.New(dErrors.CodeUnknownAsset, fmt.Sprintf("no metadata for stage %d", stage))
	}
	return URIPrefix + body, nil
}

// StageReader resolves an asset's current stage.
type StageReader interface {
	GetStage(ctx context.Context, assetID id.AssetID) (models.Stage, error)
}

type Service struct {
	stages StageReader
}

func New(stages StageReader) (*Service, error) {
	if stages == nil {
		return nil, errors.New("stage reader is required")
	}
	return &Service{stages: stages}, nil
}

// TokenURI renders the URI for the asset's current stage.
func (s *Service) TokenURI(ctx context.Context, assetID id.AssetID) (string, error) {
	stage, err := s.stages.GetStage(ctx, assetID)
	if err != nil {
		return "", err
	}
	return RenderURI(stage)
}
