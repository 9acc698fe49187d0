package rules

import (
	"fmt"

	"github.com/dgallion1/contentcheck/internal/doctree"
	"github.com/dgallion1/contentcheck/internal/index"
)

const ImageAltID = "image-accessibility"

// ImageAlt warns about images without alt text. It never fails a build on
// its own.
type ImageAlt struct{}

func (ImageAlt) ID() string          { return ImageAltID }
func (ImageAlt) Description() string { return "every image has alt text" }
func (ImageAlt) NeedsIndex() bool    { return false }

func (ImageAlt) Evaluate(sum *doctree.Summary, _ *index.Index) ([]doctree.Finding, error) {
	var out []doctree.Finding
	for _, img := range sum.Images {
		if img.HasAltText {
			continue
		}
		out = append(out, doctree.Finding{
			Severity: doctree.SeverityWarning,
			Message:  fmt.Sprintf("image %q has no alt text", img.Src),
			Line:     img.Line,
		})
	}
	return out, nil
}
