package tutorclient

import (
	"io"

	"ai-pdf-tutor-be/pkg/tutor/citation"
)

// Runner drives one complete turn: it feeds stream chunks to the
// renderer as they arrive, and on stream end extracts the citation and
// applies it to the viewer. Chunks are processed strictly one at a
// time; the next read does not start until the previous chunk has been
// rendered.
type Runner struct {
	Renderer *Renderer
	Viewer   *Viewer
}

func NewRunner(renderer *Renderer, viewer *Viewer) *Runner {
	return &Runner{
		Renderer: renderer,
		Viewer:   viewer,
	}
}

// Run consumes the response body until EOF. It returns the extraction
// result so the caller can log a malformed block; read errors surface
// after the partial transcript has been preserved.
func (r *Runner) Run(body io.Reader) (*citation.ExtractResult, error) {
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			r.Renderer.ApplyChunk(string(buf[:n]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever rendered; the turn ends without extraction.
			return nil, err
		}
	}

	result := r.Renderer.FinishTurn()
	if r.Viewer != nil && !result.Malformed {
		r.Viewer.Apply(result.Metadata)
	}
	return result, nil
}
