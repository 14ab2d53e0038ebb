package compare

import (
	"TCPSpectra/internal/config"
	"fmt"
	"path/filepath"
	"strings"
)

// RequestBody is the wire form of a Request shared by the HTTP and gRPC APIs.
type RequestBody struct {
	WindowSeconds float64               `json:"window_seconds"`
	DelayMode     string                `json:"delay_mode,omitempty"`
	MissingPolicy string                `json:"missing_policy,omitempty"`
	Algorithms    []config.AlgorithmDef `json:"algorithms"`
}

// Request converts the body into a runner request.
func (b RequestBody) Request() Request {
	return Request{
		Algorithms:    b.Algorithms,
		WindowSeconds: b.WindowSeconds,
		DelayMode:     b.DelayMode,
		MissingPolicy: b.MissingPolicy,
	}
}

// RequestWithin converts the body into a runner request whose input paths are
// resolved against root. A path that resolves outside root fails with
// ErrInvalidRequest.
func (b RequestBody) RequestWithin(root string) (Request, error) {
	base, err := filepath.Abs(root)
	if err != nil {
		return Request{}, fmt.Errorf("%w: invalid documents root: %v", ErrInvalidRequest, err)
	}

	defs := make([]config.AlgorithmDef, len(b.Algorithms))
	for i, def := range b.Algorithms {
		for _, p := range []*string{&def.Document, &def.SenderPcap, &def.ReceiverPcap} {
			if *p == "" {
				continue
			}
			resolved, ok := confine(base, *p)
			if !ok {
				return Request{}, fmt.Errorf("%w: algorithm '%s': path '%s' is outside the documents root", ErrInvalidRequest, def.Label, *p)
			}
			*p = resolved
		}
		defs[i] = def
	}

	req := b.Request()
	req.Algorithms = defs
	return req, nil
}

// confine joins a relative path onto base and reports whether the cleaned
// result stays inside base. Absolute paths are accepted only inside base.
func confine(base, path string) (string, bool) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(base, path)
	}
	path = filepath.Clean(path)
	rel, err := filepath.Rel(base, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return path, true
}
