package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/matzehuels/topostack/pkg/buildinfo"
	"github.com/matzehuels/topostack/pkg/classify"
	errs "github.com/matzehuels/topostack/pkg/errors"
	"github.com/matzehuels/topostack/pkg/graph"
	"github.com/matzehuels/topostack/pkg/pipeline"
	"github.com/matzehuels/topostack/pkg/registry"
	"github.com/matzehuels/topostack/pkg/topology"
)

// maxClassifyHostnames bounds one classify request.
const maxClassifyHostnames = 10000

// =============================================================================
// Request and Response Types
// =============================================================================

// ClassifyRequest is the body of POST /api/v1/classify.
type ClassifyRequest struct {
	Hostnames []string `json:"hostnames"`
}

// ClassifyResponse lists one identity per requested hostname, in request
// order.
type ClassifyResponse struct {
	Identities []classify.Identity `json:"identities"`
}

// LayoutRequest is the body of POST /api/v1/layout. The datasets use the
// same wire form as the ingest output files; any of them may be omitted.
type LayoutRequest struct {
	Physical graph.Dataset `json:"physical"`
	FHRP     graph.Dataset `json:"fhrp"`
	BGP      graph.Dataset `json:"bgp"`
	pipeline.Options
}

// LayoutResponse is the result of one pipeline run.
type LayoutResponse struct {
	RunID     string              `json:"run_id"`
	GraphHash string              `json:"graph_hash"`
	Build     topology.BuildStats `json:"build"`
	Views     []ViewResponse      `json:"views"`
}

// ViewResponse is one laid out view. Artifacts holds the rendered non-JSON
// formats, base64 encoded.
type ViewResponse struct {
	Name      string            `json:"name"`
	Cached    bool              `json:"cached"`
	Document  graph.Document    `json:"document"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"date":    buildinfo.Date,
	})
}

func (s *Server) handleRegistry(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, struct {
		Fingerprint string        `json:"fingerprint"`
		Summary     string        `json:"summary"`
		Registry    registry.File `json:"registry"`
	}{
		Fingerprint: s.cfg.Registry.Fingerprint(),
		Summary:     s.cfg.Registry.Summary(),
		Registry:    s.cfg.Registry.File(),
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}
	if len(req.Hostnames) > maxClassifyHostnames {
		s.respondError(w, errs.New(errs.ErrCodeInvalidInput, "too many hostnames (max %d)", maxClassifyHostnames))
		return
	}
	resp := ClassifyResponse{Identities: make([]classify.Identity, 0, len(req.Hostnames))}
	for _, h := range req.Hostnames {
		if err := errs.ValidateHostname(h); err != nil {
			s.respondError(w, err)
			return
		}
		resp.Identities = append(resp.Identities, s.classifier.Classify(h))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req LayoutRequest
	if err := s.decode(w, r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	opts := req.Options
	opts.Registry = s.cfg.Registry
	opts.Logger = s.cfg.Logger
	in := pipeline.Inputs{
		Physical: req.Physical.Topology(topology.Physical),
		FHRP:     req.FHRP.Topology(topology.FHRP),
		BGP:      req.BGP.Topology(topology.BGP),
	}

	res, err := s.cfg.Runner.Execute(r.Context(), in, opts)
	if err != nil {
		s.respondError(w, err)
		return
	}

	w.Header().Set("X-Run-ID", res.RunID)
	respondJSON(w, http.StatusOK, layoutResponse(res))
}

func layoutResponse(res *pipeline.Result) LayoutResponse {
	out := LayoutResponse{
		RunID:     res.RunID,
		GraphHash: res.GraphHash,
		Build:     res.Build,
		Views:     make([]ViewResponse, 0, len(res.Views)),
	}
	for _, v := range res.Views {
		vr := ViewResponse{
			Name:     v.Name,
			Cached:   v.CacheInfo.LayoutHit,
			Document: v.Document,
		}
		for format, data := range v.Artifacts {
			if format == pipeline.FormatJSON {
				continue
			}
			if vr.Artifacts == nil {
				vr.Artifacts = make(map[string][]byte)
			}
			vr.Artifacts[format] = data
		}
		out.Views = append(out.Views, vr)
	}
	return out
}

// =============================================================================
// Helpers
// =============================================================================

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errs.Wrap(errs.ErrCodeInvalidInput, err, "request body too large")
		}
		return errs.Wrap(errs.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.cfg.Logger.Error("request failed", "error", err)
	}
	respondJSON(w, status, ErrorResponse{
		Error: errs.UserMessage(err),
		Code:  string(errs.GetCode(err)),
	})
}

func statusFor(err error) int {
	switch errs.GetCode(err) {
	case errs.ErrCodeInvalidInput, errs.ErrCodeInvalidFormat, errs.ErrCodeInvalidDatacenter, errs.ErrCodeInvalidPath:
		return http.StatusBadRequest
	case errs.ErrCodeInvalidDataset, errs.ErrCodeInvalidConfig:
		return http.StatusUnprocessableEntity
	case errs.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}
