package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/nsiona/tvb-framework/internal/burst"
	"github.com/nsiona/tvb-framework/internal/datatype"
	"github.com/nsiona/tvb-framework/internal/equations"
	"github.com/nsiona/tvb-framework/internal/forms"
	"github.com/nsiona/tvb-framework/internal/neural"
	"github.com/nsiona/tvb-framework/internal/session"
	"github.com/nsiona/tvb-framework/internal/spatial"
)

// Routing tokens the client resolves.
const (
	surfaceMainContent = "spatial/model_param_surface_main"
	equationViewerURL  = "/spatial/modelparameters/surface/get_equation_chart"
)

// chartPoints is how many samples the equation viewer receives.
const chartPoints = 200

// Default x range of the equation viewer.
const (
	chartMinX = 0.0
	chartMaxX = 100.0
)

type modelData struct {
	Model      string        `json:"model"`
	Parameters neural.Params `json:"parameters"`
}

// handleEditModelParameters opens the surface parameters page: it
// resolves the session's burst configuration and its two datatypes,
// resets the editing context and returns the page view model.
func (s *Server) handleEditModelParameters(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	cfg, ok := session.BurstConfig(sess)
	if !ok {
		writeError(w, http.StatusConflict, "no burst configuration in session")
		return
	}
	model, err := cfg.Model()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	params, err := cfg.ModelParams(model)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	connGID, ok := cfg.Parameter(burst.ParamConnectivity)
	if !ok || connGID == "" {
		writeError(w, http.StatusConflict, "burst configuration has no connectivity")
		return
	}
	surfGID, ok := cfg.Parameter(burst.ParamSurface)
	if !ok || surfGID == "" {
		writeError(w, http.StatusConflict, "burst configuration has no surface")
		return
	}
	if _, err := s.store.Connectivity(r.Context(), connGID); err != nil {
		writeError(w, storeStatus(err), fmt.Sprintf("connectivity %s: %v", connGID, err))
		return
	}
	surf, err := s.store.Surface(r.Context(), surfGID)
	if err != nil {
		writeError(w, storeStatus(err), fmt.Sprintf("surface %s: %v", surfGID, err))
		return
	}

	edit := spatial.NewContext(model)
	session.SetSurfaceContext(sess, edit)

	view := map[string]any{
		"mainContent":       surfaceMainContent,
		"equationViewerUrl": equationViewerURL,
		"urlVertices":       geometryURLs(surf.GID, "vertices", surf.ChunkCount(), false),
		"urlNormals":        geometryURLs(surf.GID, "normals", surf.ChunkCount(), false),
		"urlTriangles":      geometryURLs(surf.GID, "triangles", surf.ChunkCount(), false),
		"urlVerticesPick":   geometryURLs(surf.GID, "vertices", surf.PickChunkCount(), true),
		"urlNormalsPick":    geometryURLs(surf.GID, "normals", surf.PickChunkCount(), true),
		"urlTrianglesPick":  geometryURLs(surf.GID, "triangles", surf.PickChunkCount(), true),
		"brainCenter":       surf.Center(),
		"inputList":         forms.SurfaceParametersForm(model),
		"equationsPrefixes": forms.EquationsPrefixes(),
		"data":              modelData{Model: model.Name(), Parameters: params},
		"applied_equations": edit.ConfigureInfo(),
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleApplyEquation(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	edit, ok := session.SurfaceContext(sess)
	if !ok {
		writeError(w, http.StatusConflict, "open the surface parameters page first")
		return
	}

	param := r.PostFormValue(forms.PrefixModelParam)
	if param == "" {
		writeError(w, http.StatusBadRequest, "missing model_param")
		return
	}
	name := r.PostFormValue(forms.PrefixEquation)
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing equation")
		return
	}
	eq, err := equations.New(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for _, pname := range eq.ParamNames() {
		raw := r.PostFormValue(forms.OptionParamKey(forms.PrefixEquation, name, pname))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("equation parameter %s must be a number", pname))
			return
		}
		if err := eq.SetParam(pname, value); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := edit.ApplyEquation(param, eq); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model_param": param,
		"equation":    eq,
	})
}

func (s *Server) handleApplyFocalPoint(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	edit, ok := session.SurfaceContext(sess)
	if !ok {
		writeError(w, http.StatusConflict, "open the surface parameters page first")
		return
	}

	param := r.PostFormValue(forms.PrefixModelParam)
	if param == "" {
		writeError(w, http.StatusBadRequest, "missing model_param")
		return
	}
	rawIndex := r.PostFormValue("triangle_index")
	if rawIndex == "" {
		writeError(w, http.StatusBadRequest, "missing triangle_index")
		return
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "triangle_index must be a number")
		return
	}

	surf, status, err := s.surfaceFromSession(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	if _, err := edit.AddFocalPoint(param, surf, index); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, spatial.ErrNoEquation) {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model_param":  param,
		"focal_points": focalPointList(edit, param),
	})
}

func (s *Server) handleRemoveFocalPoint(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	edit, ok := session.SurfaceContext(sess)
	if !ok {
		writeError(w, http.StatusConflict, "open the surface parameters page first")
		return
	}

	param := r.PostFormValue(forms.PrefixModelParam)
	if param == "" {
		writeError(w, http.StatusBadRequest, "missing model_param")
		return
	}
	rawIndex := r.PostFormValue("vertex_index")
	if rawIndex == "" {
		writeError(w, http.StatusBadRequest, "missing vertex_index")
		return
	}
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		writeError(w, http.StatusBadRequest, "vertex_index must be a number")
		return
	}

	if !edit.RemoveFocalPoint(param, index) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no focal point at vertex %d", index))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model_param":  param,
		"focal_points": focalPointList(edit, param),
	})
}

func (s *Server) handleGetFocalPoints(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	edit, ok := session.SurfaceContext(sess)
	if !ok {
		writeError(w, http.StatusConflict, "open the surface parameters page first")
		return
	}
	param := r.URL.Query().Get(forms.PrefixModelParam)
	if param == "" {
		writeError(w, http.StatusBadRequest, "missing model_param")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"model_param":  param,
		"focal_points": focalPointList(edit, param),
	})
}

// handleEquationChart samples the equation applied to a parameter for
// the equation viewer.
func (s *Server) handleEquationChart(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	edit, ok := session.SurfaceContext(sess)
	if !ok {
		writeError(w, http.StatusConflict, "open the surface parameters page first")
		return
	}
	param := r.URL.Query().Get(forms.PrefixModelParam)
	if param == "" {
		writeError(w, http.StatusBadRequest, "missing model_param")
		return
	}
	eq, ok := edit.Equation(param)
	if !ok {
		writeError(w, http.StatusConflict, fmt.Sprintf("no equation applied to %s", param))
		return
	}

	minX, err := floatQuery(r, "min_x", chartMinX)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	maxX, err := floatQuery(r, "max_x", chartMaxX)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if maxX <= minX {
		writeError(w, http.StatusBadRequest, "min_x must be below max_x")
		return
	}

	xs, ys := eq.Sample(minX, maxX, chartPoints)
	xs, ys, dropped := equations.Sanitize(xs, ys)
	s.counters.RecordChart()

	writeJSON(w, http.StatusOK, map[string]any{
		"equation":  eq.Name(),
		"x":         xs,
		"y":         ys,
		"sanitized": dropped,
	})
}

// handleSubmitModelParameters ends the editing workflow: on submit it
// writes every applied equation descriptor into the burst
// configuration and stores it. The editing context is dropped either
// way and the browser goes back to the burst page.
func (s *Server) handleSubmitModelParameters(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	sess := session.FromContext(r.Context())
	edit, hasEdit := session.SurfaceContext(sess)

	if r.PostFormValue("submit_action") == "submit_action" && hasEdit {
		cfg, ok := session.BurstConfig(sess)
		if !ok {
			writeError(w, http.StatusConflict, "no burst configuration in session")
			return
		}
		applied := edit.Applied()
		names := make([]string, 0, len(applied))
		for name := range applied {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			descriptor, err := json.Marshal(applied[name])
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			cfg.SetParameter(burst.SpatialParamKey(name), string(descriptor))
		}
		if err := s.store.SaveBurst(r.Context(), cfg); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	session.ClearSurfaceContext(sess)
	http.Redirect(w, r, "/burst/", http.StatusSeeOther)
}

func (s *Server) surfaceFromSession(r *http.Request) (*datatype.Surface, int, error) {
	sess := session.FromContext(r.Context())
	cfg, ok := session.BurstConfig(sess)
	if !ok {
		return nil, http.StatusConflict, errors.New("no burst configuration in session")
	}
	surfGID, ok := cfg.Parameter(burst.ParamSurface)
	if !ok || surfGID == "" {
		return nil, http.StatusConflict, errors.New("burst configuration has no surface")
	}
	surf, err := s.store.Surface(r.Context(), surfGID)
	if err != nil {
		return nil, storeStatus(err), fmt.Errorf("surface %s: %w", surfGID, err)
	}
	return surf, 0, nil
}

func focalPointList(edit *spatial.Context, param string) []spatial.FocalPoint {
	points := edit.FocalPoints(param)
	if points == nil {
		points = []spatial.FocalPoint{}
	}
	return points
}

func geometryURLs(gid, kind string, chunks int, pick bool) []string {
	urls := make([]string, 0, chunks)
	for i := 0; i < chunks; i++ {
		if pick {
			urls = append(urls, fmt.Sprintf("/data/surface/%s/pick/%s/%d", gid, kind, i))
		} else {
			urls = append(urls, fmt.Sprintf("/data/surface/%s/%s/%d", gid, kind, i))
		}
	}
	return urls
}

func floatQuery(r *http.Request, name string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", name)
	}
	return v, nil
}
