package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/nsiona/tvb-framework/internal/datatype"
	"github.com/nsiona/tvb-framework/logging"
	"github.com/nsiona/tvb-framework/logging/storelog"
)

// handleGeometry serves one chunk of surface geometry:
//
//	/data/surface/{gid}/{vertices|normals|triangles}/{chunk}
//	/data/surface/{gid}/pick/{vertices|normals|triangles}/{chunk}
func (s *Server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/data/surface/")
	parts := strings.Split(rest, "/")

	pick := false
	var gid, kind, rawChunk string
	switch len(parts) {
	case 3:
		gid, kind, rawChunk = parts[0], parts[1], parts[2]
	case 4:
		if parts[1] != "pick" {
			http.NotFound(w, r)
			return
		}
		pick = true
		gid, kind, rawChunk = parts[0], parts[2], parts[3]
	default:
		http.NotFound(w, r)
		return
	}

	chunk, err := strconv.Atoi(rawChunk)
	if err != nil {
		writeError(w, http.StatusBadRequest, "chunk must be a number")
		return
	}

	surf, err := s.store.Surface(r.Context(), gid)
	if err != nil {
		writeError(w, storeStatus(err), fmt.Sprintf("surface %s: %v", gid, err))
		return
	}

	payload, err := geometryChunk(surf, kind, chunk, pick)
	if err != nil {
		if err == errUnknownGeometryKind {
			http.NotFound(w, r)
			return
		}
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode")
		return
	}
	s.counters.RecordGeometry(len(data))
	storelog.GeometryServed(r.Context(), s.pub,
		logging.EntityRef{ID: surf.GID, Kind: logging.EntityKindDatatype},
		storelog.GeometryPayload{Kind: kind, Chunk: chunk, Pick: pick, Bytes: len(data)}, nil)

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

var errUnknownGeometryKind = fmt.Errorf("unknown geometry kind")

func geometryChunk(surf *datatype.Surface, kind string, chunk int, pick bool) (any, error) {
	switch kind {
	case "vertices":
		if pick {
			return surf.PickVertexChunk(chunk)
		}
		return surf.VertexChunk(chunk)
	case "normals":
		if pick {
			return surf.PickNormalChunk(chunk)
		}
		return surf.NormalChunk(chunk)
	case "triangles":
		if pick {
			return surf.PickTriangleChunk(chunk)
		}
		return surf.TriangleChunk(chunk)
	default:
		return nil, errUnknownGeometryKind
	}
}
