package api

import (
	"github.com/gin-gonic/gin"

	"github.com/kochabx/stepviz/core/hexstr"
	"github.com/kochabx/stepviz/errors"
	stephttp "github.com/kochabx/stepviz/transport/http"
)

type convertRequest struct {
	Fields map[string]string `json:"fields" validate:"required,min=1,max=64"`
	Length int               `json:"length" validate:"gte=0,lte=4096"`
	Width  int               `json:"width" validate:"oneof=8 16 32"`
}

// convertResult is one field of a conversion. Values are widened to uint32
// so byte buffers are not encoded as base64.
type convertResult struct {
	Success bool           `json:"success"`
	Values  []uint32       `json:"values,omitempty"`
	Error   *errors.Status `json:"error,omitempty"`
}

// convertHex parses and converts a group of fields with one length and
// width. Every field succeeds or fails on its own.
func (h *Handler) convertHex(c *gin.Context) {
	var req convertRequest
	if !h.bind(c, &req) {
		return
	}

	obj, failed := hexstr.ParseObject(req.Fields)
	out := make(map[string]convertResult, len(req.Fields))
	for name, err := range failed {
		out[name] = failure(err)
	}
	switch req.Width {
	case 8:
		collect(out, hexstr.ConvertObject[uint8](obj, req.Length))
	case 16:
		collect(out, hexstr.ConvertObject[uint16](obj, req.Length))
	default:
		collect(out, hexstr.ConvertObject[uint32](obj, req.Length))
	}
	stephttp.GinJSON(c, out)
}

func collect[T hexstr.Element](out map[string]convertResult, results map[string]errors.Result[[]T]) {
	for name, r := range results {
		v, err := r.Unwrap()
		if err != nil {
			out[name] = failure(err)
			continue
		}
		wide := make([]uint32, len(v))
		for i, x := range v {
			wide[i] = uint32(x)
		}
		out[name] = convertResult{Success: true, Values: wide}
	}
}

func failure(err error) convertResult {
	e := errors.FromError(err)
	return convertResult{Error: &e.Status}
}
