package server

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"codeberg.org/pixsplit/pixsplit/configs"
	"codeberg.org/pixsplit/pixsplit/internal/convert"
	"codeberg.org/pixsplit/pixsplit/pkg/histogram"
	"codeberg.org/pixsplit/pixsplit/pkg/img"
	"codeberg.org/pixsplit/pixsplit/pkg/parallel"
)

type histogramResponse struct {
	Strategy  string `json:"strategy"`
	Workers   int    `json:"workers"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Total     int    `json:"total"`
	Buckets   []int  `json:"buckets"`
}

func (s *Server) apiRoutes() http.Handler {
	r := chi.NewRouter()
	r.Post("/convert", s.convertImage)
	r.Post("/histogram", s.imageHistogram)
	r.Get("/timings", s.timingList)
	return r
}

// convertImage converts the image sent in the request body and
// sends back the encoded result.
func (s *Server) convertImage(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	rsp, format, err := s.convert(w, r, req)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if f := r.URL.Query().Get("format"); f != "" {
		format = f
	}

	buf := new(bytes.Buffer)
	if err = s.Codec.Encode(buf, rsp.Image, format); err != nil {
		s.Error(w, r, &img.EncodeError{Path: "response", Err: err})
		return
	}

	ext := img.Extension(format)
	w.Header().Set("Content-Type", "image/"+imageType(ext))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Strategy", req.Strategy.String())
	w.Header().Set("X-Workers", strconv.Itoa(rsp.Workers))
	w.Header().Set("X-Elapsed-Ms", strconv.FormatInt(rsp.ElapsedMs(), 10))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// imageHistogram converts the image sent in the request body and
// sends back the histogram of the result.
func (s *Server) imageHistogram(w http.ResponseWriter, r *http.Request) {
	req, err := parseRequest(r)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	req.Histogram = true

	rsp, _, err := s.convert(w, r, req)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	h := rsp.Histogram
	if h == nil {
		h = &histogram.Histogram{}
	}
	s.Render(w, r, http.StatusOK, histogramResponse{
		Strategy:  req.Strategy.String(),
		Workers:   rsp.Workers,
		ElapsedMs: rsp.ElapsedMs(),
		Total:     h.Total(),
		Buckets:   h[:],
	})
}

// timingList returns all the timing records.
func (s *Server) timingList(w http.ResponseWriter, r *http.Request) {
	s.Render(w, r, http.StatusOK, s.Service.Timings.Records())
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request, req convert.Request) (*convert.Response, string, error) {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	defer body.Close()

	data, err := ioutil.ReadAll(body)
	if err != nil {
		if err.Error() == errTooLarge {
			return nil, "", ErrBodyTooLarge
		}
		return nil, "", &img.DecodeError{Path: "request body", Err: err}
	}

	src, format, err := s.Codec.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", &img.DecodeError{Path: "request body", Err: err}
	}

	rsp, err := s.Service.Convert(r.Context(), src, req)
	if err != nil {
		return nil, "", err
	}

	s.Log(r).WithFields(log.Fields{
		"strategy":   req.Strategy.String(),
		"workers":    rsp.Workers,
		"elapsed_ms": rsp.ElapsedMs(),
	}).Debug("image converted")

	return rsp, format, nil
}

// parseRequest reads the conversion request from the query string.
func parseRequest(r *http.Request) (convert.Request, error) {
	q := r.URL.Query()
	req := convert.Request{
		Strategy:  convert.NWaySplit,
		Workers:   configs.Config.Engine.Workers,
		Grayscale: true,
	}

	var err error
	if v := q.Get("strategy"); v != "" {
		if req.Strategy, err = convert.ParseStrategy(v); err != nil {
			return req, err
		}
	}
	if v := q.Get("workers"); v != "" {
		if req.Workers, err = strconv.Atoi(v); err != nil {
			return req, fmt.Errorf("%w: workers: %s", parallel.ErrInvalidArgument, err)
		}
	}
	if v := q.Get("grayscale"); v != "" {
		if req.Grayscale, err = strconv.ParseBool(v); err != nil {
			return req, fmt.Errorf("%w: grayscale: %s", parallel.ErrInvalidArgument, err)
		}
	}
	if v := q.Get("brightness"); v != "" {
		delta, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("%w: brightness: %s", parallel.ErrInvalidArgument, err)
		}
		req.Brightness = &delta
	}

	return req, req.Validate()
}

func imageType(ext string) string {
	if ext == ".jpg" {
		return "jpeg"
	}
	return ext[1:]
}
