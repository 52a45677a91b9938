package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/pixsplit/pixsplit/internal/convert"
	"codeberg.org/pixsplit/pixsplit/pkg/img"
)

func pngBody(t *testing.T) []byte {
	m := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			m.SetNRGBA(x, y, color.NRGBA{uint8(x * 40), 30, 90, 255})
		}
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, m))
	return buf.Bytes()
}

func newTestServer(t *testing.T) *Server {
	codec, err := img.Get("native")
	require.NoError(t, err)
	return New(codec, convert.NewService(nil, nil))
}

func (s *Server) do(method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func TestConvertImage(t *testing.T) {
	s := newTestServer(t)

	t.Run("png", func(t *testing.T) {
		w := s.do("POST", "/api/convert?workers=3&brightness=10", pngBody(t))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, "nway", w.Header().Get("X-Strategy"))
		assert.Equal(t, "3", w.Header().Get("X-Workers"))
		assert.NotEmpty(t, w.Header().Get("X-Elapsed-Ms"))

		m, format, err := s.Codec.Decode(w.Body)
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, image.Rect(0, 0, 6, 4), m.Bounds())

		// (0, 30, 90) is 40 once gray, 50 after brightness
		assert.Equal(t, color.Gray{50}, color.GrayModel.Convert(m.At(0, 0)))
	})

	t.Run("format", func(t *testing.T) {
		w := s.do("POST", "/api/convert?strategy=blocking&format=jpeg", pngBody(t))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
		assert.Equal(t, "blocking", w.Header().Get("X-Strategy"))
		assert.Equal(t, "2", w.Header().Get("X-Workers"))
	})

	tests := []struct {
		target string
		body   []byte
		status int
	}{
		{"/api/convert?strategy=fast", pngBody(t), http.StatusBadRequest},
		{"/api/convert?workers=abc", pngBody(t), http.StatusBadRequest},
		{"/api/convert?workers=-1", pngBody(t), http.StatusBadRequest},
		{"/api/convert?workers=1125899906842624", pngBody(t), http.StatusBadRequest},
		{"/api/convert?brightness=9223372036854775807", pngBody(t), http.StatusBadRequest},
		{"/api/convert?grayscale=maybe", pngBody(t), http.StatusBadRequest},
		{"/api/convert?brightness=x", pngBody(t), http.StatusBadRequest},
		{"/api/convert", []byte("garbage"), http.StatusUnprocessableEntity},
		{"/api/histogram?strategy=fast", pngBody(t), http.StatusBadRequest},
	}

	for _, x := range tests {
		t.Run(x.target, func(t *testing.T) {
			w := s.do("POST", x.target, x.body)
			assert.Equal(t, x.status, w.Code)
			assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

			msg := Message{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
			assert.Equal(t, x.status, msg.Status)
		})
	}
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	body := pngBody(t)

	saved := maxBodySize
	maxBodySize = int64(len(body) - 1)
	defer func() {
		maxBodySize = saved
	}()

	for _, target := range []string{"/api/convert", "/api/histogram"} {
		w := s.do("POST", target, body)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code, target)

		msg := Message{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &msg))
		assert.Equal(t, http.StatusRequestEntityTooLarge, msg.Status)
	}

	maxBodySize = int64(len(body))
	w := s.do("POST", "/api/convert", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, s.Service.Timings.Len())
}

func TestImageHistogram(t *testing.T) {
	s := newTestServer(t)

	w := s.do("POST", "/api/histogram?strategy=sequential", pngBody(t))
	require.Equal(t, http.StatusOK, w.Code)

	rsp := histogramResponse{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rsp))
	assert.Equal(t, "sequential", rsp.Strategy)
	assert.Equal(t, 1, rsp.Workers)
	assert.Equal(t, 24, rsp.Total)
	require.Len(t, rsp.Buckets, 256)
	assert.Equal(t, 4, rsp.Buckets[40])
}

func TestTimingList(t *testing.T) {
	s := newTestServer(t)

	w := s.do("GET", "/api/timings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	s.do("POST", "/api/convert?strategy=sequential", pngBody(t))
	s.do("POST", "/api/convert?strategy=nonblocking", pngBody(t))
	s.do("POST", "/api/convert?strategy=fast", pngBody(t))

	w = s.do("GET", "/api/timings", nil)
	require.Equal(t, http.StatusOK, w.Code)

	records := []map[string]interface{}{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "sequential", records[0]["strategy"])
	assert.Equal(t, float64(1), records[0]["workers"])
	assert.Equal(t, "nonblocking", records[1]["strategy"])
	assert.Contains(t, records[1], "elapsed_ms")
}
