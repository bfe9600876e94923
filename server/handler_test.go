package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/krau/wdtagger/tagger"
	"github.com/stretchr/testify/require"
)

const testTags = `tag_id,name,category,count
0,general,9,10
1,1girl,0,100
2,hatsune_miku,4,50
`

type fixedRunner struct {
	probs []float32
}

func (f *fixedRunner) InputSize() int { return 32 }

func (f *fixedRunner) Run(t *tagger.Tensor) ([]float32, error) { return f.probs, nil }

func setupRouter(t *testing.T, probs []float32) *gin.Engine {
	t.Helper()
	catalog, err := tagger.ReadCatalog(strings.NewReader(testTags))
	require.NoError(t, err)
	predictor = tagger.New(catalog, &fixedRunner{probs: probs}, tagger.Options{})

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/predict", PredictHandler)
	r.GET("/health", HealthHandler)
	return r
}

func multipartFile(t *testing.T, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "test.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestPredictHandler(t *testing.T) {
	r := setupRouter(t, []float32{0.9, 0.8, 0.7})

	body, contentType := multipartFile(t, encodePNG(t))
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var res PredictionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, []string{"1girl", "hatsune miku"}, res.PredictedTags)
	require.InDelta(t, 0.9, res.Rating["general"], 1e-6)
	require.InDelta(t, 0.8, res.General["1girl"], 1e-6)
	require.InDelta(t, 0.7, res.Character["hatsune miku"], 1e-6)
}

func TestPredictHandlerNoFile(t *testing.T) {
	r := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/predict", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictHandlerBadImage(t *testing.T) {
	r := setupRouter(t, nil)

	body, contentType := multipartFile(t, []byte("not an image"))
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictHandlerCatalogMismatch(t *testing.T) {
	// Two probabilities against a three-tag catalog is a server-side fault.
	r := setupRouter(t, []float32{0.9, 0.8})

	body, contentType := multipartFile(t, encodePNG(t))
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	r := setupRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestMergeByScore(t *testing.T) {
	a := []tagger.Prediction{
		{Tag: tagger.Tag{Name: "a1"}, Score: 0.9},
		{Tag: tagger.Tag{Name: "a2"}, Score: 0.4},
	}
	b := []tagger.Prediction{
		{Tag: tagger.Tag{Name: "b1"}, Score: 0.6},
	}

	merged := mergeByScore(a, b)
	require.Equal(t, "a1", merged[0].Tag.Name)
	require.Equal(t, "b1", merged[1].Tag.Name)
	require.Equal(t, "a2", merged[2].Tag.Name)
}
