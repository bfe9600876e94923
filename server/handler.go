package server

import (
	"crypto/subtle"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"

	"github.com/gin-gonic/gin"
	"github.com/krau/wdtagger/config"
	"github.com/krau/wdtagger/tagger"
)

var errUnauthorized = errors.New("unauthorized")

func authenticate(c *gin.Context) error {
	auth := c.GetHeader("Authorization")

	expectedToken := config.C().Token
	if expectedToken == "" {
		return nil
	}
	providedToken := ""
	if len(auth) > 7 && auth[:7] == "Bearer " {
		providedToken = auth[7:]
	}
	if subtle.ConstantTimeCompare([]byte(providedToken), []byte(expectedToken)) != 1 {
		return errUnauthorized
	}

	return nil
}

// PredictionResult is the wire shape of one classification. PredictedTags is
// the general and character selections merged, best first.
type PredictionResult struct {
	PredictedTags []string           `json:"predicted_tags"`
	Rating        map[string]float32 `json:"rating"`
	General       map[string]float32 `json:"general"`
	Character     map[string]float32 `json:"character"`
}

func toResponse(res *tagger.Result) *PredictionResult {
	out := &PredictionResult{
		Rating:    make(map[string]float32, len(res.Rating)),
		General:   make(map[string]float32, len(res.General)),
		Character: make(map[string]float32, len(res.Character)),
	}
	for _, p := range res.Rating {
		out.Rating[p.Tag.Name] = p.Score
	}

	for _, p := range res.General {
		out.General[p.Tag.Name] = p.Score
	}
	for _, p := range res.Character {
		out.Character[p.Tag.Name] = p.Score
	}

	// Both groups arrive sorted by score, so a merge keeps the order.
	merged := mergeByScore(res.General, res.Character)
	out.PredictedTags = make([]string, 0, len(merged))
	for _, p := range merged {
		out.PredictedTags = append(out.PredictedTags, p.Tag.Name)
	}
	return out
}

func mergeByScore(a, b []tagger.Prediction) []tagger.Prediction {
	merged := make([]tagger.Prediction, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Score >= b[j].Score {
			merged = append(merged, a[i])
			i++
		} else {
			merged = append(merged, b[j])
			j++
		}
	}
	merged = append(merged, a[i:]...)
	merged = append(merged, b[j:]...)
	return merged
}

func PredictHandler(c *gin.Context) {
	if err := authenticate(c); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot decode image"})
		return
	}

	res, err := predictor.Predict(img)
	if err != nil {
		slog.Error("Prediction failed", slog.String("error", err.Error()))
		status := http.StatusInternalServerError
		if errors.Is(err, tagger.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": "prediction failed"})
		return
	}

	c.JSON(http.StatusOK, toResponse(res))
}

func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
