package classifier

import (
	"fmt"
	"math"
	"math/rand"
)

// Labels are the categories the stub classifier can assign.
var Labels = []string{"plastic", "paper", "metal", "glass", "organic"}

const (
	MinConfidence = 0.5
	MaxConfidence = 1.0
)

type Classification struct {
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
}

// Classifier assigns a waste category to a stored image.
type Classifier interface {
	Classify(imageRef string) Classification
}

// RandomClassifier never looks at the image. It picks a label uniformly and
// a confidence uniformly in [MinConfidence, MaxConfidence], rounded to two decimals.
type RandomClassifier struct {
	labels []string
}

func NewRandomClassifier() *RandomClassifier {
	return &RandomClassifier{labels: Labels}
}

func (c *RandomClassifier) Classify(imageRef string) Classification {
	category := c.labels[rand.Intn(len(c.labels))]
	confidence := MinConfidence + rand.Float64()*(MaxConfidence-MinConfidence)
	return Classification{
		Category:    category,
		Confidence:  math.Round(confidence*100) / 100,
		Description: fmt.Sprintf("This appears to be %s waste based on visual analysis.", category),
	}
}
