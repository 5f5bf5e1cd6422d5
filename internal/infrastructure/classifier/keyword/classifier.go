// Package keyword classifies extracted text by counting taxonomy trigger
// phrases found as substrings. Confidence for a category is the fraction of
// its phrases present in the text.
package keyword

import (
	"context"
	"strings"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

// DefaultMinConfidence is the floor below which a winner is discarded and
// the document stays unclassified.
const DefaultMinConfidence = 0.1

type Classifier struct {
	taxonomy      domain.Taxonomy
	minConfidence float64
}

func NewClassifier(taxonomy domain.Taxonomy, minConfidence float64) *Classifier {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}
	return &Classifier{taxonomy: taxonomy, minConfidence: minConfidence}
}

// Classify is a pure function of the taxonomy and the input text. The text is
// lowercased here regardless of what the extractor did. Ties between equal
// scores go to the category listed first in the taxonomy; scores strictly
// below the floor produce ("Unclassified", 0).
func (c *Classifier) Classify(_ context.Context, text string) (domain.Classification, error) {
	lowered := strings.ToLower(text)

	best := domain.Classification{Category: domain.CategoryUnclassified, Confidence: 0}
	for _, entry := range c.taxonomy.Entries() {
		matches := 0
		for _, phrase := range entry.Phrases {
			if strings.Contains(lowered, phrase) {
				matches++
			}
		}
		confidence := float64(matches) / float64(len(entry.Phrases))
		if confidence > best.Confidence {
			best = domain.Classification{Category: entry.Category, Confidence: confidence}
		}
	}

	if best.Confidence < c.minConfidence {
		return domain.Classification{Category: domain.CategoryUnclassified, Confidence: 0}, nil
	}
	return best, nil
}
