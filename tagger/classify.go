package tagger

import (
	"fmt"
	"sort"
)

const (
	// DefaultThreshold filters general and character tags when mCut is off.
	DefaultThreshold float32 = 0.5
	// CharacterFloor caps how low an adaptive character threshold may go.
	// A near-flat character distribution, common when no character appears,
	// pushes mCut toward zero and would flood the result otherwise.
	CharacterFloor float32 = 0.15
)

// Prediction pairs a catalog tag with the model's probability for it. Scores
// are taken from the engine as-is, never renormalized.
type Prediction struct {
	Tag   Tag     `json:"tag"`
	Score float32 `json:"score"`
}

// Options selects how the general and character groups are thresholded.
// A zero fixed threshold means DefaultThreshold.
type Options struct {
	GeneralMCut        bool
	CharacterMCut      bool
	GeneralThreshold   float32
	CharacterThreshold float32
}

// Result holds the per-category predictions for one image. Rating is always
// complete and unfiltered, in catalog order; General and Character carry only
// the tags that cleared their thresholds, sorted by score descending.
type Result struct {
	Rating    []Prediction `json:"rating"`
	General   []Prediction `json:"general"`
	Character []Prediction `json:"character"`
}

// Classify partitions predictions by category and applies per-category
// thresholds. Tags in categories other than rating, general and character are
// dropped. Comparisons are strictly greater-than: a tag sitting exactly at a
// threshold is excluded.
func Classify(preds []Prediction, opts Options) (*Result, error) {
	var rating, general, character []Prediction
	for _, p := range preds {
		switch p.Tag.Category {
		case CategoryRating:
			rating = append(rating, p)
		case CategoryGeneral:
			general = append(general, p)
		case CategoryCharacter:
			character = append(character, p)
		}
	}

	generalOut, err := cutGroup(general, opts.GeneralMCut, fixedOr(opts.GeneralThreshold), 0)
	if err != nil {
		return nil, fmt.Errorf("general: %w", err)
	}
	characterOut, err := cutGroup(character, opts.CharacterMCut, fixedOr(opts.CharacterThreshold), CharacterFloor)
	if err != nil {
		return nil, fmt.Errorf("character: %w", err)
	}

	sortByScore(generalOut)
	sortByScore(characterOut)
	return &Result{Rating: rating, General: generalOut, Character: characterOut}, nil
}

// cutGroup selects the predictions above the group's threshold: the fixed one,
// or mCut clamped to floor when adaptive is set.
func cutGroup(group []Prediction, adaptive bool, fixed, floor float32) ([]Prediction, error) {
	threshold := fixed
	if adaptive {
		if len(group) < 2 {
			return nil, fmt.Errorf("%w: adaptive threshold needs at least 2 predictions, got %d", ErrEmptyGroup, len(group))
		}
		scores := make([]float32, len(group))
		for i, p := range group {
			scores[i] = p.Score
		}
		mc, err := MCut(scores)
		if err != nil {
			return nil, err
		}
		threshold = max(floor, mc)
	}

	var out []Prediction
	for _, p := range group {
		if p.Score > threshold {
			out = append(out, p)
		}
	}
	return out, nil
}

func fixedOr(v float32) float32 {
	if v > 0 {
		return v
	}
	return DefaultThreshold
}

func sortByScore(preds []Prediction) {
	sort.SliceStable(preds, func(i, j int) bool { return preds[i].Score > preds[j].Score })
}
