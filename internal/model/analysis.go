package model

import "encoding/json"

// Analysis is the subset of an analyze response that gets summarised in logs.
// The Gemini backend is prompted to answer in the same shape.
type Analysis struct {
	Categories  []Category  `json:"categories"`
	Description Description `json:"description"`
	Color       Color       `json:"color"`
}

type Category struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type Description struct {
	Tags     []string  `json:"tags"`
	Captions []Caption `json:"captions"`
}

type Caption struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type Color struct {
	DominantColorForeground string   `json:"dominantColorForeground"`
	DominantColorBackground string   `json:"dominantColorBackground"`
	DominantColors          []string `json:"dominantColors"`
	AccentColor             string   `json:"accentColor"`
	IsBWImg                 bool     `json:"isBwImg"`
}

// ParseAnalysis decodes raw response text. Responses that are not an analysis
// object (errors, arbitrary model output) return ok=false.
func ParseAnalysis(raw string) (Analysis, bool) {
	var a Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return Analysis{}, false
	}
	return a, true
}

// BestCaption returns the caption with the highest confidence.
func (a Analysis) BestCaption() (Caption, bool) {
	if len(a.Description.Captions) == 0 {
		return Caption{}, false
	}
	best := a.Description.Captions[0]
	for _, c := range a.Description.Captions[1:] {
		if c.Confidence > best.Confidence {
			best = c
		}
	}
	return best, true
}

// Result is the outcome of analysing one image.
type Result struct {
	ImagePath  string
	OutputPath string
	Raw        string
	Formatted  string
}
