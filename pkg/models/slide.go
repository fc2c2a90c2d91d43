package models

// RequestParameters est la sortie structurée de la phase understanding
type RequestParameters struct {
	UserPersona     string `json:"userPersona"`
	SlideGoal       string `json:"slideGoal"`
	SlideConstraint string `json:"slideConstraint"`
	Task            string `json:"task"`
}

// SlideSpec décrit une slide du plan
type SlideSpec struct {
	SlideNumber         int      `json:"slideNumber"`
	SlideType           string   `json:"slideType"`
	SlideTitle          string   `json:"slideTitle"`
	KeyMessage          string   `json:"keyMessage"`
	Content             []string `json:"content"`
	StorytellingElement string   `json:"storytellingElement"`
	Notes               string   `json:"notes,omitempty"`
}

// SlidePlan est produit une fois par job par la phase planning
type SlidePlan struct {
	Title            string      `json:"title"`
	Task             string      `json:"task,omitempty"`
	TotalSlides      int         `json:"totalSlides"`
	Slides           []SlideSpec `json:"slides"`
	OverallNarrative string      `json:"overallNarrative"`
}

// Normalize aligne TotalSlides sur le nombre réel de slides ; les phases
// suivantes indexent Slides par position.
func (p *SlidePlan) Normalize() {
	p.TotalSlides = len(p.Slides)
	for i := range p.Slides {
		if p.Slides[i].SlideNumber == 0 {
			p.Slides[i].SlideNumber = i + 1
		}
	}
}

// Slide retourne la slide numéro n (base 1)
func (p *SlidePlan) Slide(n int) (SlideSpec, bool) {
	if n < 1 || n > len(p.Slides) {
		return SlideSpec{}, false
	}
	return p.Slides[n-1], true
}

// ExtractedSlideInfo est la sortie de la phase d'extraction par slide
type ExtractedSlideInfo struct {
	KeyFacts              []string `json:"keyFacts"`
	CompellingExpressions []string `json:"compellingExpressions"`
	StorytellingElements  []string `json:"storytellingElements"`
	RecommendedStructure  string   `json:"recommendedStructure"`
}

// FallbackSlideInfo construit l'extraction à partir du plan quand la sortie du LLM est illisible
func FallbackSlideInfo(slide SlideSpec) ExtractedSlideInfo {
	return ExtractedSlideInfo{
		KeyFacts:              append([]string(nil), slide.Content...),
		CompellingExpressions: []string{slide.KeyMessage},
		StorytellingElements:  []string{slide.StorytellingElement},
		RecommendedStructure:  "Follow the content points in order",
	}
}
