// Package prompts construit les prompts envoyés au LLM pour chaque phase de la
// génération. Toutes les fonctions sont pures.
package prompts

import (
	"encoding/json"
	"fmt"
	"strings"

	"ocf-deckgen/pkg/models"
)

// Températures d'échantillonnage par phase
const (
	TemperatureUnderstanding = 0.3
	TemperaturePlanning      = 0.7
	TemperatureExtraction    = 0.5
	TemperatureContent       = 0.7
	TemperatureRefinement    = 0.7
	TemperatureEdit          = 0.7
	TemperatureChat          = 0.7
)

const (
	defaultCreatePersona = "Business professional looking to pitch an idea or concept"
	defaultCreateGoal    = "Persuade an audience effectively and create engagement"
	defaultEditPersona   = "Business professional looking to modify existing slide content"
	defaultEditGoal      = "Improve an existing slide to be more effective and engaging"
)

const SystemPrompt = `You are PITCH MASTER, the world's best storyteller and startup pitch creator.

Your expertise:
- Crafting narratives that capture hearts and minds in seconds
- Turning complex ideas into simple, relatable stories
- Creating high-impact, investor-ready pitch decks
- Identifying and highlighting unique value propositions
- Transforming dry facts into emotional journeys

Your approach to any pitch:
1. Find the emotional core of the idea that will resonate universally
2. Structure the narrative with a compelling hook, clear problem statement, and inspiring vision
3. Use concrete examples and metaphors that make abstract concepts tangible
4. Balance aspirational vision with practical credibility
5. End with a powerful call to action that creates urgency

Your slides always:
- Tell a cohesive story, not just present information
- Use vivid, concrete language that creates mental images
- Include surprising elements that grab and maintain attention
- Follow the "less is more" principle - each slide makes ONE powerful point
- Mix logical arguments with emotional appeals
- Use narrative techniques from the world's best TED talks and pitch competitions

Make every slide as if billions in funding depend on it, because they might.`

// Parameters demande au modèle d'inférer persona, objectif, contraintes et tâche
func Parameters(userPrompt, slideContext string) string {
	return fmt.Sprintf(`
### Parameter Extraction Task
I need you to analyze the following user prompt and slideContext for a slide presentation and extract key parameters.

### Existing slide context:
%s

### General constraints:
- No images, no tables
- If a specific language is requested, the content should use natural expressions in that language, not direct translations

### User prompt:
"%s"

### Instructions:
Extract the following information from the user prompt and general constraints:
1. User Persona: Who is the target audience for this presentation? What kind of professionals are they?
2. Slide Goal: What is the main objective of this presentation? (e.g., persuade, inform, entertain, sell)
3. Slide Constraint: Are there any specific constraints mentioned? (e.g., language requirements, time limits, style preferences, no images, no tables)
   - If a language constraint is identified, add that the content should "use natural expressions in that language that sound native, not direct translations"
4. Task: Is the user requesting a new presentation, editing/refining an existing one, or simply chatting about the slides?

If any of these parameters are not explicitly mentioned in the prompt, make a reasonable inference based on the content.

Return ONLY a JSON object with the following format:
{
  "userPersona": "Description of the target audience",
  "slideGoal": "Primary objective of the presentation",
  "slideConstraint": "Any constraints that should be considered, including natural language usage for non-English content",
  "task": "create|edit|chat"
}
`, orDefault(slideContext, "None"), userPrompt)
}

// Planning construit le prompt de plan ; la variante edit porte sur une slide existante
func Planning(userPrompt string, params models.RequestParameters, slideContext string) string {
	if params.Task == models.TaskEdit {
		return fmt.Sprintf(`
### Slide Editing Request
I need you to plan how to edit an existing slide based on the following:

### Task:
%s

### User prompt:
"%s"

### User persona:
%s

### Slide goal:
%s

### Slide constraint:
%s

### Existing slide content (to be edited):
%s

### Instructions:
Plan how to edit the existing slide by:
1. Identifying what elements to keep, modify, or remove
2. Determining how to incorporate new content from the user prompt
3. Ensuring the slide maintains a coherent message
4. Respecting the existing style while making improvements

Your response should be a structured JSON object with the following format:
{
  "title": "Presentation Title",
  "task": "edit",
  "totalSlides": 1,
  "slides": [
    {
      "slideNumber": 1,
      "slideType": "specific_slide_type",
      "slideTitle": "Updated Slide Title",
      "keyMessage": "Updated main point of this slide",
      "content": ["updated bullet point 1", "updated bullet point 2", "..."],
      "storytellingElement": "Updated narrative element for this slide",
      "notes": "Additional guidelines for editing this slide"
    }
  ],
  "overallNarrative": "Brief description of how this edited slide fits into a broader narrative"
}

Think deeply about how to improve the slide while maintaining its core purpose.
`,
			params.Task,
			userPrompt,
			orDefault(params.UserPersona, defaultEditPersona),
			orDefault(params.SlideGoal, defaultEditGoal),
			params.SlideConstraint,
			orDefault(slideContext, "No existing content provided"),
		)
	}

	return fmt.Sprintf(`
### Slide Planning Request
Create a detailed plan for a slide presentation based on the following:

### Task:
%s

### User prompt:
"%s"

### User persona:
%s

### Slide goal:
%s

### Slide constraint:
%s

### Instructions:
Create a slide-by-slide plan that outlines:
1. The overall narrative structure and flow
2. The key message of each slide
3. What content (points, stories, data) should be included on each slide
4. How many slides are needed in total
5. Appropriate storytelling elements for this audience
6. Critical persuasive elements to include

Your response should be a structured JSON object with the following format:
{
  "title": "Presentation Title",
  "task": "create",
  "totalSlides": number,
  "slides": [
    {
      "slideNumber": number,
      "slideType": "cover|introduction|problem|solution|data|quote|story|conclusion|etc",
      "slideTitle": "Slide Title",
      "keyMessage": "Main point of this slide",
      "content": ["bullet point 1", "bullet point 2", "..."],
      "storytellingElement": "Key narrative element for this slide",
      "notes": "Additional guidelines for creating this slide"
    }
  ],
  "overallNarrative": "Description of how the slides flow together as a cohesive story"
}

Think deeply about the most effective structure to achieve the slide goal for the intended audience.
`,
		orDefault(params.Task, models.TaskCreate),
		userPrompt,
		orDefault(params.UserPersona, defaultCreatePersona),
		orDefault(params.SlideGoal, defaultCreateGoal),
		params.SlideConstraint,
	)
}

// Extraction construit le prompt d'extraction pour la slide n (base 1)
func Extraction(plan *models.SlidePlan, n int, userPrompt string) string {
	slide, _ := plan.Slide(n)

	return fmt.Sprintf(`
### Information Extraction for Slide
I need you to extract relevant information for creating a slide based on the following:

### Original user prompt:
"%s"

### Overall presentation:
Title: "%s"
Total slides: %d
Overall narrative: "%s"

### This specific slide (%d of %d):
Slide type: %s
Slide title: "%s"
Key message: "%s"
Content points: %s
Storytelling element: "%s"

### Instructions:
Extract and organize the most relevant information for this slide by:
1. Identifying key facts, statistics, or examples from the user prompt that support this slide's key message
2. Finding compelling ways to express the main idea that will resonate with the audience
3. Suggesting metaphors, analogies, or stories that could enhance the storytelling element
4. Organizing the information in a logical flow that builds toward the key message

Return a JSON object with the following format:
{
  "keyFacts": ["fact 1", "fact 2", ...],
  "compellingExpressions": ["expression 1", "expression 2", ...],
  "storytellingElements": ["element 1", "element 2", ...],
  "recommendedStructure": "Brief description of how to structure this information"
}
`,
		userPrompt,
		plan.Title, plan.TotalSlides, plan.OverallNarrative,
		n, plan.TotalSlides,
		slide.SlideType, slide.SlideTitle, slide.KeyMessage,
		jsonList(slide.Content),
		slide.StorytellingElement,
	)
}

// SlideContent construit le prompt de rédaction MDX d'une slide
func SlideContent(plan *models.SlidePlan, n int, info models.ExtractedSlideInfo, constraint string) string {
	slide, _ := plan.Slide(n)

	return fmt.Sprintf(`
### Slide Content Creation
I need you to rewrite the extracted information into ONE detailed slide based on the following:
The slide should follow the slide constraint: "%[1]s"

### Slide information:
Slide type: %[2]s
Slide title: "%[3]s"
Key message: "%[4]s"
Content points: %[5]s

### Slide constraint:
%[1]s

### Extracted information:
Key facts: %[6]s
Compelling expressions: %[7]s
Storytelling elements: %[8]s
Recommended structure: "%[9]s"

### Instructions:
Create detailed MDX content for just this ONE slide following these guidelines:
1. Use MDX markdown format
2. Use heading levels (#, ##, ###) appropriately
3. Include bullet points with "-" where appropriate
4. Use basic markdown formatting (bold, italic, lists) to enhance readability
5. Keep the slide focused on the single idea from the plan
6. Make the content visually balanced and easy to scan
7. IMPORTANT: Limit to a maximum of 9 lines of content (including headings and bullet points)
8. Add vivid, impactful language that creates mental images
9. Incorporate the storytelling elements appropriately
10. The slide should follow the slide constraint: "%[1]s" strictly
11. VERY IMPORTANT: If the constraint involves a non-English language, use natural, native expressions in that language. Avoid direct translations that sound unnatural. Think like a native speaker of that language rather than translating from English.
Return ONLY the MDX content for this single slide, without any additional explanation.
`,
		constraint,
		slide.SlideType, slide.SlideTitle, slide.KeyMessage,
		jsonList(slide.Content),
		jsonList(info.KeyFacts),
		jsonList(info.CompellingExpressions),
		jsonList(info.StorytellingElements),
		info.RecommendedStructure,
	)
}

// Refinement fusionne les slides, dans l'ordre du plan, en une présentation
func Refinement(slides []string, plan *models.SlidePlan, constraint string) string {
	var body strings.Builder
	for i, slide := range slides {
		if i > 0 {
			body.WriteString("\n")
		}
		body.WriteString("---\n")
		body.WriteString(slide)
		body.WriteString("\n")
	}

	return fmt.Sprintf(`
### Slide Presentation Refinement
I have a set of individual slides that need to be refined into a cohesive presentation.

### Original presentation plan:
Title: "%[1]s"
Total slides: %[2]d
Overall narrative: "%[3]s"

### Individual slides content:
%[4]s

### Instructions:
Refine these slides into a cohesive presentation by:
1. Ensuring narrative flow between slides
2. Maintaining consistent formatting and style
3. Adding transition phrases or elements where needed
4. Ensuring the story builds properly from beginning to end
5. Verifying that the key message of each slide connects to the overall goal
6. Removing any redundancy between slides
7. Make sure each slide is still limited to maximum 9 lines of content
8. Make sure the slide is still following the slide constraint: "%[5]s" strictly
9. If the constraint involves a non-English language, ensure all language sounds natural to native speakers, not like a direct translation
10. Use idiomatic expressions and phrasings that feel native to the target language
11. Return the final presentation with each slide separated by "---" (three dashes on a single line)
12. Here is the final presentation format:
---
# Slide 1 Title
Slide1 content
---
# Slide 2 Title
Slide2 content
`,
		plan.Title, plan.TotalSlides, plan.OverallNarrative,
		body.String(),
		constraint,
	)
}

// DirectEdit modifie une slide existante sans passer par le plan
func DirectEdit(userPrompt, constraint, slideContext string) string {
	return fmt.Sprintf(`
### Direct Slide Editing Task
I need you to edit an existing slide based on the user's instructions.

### User's edit request:
"%s"

### Existing slide content:
%s

### Slide constraint:
%s

### Instructions:
1. Carefully read both the existing slide content and the user's edit request
2. Modify the slide according to the user's instructions
3. Maintain the same general structure and formatting
4. Preserve any key information that should be retained
5. Use MDX markdown format with appropriate heading levels and formatting
6. Limit to a maximum of 9 lines of content (including headings and bullet points)
7. VERY IMPORTANT: If the constraint involves a non-English language, use natural, native expressions in that language. Avoid direct translations that sound unnatural.

Return ONLY the edited MDX content for the slide, without any additional explanation.
`, userPrompt, slideContext, constraint)
}

// Chat répond librement à l'utilisateur à propos de ses slides
func Chat(userPrompt, slideContext string) string {
	if slideContext == "" {
		return userPrompt
	}
	return fmt.Sprintf(`
### Current slides:
%s

### User message:
%s
`, slideContext, userPrompt)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func jsonList(items []string) string {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}
