// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyzer

import (
	"bytes"
	"fmt"
	"text/template"
)

// systemPrompt pins the model to evidence-grounded scoring. The calibration
// rules keep sparse review sets from producing confident extreme scores.
const systemPrompt = `You are a restaurant review analyst. You score restaurants strictly from the review evidence you are given, never from general knowledge or the restaurant's name.`

// analysisPromptTmpl is the user prompt for one restaurant's reviews.
var analysisPromptTmpl = template.Must(template.New("analysis").
	Funcs(template.FuncMap{"inc": func(i int) int { return i + 1 }}).
	Parse(`Analyze the following customer reviews for the restaurant "{{.Name}}" and produce quality scores.

Score each attribute from 0 to 100:
- taste: food quality and flavor
- price: value for money (higher = better value)
- atmosphere: ambiance, decor, noise level
- service: staff friendliness and speed
- quantity: portion sizes
- accessibility: location convenience, parking, wheelchair access

Scoring rules:
- Base every score only on what reviewers explicitly wrote.
- If an attribute is never mentioned, score it 40-50.
- If mentions are vague or mixed, score it 50-60.
- Scores above 70 or below 40 require the same signal repeated across multiple reviews; a single review is never enough for an extreme score.
- No single review may dominate a score.

Also produce:
- summary: 2-3 sentences capturing what reviewers actually said, both positive and negative
- positiveKeywords and negativeKeywords: short, specific phrases drawn from the reviews (e.g. "crispy pork belly", "long weekend queues"), never generic words like "good" or "bad"
- confidence: 0-100, how well the reviews cover the six attributes

Respond with a single JSON object and nothing else:
{"scores": {"taste": 0, "price": 0, "atmosphere": 0, "service": 0, "quantity": 0, "accessibility": 0}, "summary": "", "positiveKeywords": [], "negativeKeywords": [], "confidence": 0}

Reviews:
{{range $i, $r := .Reviews}}{{inc $i}}. {{$r}}
{{end}}`))

// renderPrompt executes the analysis prompt template.
func renderPrompt(name string, reviews []string) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Name    string
		Reviews []string
	}{Name: name, Reviews: reviews}
	if err := analysisPromptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}
	return buf.String(), nil
}
