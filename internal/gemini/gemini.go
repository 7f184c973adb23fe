package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

func SetupClient(ctx context.Context, project, location string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return client, nil
}

// GetConfig asks for JSON shaped like a Computer Vision analyze response so
// both backends produce comparable files.
func GetConfig() *genai.GenerateContentConfig {
	category := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":  {Type: genai.TypeString, Description: "category name, lower case, words joined by underscores"},
			"score": {Type: genai.TypeNumber, Description: "confidence between 0 and 1"},
		},
		Required: []string{"name", "score"},
	}
	caption := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"text":       {Type: genai.TypeString, Description: "one sentence describing the image"},
			"confidence": {Type: genai.TypeNumber, Description: "confidence between 0 and 1"},
		},
		Required: []string{"text", "confidence"},
	}
	responseSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"categories": {Type: genai.TypeArray, Items: category},
			"description": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"tags":     {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					"captions": {Type: genai.TypeArray, Items: caption},
				},
				Required: []string{"tags", "captions"},
			},
			"color": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"dominantColorForeground": {Type: genai.TypeString},
					"dominantColorBackground": {Type: genai.TypeString},
					"dominantColors":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					"accentColor":             {Type: genai.TypeString, Description: "hex colour without leading #"},
				},
			},
		},
		Required: []string{"categories", "description", "color"},
	}
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	}
}

func GetPrompt(language string) string {
	if language == "" {
		language = "en"
	}
	return `You are an image analysis service. Analyze the attached image and describe it.

Return:
categories: scene categories such as "outdoor_grass" or "people_portrait", each with a score.
description.tags: short single-word tags for the objects and setting in the image.
description.captions: one or more one-sentence captions, each with a confidence.
color: the dominant foreground and background colours, the list of dominant colours and an accent colour.

Write tags and captions in the language with code "` + language + `".`
}
