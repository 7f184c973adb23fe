package service

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"example/vision-batch/internal/gemini"
	"example/vision-batch/internal/vision"

	"google.golang.org/genai"
)

// Analyzer turns one image file into raw analysis text.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, imagePath string) (string, error)
}

type VisionAnalyzer struct {
	client *vision.Client
}

func NewVisionAnalyzer(client *vision.Client) *VisionAnalyzer {
	return &VisionAnalyzer{client: client}
}

func (a *VisionAnalyzer) AnalyzeImage(ctx context.Context, imagePath string) (string, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}
	return a.client.Analyze(ctx, imageBytes)
}

type GeminiAnalyzer struct {
	client   *genai.Client
	model    string
	language string
}

func NewGeminiAnalyzer(client *genai.Client, model, language string) *GeminiAnalyzer {
	return &GeminiAnalyzer{
		client:   client,
		model:    model,
		language: language,
	}
}

func (a *GeminiAnalyzer) AnalyzeImage(ctx context.Context, imagePath string) (string, error) {
	imageBytes, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}

	parts := []*genai.Part{
		{Text: gemini.GetPrompt(a.language)},
		{InlineData: &genai.Blob{Data: imageBytes, MIMEType: imageMIMEType(imagePath)}},
	}

	result, err := a.client.Models.GenerateContent(
		ctx,
		a.model,
		[]*genai.Content{{Parts: parts}},
		gemini.GetConfig())
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	return result.Text()
}

func imageMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
