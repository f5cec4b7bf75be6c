// Package openai adapts the Azure OpenAI chat-completions endpoint to the
// Describer and Narrator ports. All failures come back as *types.ServiceError
// with a hint for the common authentication, not-found and rate-limit
// statuses; callers substitute placeholders and keep the batch going.
package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"

	"github.com/ndelia/storycut/internal/types"
)

const (
	DefaultDeployment = "gpt-4o-mini"
	DefaultAPIVersion = "2024-12-01-preview"
)

type Config struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
}

type Adapter struct {
	client     openai.Client
	apiKey     string
	deployment string
}

func New(cfg Config) *Adapter {
	if cfg.Deployment == "" {
		cfg.Deployment = DefaultDeployment
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	client := openai.NewClient(
		azure.WithEndpoint(cfg.Endpoint, cfg.APIVersion),
		azure.WithAPIKey(cfg.APIKey),
	)
	return &Adapter{client: client, apiKey: cfg.APIKey, deployment: cfg.Deployment}
}

func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a helpful assistant."),
			openai.UserMessage("Reply with the single word: ok"),
		},
		Model:     openai.ChatModel(a.deployment),
		MaxTokens: openai.Int(8),
	})
	if err != nil {
		return a.serviceError("connection test", err)
	}
	return nil
}

func (a *Adapter) DescribeImage(ctx context.Context, imagePath string) (string, error) {
	b, err := os.ReadFile(imagePath)
	if err != nil {
		return "", a.serviceError("describe image", err)
	}
	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(b)

	content, err := a.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a detailed image analyzer. Describe what you see in the image with specific details about the scene, camera shot type, objects, lighting, and atmosphere."),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart("Describe this image in a brief, straight to the point way. What is in focus on the image, what is the camera shot and angle, what action the subject(s) doing. Keep it to less than 2 sentences."),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
		Model:     openai.ChatModel(a.deployment),
		MaxTokens: openai.Int(500),
	})
	if err != nil {
		return "", a.serviceError("describe image", err)
	}
	return content, nil
}

func (a *Adapter) AnalyzeFootage(ctx context.Context, firstFrame, lastFrame string, meta types.ClipMetadata) (string, error) {
	var sb strings.Builder
	if meta.DurationFormatted != "" {
		fmt.Fprintf(&sb, "Video duration: %s\n", meta.DurationFormatted)
	}
	if meta.Resolution != "" {
		fmt.Fprintf(&sb, "Resolution: %s\n", meta.Resolution)
	}
	fmt.Fprintf(&sb, "\nFirst frame description:\n%s\n", firstFrame)
	fmt.Fprintf(&sb, "\nLast frame description:\n%s\n", lastFrame)
	sb.WriteString("\nBased on these descriptions, explain very briefly what likely happens in this video footage. Focus on the actions by the characters and the camera movements, and whether something changes or a new element appears. Keep your answer straight to the point.")

	content, err := a.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a video content analyzer. Based on descriptions of the first and last frames of a video, infer what likely happens during the footage. Keep your answer really short."),
			openai.UserMessage(sb.String()),
		},
		Model:     openai.ChatModel(a.deployment),
		MaxTokens: openai.Int(800),
	})
	if err != nil {
		return "", a.serviceError("analyze footage", err)
	}
	return content, nil
}

const shotListSystemPrompt = `You are a professional video editor.
Your task is to create a shot list in JSON format that tells a coherent story using the available footage.
Analyze the content of each video and suggest an order, timestamps, and transitions that would create a compelling narrative.

IMPORTANT: You MUST include EVERY SINGLE video file in your shot list. Do not skip any footage.

The output should be valid JSON with the following structure:
{
  "project_name": "A descriptive name based on the content",
  "narrative_theme": "A brief description of the story or theme",
  "shots": [
    {
      "filename": "original_filename.mp4",
      "description": "Brief description of this shot's purpose in the narrative",
      "start_time": "HH:MM:SS",
      "end_time": "HH:MM:SS",
      "duration": "HH:MM:SS",
      "transition_in": "fade in/dissolve/cut/etc",
      "transition_out": "fade out/dissolve/cut/etc"
    }
  ]
}
Use realistic timestamps based on the actual duration of each video.
Be creative but practical in your suggestions.
If the user provides storyline guidance, follow it closely while creating your shot list.

Remember: EVERY video file must be included in the shot list.`

func (a *Adapter) ShotListNarrative(ctx context.Context, briefs []types.ClipBrief, guidance string) (string, error) {
	var videos strings.Builder
	for i, b := range briefs {
		fmt.Fprintf(&videos, "Video %d: %s\n", i+1, b.Filename)
		fmt.Fprintf(&videos, "Duration: %s\n", b.DurationFormatted)
		fmt.Fprintf(&videos, "Content: %s\n\n", b.Content)
	}

	guidanceText := ""
	if guidance != "" {
		guidanceText = fmt.Sprintf("\nStoryline Guidance:\n%s\n", guidance)
	}

	user := fmt.Sprintf(`Here are the videos available for editing:%s

%s
Based on these videos, create a shot list in JSON format that tells a coherent story.
The shot list should suggest an order for the footage, with appropriate in/out points and transitions.

IMPORTANT: You MUST include ALL %d video files in your shot list.

Return ONLY the JSON with no additional text.`, guidanceText, videos.String(), len(briefs))

	content, err := a.complete(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(shotListSystemPrompt),
			openai.UserMessage(user),
		},
		Model:       openai.ChatModel(a.deployment),
		MaxTokens:   openai.Int(2000),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		return "", a.serviceError("generate shot list", err)
	}
	return content, nil
}

func (a *Adapter) complete(ctx context.Context, params openai.ChatCompletionNewParams) (string, error) {
	resp, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("empty response: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// serviceError wraps an endpoint failure with a status-specific hint and
// redacts credentials from the underlying message before it reaches logs.
func (a *Adapter) serviceError(op string, err error) *types.ServiceError {
	hint := ""
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 401:
			hint = "authentication error: check the API key"
		case 404:
			hint = "resource not found: check the deployment name and endpoint"
		case 429:
			hint = "rate limit exceeded: too many requests"
		}
	}
	return &types.ServiceError{
		Op:   op,
		Hint: hint,
		Err:  errors.New(redactSecrets(err.Error(), a.apiKey)),
	}
}
