// Package genaisdk runs masked edits through the official Google Gen AI SDK.
package genaisdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"magiceraser/internal/domain"
	"magiceraser/internal/editor"
	restgenai "magiceraser/internal/providers/genai"
)

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Editor wraps a genai.Client.
type Editor struct {
	client *genai.Client
	model  string
	logger zerolog.Logger
}

func New(ctx context.Context, opts Options) (*Editor, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, domain.NewSubmissionError(domain.FailureAuth, 0, errors.New("gemini api key is not configured"))
	}
	cfg := &genai.ClientConfig{
		APIKey:     strings.TrimSpace(opts.APIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash-image-preview"
	}
	return &Editor{client: client, model: model, logger: opts.Logger}, nil
}

func (e *Editor) Name() string { return "genai" }

func (e *Editor) Edit(ctx context.Context, req editor.Request) (*editor.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewSubmissionError(domain.FailureGeneric, 0, err)
	}
	started := time.Now()

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: req.SourceMIME, Data: req.Source}},
		{InlineData: &genai.Blob{MIMEType: "image/png", Data: req.Mask}},
		genai.NewPartFromText(editor.BuildEraseInstruction(req.Instruction, req.Locale)),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}

	resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, config)
	if err != nil {
		return nil, classify(err)
	}

	result := &editor.Result{}
	var finish string
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate == nil {
				continue
			}
			if candidate.FinishReason != "" {
				finish = string(candidate.FinishReason)
			}
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				if part == nil {
					continue
				}
				if part.Text != "" {
					result.Text += part.Text
				}
				if part.InlineData != nil && len(part.InlineData.Data) > 0 && result.Data == nil {
					result.Data = part.InlineData.Data
					result.MIME = part.InlineData.MIMEType
				}
			}
		}
	}

	if result.Empty() {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return nil, domain.NewSubmissionError(domain.FailureSafety, 0,
				fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
		}
		if restgenai.IsSafetyFinish(finish) {
			return nil, domain.NewSubmissionError(domain.FailureSafety, 0, fmt.Errorf("generation stopped: %s", finish))
		}
		if text := strings.TrimSpace(result.Text); text != "" {
			return nil, fmt.Errorf("%w: %s", domain.ErrEmptyResult, text)
		}
		return nil, domain.ErrEmptyResult
	}
	if result.MIME == "" {
		result.MIME = "image/png"
	}

	e.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", e.model).
		Int("bytes", len(result.Data)).
		Dur("elapsed", time.Since(started)).
		Msg("genaisdk: edit completed")

	return result, nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return domain.NewSubmissionError(restgenai.ClassifyStatus(apiErr.Code, apiErr.Status, apiErr.Message), apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return domain.NewSubmissionError(restgenai.ClassifyStatus(apiErrPtr.Code, apiErrPtr.Status, apiErrPtr.Message), apiErrPtr.Code, err)
	}
	return domain.NewSubmissionError(domain.FailureNetwork, 0, err)
}

var _ editor.Editor = (*Editor)(nil)
