package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"magiceraser/internal/domain"
	"magiceraser/internal/editor"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash-image-preview"

	// error bodies are only read for their message
	maxErrorBody = 64 << 10
)

type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client calls the Gemini generateContent REST endpoint with the source image
// and mask as inline parts.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient fills in the public endpoint, the default image model and an
// HTTP client with a two minute timeout when opts leaves them empty.
func NewClient(opts Options) (*Client, error) {
	c := &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		model:   opts.Model,
		http:    opts.HTTPClient,
		log:     zerolog.Nop(),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = DefaultModel
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: 2 * time.Minute}
	}
	if opts.Logger != nil {
		c.log = *opts.Logger
	}
	if _, err := url.Parse(c.baseURL); err != nil {
		return nil, fmt.Errorf("genai: base url: %w", err)
	}
	return c, nil
}

func (c *Client) Model() string { return c.model }

func (c *Client) Name() string { return "gemini" }

// Edit sends one masked edit and returns the first image of the reply.
func (c *Client) Edit(ctx context.Context, req editor.Request) (*editor.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.NewSubmissionError(domain.FailureNetwork, 0, err)
	}
	if err := req.Validate(); err != nil {
		return nil, domain.NewSubmissionError(domain.FailureGeneric, 0, err)
	}
	if c.apiKey == "" {
		return nil, domain.NewSubmissionError(domain.FailureAuth, 0, errors.New("gemini api key is not configured"))
	}

	body := generateRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &blob{MimeType: req.SourceMIME, Data: req.Source}},
				{InlineData: &blob{MimeType: "image/png", Data: req.Mask}},
				{Text: editor.BuildEraseInstruction(req.Instruction, req.Locale)},
			},
		}},
		GenerationConfig: &generationConfig{CandidateCount: 1, ResponseModalities: []string{"IMAGE", "TEXT"}},
	}

	started := time.Now()
	var resp generateResponse
	if err := c.post(ctx, "/models/"+url.PathEscape(c.model)+":generateContent", body, &resp); err != nil {
		return nil, err
	}
	res, err := c.extract(ctx, resp)
	if err != nil {
		return nil, err
	}
	c.log.Debug().
		Str("request_id", req.RequestID).
		Str("model", c.model).
		Int("bytes", len(res.Data)).
		Dur("elapsed", time.Since(started)).
		Msg("genai: edit completed")
	return res, nil
}

// extract returns the first image part, collecting any text seen before it.
// Without an image the reply is classified as blocked or empty.
func (c *Client) extract(ctx context.Context, resp generateResponse) (*editor.Result, error) {
	var notes []string
	var finish string
	for _, cand := range resp.Candidates {
		if cand.FinishReason != "" {
			finish = cand.FinishReason
		}
		for _, p := range cand.Content.Parts {
			if t := strings.TrimSpace(p.Text); t != "" {
				notes = append(notes, t)
			}
			data, mime, err := c.image(ctx, p)
			if err != nil {
				c.log.Warn().Err(err).Msg("genai: skipping unreadable part")
				continue
			}
			if len(data) == 0 {
				continue
			}
			if mime == "" {
				mime = "image/png"
			}
			return &editor.Result{Data: data, MIME: mime, Text: strings.Join(notes, "\n")}, nil
		}
	}

	switch {
	case resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "":
		return nil, domain.NewSubmissionError(domain.FailureSafety, 0,
			fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason))
	case IsSafetyFinish(finish):
		return nil, domain.NewSubmissionError(domain.FailureSafety, 0, fmt.Errorf("generation stopped: %s", finish))
	case len(notes) > 0:
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptyResult, strings.Join(notes, " "))
	}
	return nil, domain.ErrEmptyResult
}

// image returns the bytes of an inline or file part; other parts yield nil.
func (c *Client) image(ctx context.Context, p part) ([]byte, string, error) {
	switch {
	case p.InlineData != nil && len(p.InlineData.Data) > 0:
		return p.InlineData.Data, p.InlineData.MimeType, nil
	case p.FileData != nil && p.FileData.FileURI != "":
		data, mime, err := c.fetch(ctx, p.FileData.FileURI)
		if err != nil {
			return nil, "", err
		}
		if p.FileData.MimeType != "" {
			mime = p.FileData.MimeType
		}
		return data, mime, nil
	}
	return nil, "", nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return domain.NewSubmissionError(domain.FailureGeneric, 0, fmt.Errorf("marshal request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return domain.NewSubmissionError(domain.FailureGeneric, 0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.NewSubmissionError(domain.FailureNetwork, 0, fmt.Errorf("invoke gemini: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.NewSubmissionError(domain.FailureNetwork, resp.StatusCode, fmt.Errorf("decode gemini response: %w", err))
	}
	return nil
}

func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := strings.TrimSpace(string(data))
	var body apiError
	if json.Unmarshal(data, &body) == nil && body.Error.Message != "" {
		message = body.Error.Message
	}
	kind := ClassifyStatus(resp.StatusCode, body.Error.Status, message)
	if message == "" {
		return domain.NewSubmissionError(kind, resp.StatusCode, fmt.Errorf("gemini status %d", resp.StatusCode))
	}
	return domain.NewSubmissionError(kind, resp.StatusCode, fmt.Errorf("gemini status %d: %s", resp.StatusCode, message))
}

// fetch downloads a file part. Relative URIs resolve against the base URL.
func (c *Client) fetch(ctx context.Context, uri string) ([]byte, string, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, "", fmt.Errorf("download file status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

var _ editor.Editor = (*Client)(nil)
