package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/syedak1/dispatch-ai/internal/config"
	"github.com/syedak1/dispatch-ai/internal/logger"
)

const defaultAggressiveness = 0.5

// Compressor shrinks buffered scene text through the Token Company
// bear-1 model before classification. Any failure is returned as an
// error; the pipeline degrades to the uncompressed input.
type Compressor struct {
	url            string
	apiKey         string
	aggressiveness float64
	http           *http.Client
	logger         *logger.Logger
}

func NewCompressor(cfg *config.Config, logger *logger.Logger) *Compressor {
	return &Compressor{
		url:            cfg.CompressionURL,
		apiKey:         cfg.TokenCompanyAPIKey,
		aggressiveness: defaultAggressiveness,
		http: &http.Client{
			Timeout: time.Duration(cfg.AITimeoutSeconds) * time.Second,
		},
		logger: logger,
	}
}

type compressionSettings struct {
	Aggressiveness  float64 `json:"aggressiveness"`
	MaxOutputTokens *int    `json:"max_output_tokens"`
	MinOutputTokens *int    `json:"min_output_tokens"`
}

type compressRequest struct {
	Model               string              `json:"model"`
	CompressionSettings compressionSettings `json:"compression_settings"`
	Input               string              `json:"input"`
}

type compressResponse struct {
	Output              string `json:"output"`
	OriginalInputTokens int    `json:"original_input_tokens"`
	OutputTokens        int    `json:"output_tokens"`
}

// Compress returns a shorter rendition of text. Blank input is returned
// as-is without a network call.
func (c *Compressor) Compress(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	if c.apiKey == "" {
		return "", errors.New("compression api key not configured")
	}

	body, err := json.Marshal(compressRequest{
		Model: "bear-1",
		CompressionSettings: compressionSettings{
			Aggressiveness: c.aggressiveness,
		},
		Input: text,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling compression api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("compression status %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var out compressResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if out.Output == "" {
		return text, nil
	}

	if out.OriginalInputTokens > 0 {
		savings := float64(out.OriginalInputTokens-out.OutputTokens) / float64(out.OriginalInputTokens) * 100
		c.logger.Info("Compressed: %d -> %d tokens (%.1f%% saved)",
			out.OriginalInputTokens, out.OutputTokens, savings)
	}

	return out.Output, nil
}
