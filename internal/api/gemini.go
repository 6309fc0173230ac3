package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"spy-game/internal/config"
	"spy-game/internal/constants"
	"spy-game/internal/domain"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

var (
	ErrGenerationDisabled = errors.New("content generation is not configured")
	ErrMalformedContent   = errors.New("generated content is malformed")
)

// Generator produces word lists and reveal-screen map zones. Results are
// advisory; callers fall back to built-in content on any error.
type Generator interface {
	GenerateWords(ctx context.Context, difficulty domain.Difficulty) ([]string, error)
	GenerateMapZones(ctx context.Context, word string) ([]domain.MapZone, error)
}

// NewGenerator returns a Gemini client when an API key is configured and a
// disabled generator otherwise.
func NewGenerator(cfg *config.Config, logger zerolog.Logger) Generator {
	if cfg.GeminiAPIKey == "" {
		return DisabledGenerator{}
	}
	return NewGeminiClient(cfg, logger)
}

type DisabledGenerator struct{}

func (DisabledGenerator) GenerateWords(context.Context, domain.Difficulty) ([]string, error) {
	return nil, ErrGenerationDisabled
}

func (DisabledGenerator) GenerateMapZones(context.Context, string) ([]domain.MapZone, error) {
	return nil, ErrGenerationDisabled
}

type GeminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewGeminiClient(cfg *config.Config, logger zerolog.Logger) *GeminiClient {
	return &GeminiClient{
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		baseURL: strings.TrimSuffix(cfg.GeminiBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.GenerationTimeout,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (r *generateResponse) text() string {
	var sb strings.Builder
	for _, c := range r.Candidates {
		for _, p := range c.Content.Parts {
			sb.WriteString(p.Text)
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}

func (c *GeminiClient) GenerateWords(ctx context.Context, difficulty domain.Difficulty) ([]string, error) {
	tier := "Easy (common places)"
	if difficulty == domain.DifficultyHard {
		tier = "Hard (specific or technical places)"
	}
	prompt := fmt.Sprintf(`Generate a list of %d unique, realistic and relevant locations/words for a Spy game (like Spyfall).
The difficulty level is %s.
Return ONLY a JSON array of strings. No other text.`, constants.MaxGeneratedWords, tier)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	words, err := ParseWords(text)
	if err != nil {
		c.logger.Warn().Err(err).Str("difficulty", string(difficulty)).Msg("discarding generated words")
		return nil, err
	}
	c.logger.Info().Int("count", len(words)).Str("difficulty", string(difficulty)).Msg("words generated")
	return words, nil
}

func (c *GeminiClient) GenerateMapZones(ctx context.Context, word string) ([]domain.MapZone, error) {
	prompt := fmt.Sprintf(`Design %d different sections or rooms for the location "%s" in a Spy game.
Output only a JSON array of objects with the fields:
- id: unique string
- name: section name
- description: short description
- x: number between %d and %d (horizontal position)
- y: number between %d and %d (vertical position)
Return only JSON.`, constants.MaxMapZones, word,
		constants.MinZoneCoordinate, constants.MaxZoneCoordinate,
		constants.MinZoneCoordinate, constants.MaxZoneCoordinate)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	zones, err := ParseMapZones(text)
	if err != nil {
		c.logger.Warn().Err(err).Msg("discarding generated map zones")
		return nil, err
	}
	c.logger.Info().Int("count", len(zones)).Msg("map zones generated")
	return zones, nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/%s:generateContent", c.baseURL, c.model)
	body := generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}}

	resp, err := doRequest[generateResponse](ctx, c, url, body)
	if err != nil {
		c.logger.Error().Err(err).Str("model", c.model).Msg("generation request failed")
		return "", err
	}
	return resp.text(), nil
}

type result[T any] struct {
	value *T
	err   error
}

// doRequest posts payload and decodes the reply into T. fasthttp only
// honours deadlines, so the call runs on its own goroutine and a cancelled
// ctx returns immediately while the call finishes in the background.
func doRequest[T any](ctx context.Context, client *GeminiClient, url string, payload any) (*T, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("x-goog-api-key", client.apiKey)
	req.SetBody(raw)

	done := make(chan result[T], 1)
	go func() {
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		var err error
		if deadline, ok := ctx.Deadline(); ok {
			err = client.client.DoDeadline(req, resp, deadline)
		} else {
			err = client.client.Do(req, resp)
		}
		if err != nil {
			done <- result[T]{err: err}
			return
		}

		if resp.StatusCode() != fasthttp.StatusOK {
			done <- result[T]{err: fmt.Errorf("API error: %d", resp.StatusCode())}
			return
		}

		var value T
		if err := json.Unmarshal(resp.Body(), &value); err != nil {
			done <- result[T]{err: err}
			return
		}
		done <- result[T]{value: &value}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

var jsonArrayPattern = regexp.MustCompile(`(?s)\[.*\]`)

// extractJSONArray returns the outermost bracketed span of text, which is
// how the model's JSON answer is pulled out of surrounding prose.
func extractJSONArray(text string) (string, error) {
	match := jsonArrayPattern.FindString(text)
	if match == "" {
		return "", fmt.Errorf("%w: no JSON array found", ErrMalformedContent)
	}
	return match, nil
}

// ParseWords validates a generated word list: non-empty, trimmed, unique
// strings, truncated to MaxGeneratedWords.
func ParseWords(text string) ([]string, error) {
	raw, err := extractJSONArray(text)
	if err != nil {
		return nil, err
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}

	seen := make(map[string]struct{}, len(items))
	words := make([]string, 0, len(items))
	for _, w := range items {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
		if len(words) == constants.MaxGeneratedWords {
			break
		}
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: empty word list", ErrMalformedContent)
	}
	return words, nil
}

// ParseMapZones validates generated zones. Any zone without an id or name,
// or placed outside the 10..90 grid, rejects the whole payload.
func ParseMapZones(text string) ([]domain.MapZone, error) {
	raw, err := extractJSONArray(text)
	if err != nil {
		return nil, err
	}
	var zones []domain.MapZone
	if err := json.Unmarshal([]byte(raw), &zones); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("%w: no zones", ErrMalformedContent)
	}
	if len(zones) > constants.MaxMapZones {
		zones = zones[:constants.MaxMapZones]
	}
	for i, z := range zones {
		if strings.TrimSpace(z.ID) == "" || strings.TrimSpace(z.Name) == "" {
			return nil, fmt.Errorf("%w: zone %d missing id or name", ErrMalformedContent, i)
		}
		if !inGrid(z.X) || !inGrid(z.Y) {
			return nil, fmt.Errorf("%w: zone %s at (%v,%v) outside grid", ErrMalformedContent, z.ID, z.X, z.Y)
		}
	}
	return zones, nil
}

func inGrid(v float64) bool {
	return v >= constants.MinZoneCoordinate && v <= constants.MaxZoneCoordinate
}
