package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domainllm "skiff/internal/domain/services/llm"
)

const (
	// DefaultWeatherBaseURL is the Open-Meteo forecast endpoint
	DefaultWeatherBaseURL = "https://api.open-meteo.com/v1/forecast"
	// DefaultWeatherTimeout is the HTTP timeout for forecast requests
	DefaultWeatherTimeout = 15 * time.Second
)

// GetWeather fetches the current weather for a coordinate pair from
// Open-Meteo. No API key required.
type GetWeather struct {
	baseURL    string
	httpClient *http.Client
}

// NewGetWeather creates the weather tool against the public Open-Meteo API.
func NewGetWeather() *GetWeather {
	return &GetWeather{
		baseURL: DefaultWeatherBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultWeatherTimeout,
		},
	}
}

// NewGetWeatherWithConfig creates the weather tool against a custom endpoint.
// Used by tests to point at a local server.
func NewGetWeatherWithConfig(baseURL string, timeout time.Duration) *GetWeather {
	return &GetWeather{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Definition implements Tool.
func (t *GetWeather) Definition() domainllm.ToolDefinition {
	return domainllm.ToolDefinition{
		Name:        "get_weather",
		Description: "Get the current weather at a location",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"latitude": {"type": "number", "description": "Latitude of the location"},
				"longitude": {"type": "number", "description": "Longitude of the location"}
			},
			"required": ["latitude", "longitude"]
		}`),
	}
}

// Execute implements Tool.
func (t *GetWeather) Execute(ctx context.Context, input json.RawMessage) (interface{}, error) {
	var args struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return nil, fmt.Errorf("invalid get_weather input: %w", err)
	}

	url := fmt.Sprintf(
		"%s?latitude=%f&longitude=%f&current=temperature_2m&hourly=temperature_2m&daily=sunrise,sunset&timezone=auto",
		t.baseURL, args.Latitude, args.Longitude,
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read weather response: %w", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	return payload, nil
}
