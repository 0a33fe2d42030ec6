package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/jo-hoe/wastesort/internal/backend/classifier"
)

const (
	DefaultServerURL = "http://localhost:3000"
	ServerURLEnvVar  = "WASTE_SERVER_URL"

	uploadFieldName   = "image"
	uploadFileName    = "photo.jpg"
	uploadContentType = "image/jpeg"
)

// Client talks to the waste sorting REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClassifyResponse struct {
	ID             int64                     `json:"id"`
	ImageURL       string                    `json:"imageUrl"`
	Classification classifier.Classification `json:"classification"`
	Timestamp      time.Time                 `json:"timestamp"`
}

type WasteItem struct {
	ID                   int64     `json:"id"`
	ImagePath            string    `json:"image_path"`
	ClassificationResult string    `json:"classification_result"`
	Confidence           float64   `json:"confidence"`
	Category             string    `json:"category"`
	Timestamp            time.Time `json:"timestamp"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("server responded with status %d: %s", e.StatusCode, e.Message)
}

func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Classify uploads JPEG data and returns the server's classification.
func (c *Client) Classify(ctx context.Context, imageData []byte) (*ClassifyResponse, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, uploadFieldName, uploadFileName))
	header.Set("Content-Type", uploadContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/classify", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var result ClassifyResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var result HealthResponse
	if err := c.get(ctx, "/api/health", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListWasteItems returns the stored items, newest first.
func (c *Client) ListWasteItems(ctx context.Context) ([]WasteItem, error) {
	var result []WasteItem
	if err := c.get(ctx, "/api/waste-items", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, target)
}

func (c *Client) do(req *http.Request, target any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}
