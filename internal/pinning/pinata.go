// Package pinning uploads files to IPFS through the Pinata pinning API.
package pinning

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

	"github.com/ipfs/go-cid"

	"solana-token-minter/internal/domain"
	"solana-token-minter/internal/observability"
)

const (
	// DefaultBaseURL is the Pinata API root.
	DefaultBaseURL = "https://api.pinata.cloud"
	// DefaultGatewayURL serves pinned content by CID.
	DefaultGatewayURL = "https://gateway.pinata.cloud/ipfs/"
	// DefaultTimeout bounds a single upload.
	DefaultTimeout = 60 * time.Second

	pinFilePath = "/pinning/pinFileToIPFS"
	// maxErrorBody limits how much of a failed response is kept in the error.
	maxErrorBody = 512
)

// Pinner pins a single file and reports where it can be fetched.
type Pinner interface {
	PinFile(ctx context.Context, file File) (*domain.PinResult, error)
}

// File is one upload.
type File struct {
	Name     string // filename sent to the provider and used as the pin name
	MimeType string
	Data     []byte
	Kind     string // metrics label: image, metadata
}

// Client is a Pinata API client authenticated with an API key pair.
type Client struct {
	apiKey     string
	secretKey  string
	baseURL    string
	gatewayURL string
	httpClient *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root (used by tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithGatewayURL sets the gateway prefix used to build GatewayURI.
func WithGatewayURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.gatewayURL = u
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a Pinata client. Missing credentials are reported by PinFile, not here.
func NewClient(apiKey, secretKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    DefaultBaseURL,
		gatewayURL: DefaultGatewayURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if !strings.HasSuffix(c.gatewayURL, "/") {
		c.gatewayURL += "/"
	}
	return c
}

// Compile-time interface check.
var _ Pinner = (*Client)(nil)

// GatewayURI returns the gateway URL for a CID.
func (c *Client) GatewayURI(ipfsHash string) string {
	return c.gatewayURL + ipfsHash
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// PinFile uploads file with pinFileToIPFS. It makes exactly one request and never retries.
func (c *Client) PinFile(ctx context.Context, file File) (result *domain.PinResult, err error) {
	if c.apiKey == "" || c.secretKey == "" {
		return nil, domain.ErrPinningNotConfigured
	}

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		observability.RecordPin(file.Kind, status, len(file.Data), time.Since(start).Seconds())
	}()

	body, contentType, err := encodeMultipart(file)
	if err != nil {
		return nil, fmt.Errorf("encode upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+pinFilePath, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("pinata_api_key", c.apiKey)
	req.Header.Set("pinata_secret_api_key", c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: pinata request: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read pinata response: %v", domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: pinata status %d: %s", domain.ErrUpstream, resp.StatusCode, msg)
	}

	var pr pinResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, fmt.Errorf("%w: decode pinata response: %v", domain.ErrUpstream, err)
	}
	if _, err := cid.Decode(pr.IpfsHash); err != nil {
		return nil, fmt.Errorf("%w: pinata returned invalid cid %q: %v", domain.ErrUpstream, pr.IpfsHash, err)
	}

	return &domain.PinResult{
		IpfsHash:   pr.IpfsHash,
		GatewayURI: c.GatewayURI(pr.IpfsHash),
		Size:       pr.PinSize,
		MimeType:   file.MimeType,
		Timestamp:  pr.Timestamp,
	}, nil
}

// encodeMultipart builds the form: file part, pinataMetadata and pinataOptions.
func encodeMultipart(file File) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	h.Set("Content-Type", file.MimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}

	meta, err := json.Marshal(map[string]interface{}{"name": file.Name})
	if err != nil {
		return nil, "", err
	}
	if err := w.WriteField("pinataMetadata", string(meta)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("pinataOptions", `{"cidVersion":1}`); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
