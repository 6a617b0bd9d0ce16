package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/go-resty/resty/v2"
)

type IPFSClient interface {
	PinFile(ctx context.Context, name string, body io.Reader) (string, error)
	UnpinFile(ctx context.Context, cid string) error
}

type ipfsClient struct {
	http *resty.Client
}

type pinResponse struct {
	Hash string `json:"Hash"`
	Name string `json:"Name"`
}

// NewIPFSClient talks to a Kubo-compatible pinning API
func NewIPFSClient(gatewayURL, apiKey string) IPFSClient {
	client := resty.New().SetBaseURL(gatewayURL)
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}
	return &ipfsClient{http: client}
}

func (c *ipfsClient) PinFile(ctx context.Context, name string, body io.Reader) (string, error) {
	var result pinResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("file", name, body).
		SetResult(&result).
		Post("/api/v0/add?pin=true")
	if err != nil {
		return "", fmt.Errorf("ipfs add failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ipfs add failed: %s", resp.Status())
	}
	return result.Hash, nil
}

func (c *ipfsClient) UnpinFile(ctx context.Context, cid string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("arg", cid).
		Post("/api/v0/pin/rm")
	if err != nil {
		return fmt.Errorf("ipfs unpin failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("ipfs unpin failed: %s", resp.Status())
	}
	return nil
}
