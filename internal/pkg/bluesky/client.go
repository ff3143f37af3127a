package bluesky

import (
	"Commonfeed/internal/api/config"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client AppView XRPC 接口的轻量封装
type Client struct {
	http *resty.Client
}

func NewClient(cfg config.BlueskyConfig) *Client {
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = "https://public.api.bsky.app"
	}
	client := resty.New().
		SetBaseURL(apiBase).
		SetTimeout(10 * time.Second).
		SetRetryCount(2)
	return &Client{http: client}
}

type resolveHandleResp struct {
	DID string `json:"did"`
}

// ResolveHandle 把 handle 解析为 DID
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	var result resolveHandleResp
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("handle", handle).
		SetResult(&result).
		Get("/xrpc/com.atproto.identity.resolveHandle")
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("resolve handle failed: %s", resp.Status())
	}
	if result.DID == "" {
		return "", fmt.Errorf("resolve handle returned empty did for %q", handle)
	}
	return result.DID, nil
}
