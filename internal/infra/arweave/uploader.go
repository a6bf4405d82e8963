// internal/infra/arweave/uploader.go
package arweave

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Irys Uploader (Cloud Run) などの HTTP API を叩く実装。
// GCS の代わりに metadata.json を Arweave に永続化したいときに使う。
// usecase.MetadataUploader の実装。
type HTTPUploader struct {
	client  *http.Client
	baseURL string // 例: "https://solstyle-irys-uploader-xxxx.asia-northeast1.run.app"
	apiKey  string // 認証が必要な場合に使用（IRYS_SERVICE_API_KEY など）
}

// NewHTTPUploader は Arweave/Irys 用の HTTP uploader を生成します。
func NewHTTPUploader(baseURL, apiKey string) *HTTPUploader {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/") // 末尾の "/" を削っておく

	return &HTTPUploader{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type uploadRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"` // base64 (encoding/json が自動で行う)
}

type uploadResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// UploadMetadata posts the JSON document to the uploader service and returns
// the permanent arweave URL.
func (u *HTTPUploader) UploadMetadata(ctx context.Context, objectName string, data []byte) (string, error) {
	if u == nil || u.client == nil || u.baseURL == "" {
		return "", fmt.Errorf("arweave: uploader is not configured")
	}

	body, err := json.Marshal(uploadRequest{
		Name:        strings.TrimSpace(objectName),
		ContentType: "application/json",
		Data:        data,
	})
	if err != nil {
		return "", fmt.Errorf("arweave: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/upload", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("arweave: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("arweave: post upload: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("arweave: uploader status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("arweave: decode response: %w", err)
	}

	url := strings.TrimSpace(out.URL)
	if url == "" && out.ID != "" {
		url = "https://arweave.net/" + out.ID
	}
	if url == "" {
		return "", fmt.Errorf("arweave: uploader returned neither url nor id")
	}

	log.Printf("[arweave] uploaded object=%s url=%s", objectName, url)
	return url, nil
}
