package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"

	"github.com/luoxiv/enervision/pkg/configs"
	"github.com/luoxiv/enervision/pkg/internal/schema"
)

// paddleEngine 通过 HTTP 调用 PaddleOCR serving（hub serving ocr_system 协议）.
type paddleEngine struct {
	endpoint string
	client   *http.Client
}

// NewPaddleEngine 创建 PaddleOCR HTTP 引擎.
func NewPaddleEngine(ctx context.Context, cfg *configs.OCRConfig) (Engine, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("paddleocr endpoint not configured")
	}

	return &paddleEngine{
		endpoint: cfg.Endpoint,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// paddleRequest serving 协议请求体: base64 编码的图片列表.
type paddleRequest struct {
	Images []string `json:"images"`
}

// paddleResponse serving 协议响应体.
type paddleResponse struct {
	Status  string `json:"status"`
	Msg     string `json:"msg"`
	Results [][]struct {
		Text       string      `json:"text"`
		Confidence float64     `json:"confidence"`
		TextRegion [][]float64 `json:"text_region"`
	} `json:"results"`
}

func (p *paddleEngine) Recognize(ctx context.Context, image []byte) ([]schema.OCRLine, error) {
	body, err := sonic.Marshal(paddleRequest{
		Images: []string{base64.StdEncoding.EncodeToString(image)},
	})
	if err != nil {
		return nil, fmt.Errorf("encode ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call paddleocr: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("paddleocr returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ocr response: %w", err)
	}

	var parsed paddleResponse
	if err := sonic.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}

	if parsed.Status != "" && parsed.Status != "000" {
		return nil, fmt.Errorf("paddleocr error status %s: %s", parsed.Status, parsed.Msg)
	}

	if len(parsed.Results) == 0 {
		return nil, nil
	}

	lines := make([]schema.OCRLine, 0, len(parsed.Results[0]))
	for _, r := range parsed.Results[0] {
		lines = append(lines, schema.OCRLine{
			Text:       r.Text,
			BBox:       r.TextRegion,
			Confidence: r.Confidence,
		})
	}

	return lines, nil
}

func (p *paddleEngine) Name() string { return "paddleocr" }

func (p *paddleEngine) Close() error { return nil }

func init() {
	RegisterFactory(configs.OCREnginePaddle, NewPaddleEngine)
}
