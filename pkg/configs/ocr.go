package configs

import "github.com/spf13/viper"

// OCREngineType OCR 引擎类型.
type OCREngineType string

const (
	// OCREnginePaddle PaddleOCR serving（HTTP 端点）.
	OCREnginePaddle OCREngineType = "paddleocr"
	// OCREngineGCPVision Google Cloud Vision DOCUMENT_TEXT_DETECTION.
	OCREngineGCPVision OCREngineType = "gcp_vision"
)

const (
	DefaultOCRLanguage            = "ch"  // 默认识别语言（PaddleOCR 语言代码）
	DefaultOCRConfidenceThreshold = 0.8   // parsed_ocr_ok / parsed_ocr_low_conf 分界
	DefaultOCREndpoint            = "http://localhost:8866/predict/ocr_system"
	DefaultOCRTimeout             = 30 // 秒
)

// OCRConfig OCR 引擎配置.
type OCRConfig struct {
	Engine   OCREngineType `mapstructure:"engine"   rule:"oneof=paddleocr gcp_vision"`
	Language string        `mapstructure:"language"`
	// ConfidenceThreshold 平均置信度阈值：>= 阈值为 parsed_ocr_ok，否则 parsed_ocr_low_conf
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold" rule:"gte=0,lte=1"`
	// Endpoint PaddleOCR serving 的 HTTP 端点（engine=paddleocr 时使用）
	Endpoint string `mapstructure:"endpoint"`
	// TimeoutSeconds 单次识别调用超时（秒）
	TimeoutSeconds int `mapstructure:"timeout_seconds" rule:"min=1,max=300"`
	// CredentialsFile GCP 凭证文件路径（engine=gcp_vision 时可选，默认走 ADC）
	CredentialsFile string `mapstructure:"credentials_file"`
}

// setDefaults 设置 OCR 配置的默认值.
func (c *OCRConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("ocr.engine", string(OCREnginePaddle))
	v.SetDefault("ocr.language", DefaultOCRLanguage)
	v.SetDefault("ocr.confidence_threshold", DefaultOCRConfidenceThreshold)
	v.SetDefault("ocr.endpoint", DefaultOCREndpoint)
	v.SetDefault("ocr.timeout_seconds", DefaultOCRTimeout)
	v.SetDefault("ocr.credentials_file", "")
}
