package queue

// 资产解析流水线主题.
const (
	// TopicAssetStored 资产图片与备注已落库、文件已写入存储.
	TopicAssetStored string = "ev.asset.stored"
	// TopicAssetRouted 路由决策已作出并追加 image_route_decision_v1 负载.
	TopicAssetRouted string = "ev.asset.routed"
	// TopicAssetParsed 某个结构化负载解析完成（OCR 或 LLM）.
	TopicAssetParsed string = "ev.asset.parsed"
	// TopicAssetParseFailed 解析失败（瞬态耗尽或不可解析达到上限）.
	TopicAssetParseFailed string = "ev.asset.parse_failed"
)

// AllTopics 返回全部已定义主题，供订阅端或 JetStream 预置使用.
func AllTopics() []string {
	return []string{
		TopicAssetStored,
		TopicAssetRouted,
		TopicAssetParsed,
		TopicAssetParseFailed,
	}
}
