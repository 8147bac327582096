package llm

import (
	"fmt"
	"strings"
)

// 提示词模板. 备注原文是消歧的首要信号，必须逐字嵌入.

const sceneIssueSchemaDesc = `{
  "title": "问题简短标题（可选）",
  "issue_category": "问题类别，如 漏水/腐蚀/保温破损/异响（可选）",
  "severity": "low | medium | high（可选）",
  "summary": "问题的一段中文描述（必填，不能为空）",
  "suspected_causes": ["可能原因1", "可能原因2"],
  "recommended_actions": ["建议措施1", "建议措施2"],
  "confidence": 0.0,
  "tags": ["标签"]
}`

const meterReadingSchemaDesc = `{
  "pre_reading": "表盘上的前次读数或小数前整数部分，原样字符串（可选）",
  "reading": "本次读数，原样字符串，保留前导零与小数（可选）",
  "unit": "读数单位，如 kWh / m³（可选）",
  "status": "仪表状态描述，如 正常/表面污损（可选）",
  "summary": "对读数的一句话中文说明（必填，不能为空）",
  "confidence": 0.0,
  "tags": ["标签"]
}`

const nameplateSchemaDesc = `{
  "equipment_type": "设备类型（可选）",
  "fields": [
    {"key": "rated_power", "label": "额定功率", "value": "37", "unit": "kW", "confidence": 0.0}
  ]
}`

// SceneIssuePrompt 场景问题照片的提示词.
func SceneIssuePrompt(note string) string {
	var sb strings.Builder

	sb.WriteString("你是建筑机电巡检专家。请分析这张现场照片，识别其中的设备或环境问题，")
	sb.WriteString("并仅输出一个符合以下 JSON 结构的对象（不要输出任何解释文字或代码块标记）：\n")
	sb.WriteString(sceneIssueSchemaDesc)
	sb.WriteString("\n")

	if note != "" {
		fmt.Fprintf(&sb, "\n巡检工程师的现场备注（最重要的判断依据，请优先结合）：%q\n", note)
	}

	return sb.String()
}

// MeterReadingPrompt 仪表照片的提示词. ocrText 为 OCR 辅助文本，可为空.
func MeterReadingPrompt(note, ocrText string) string {
	var sb strings.Builder

	sb.WriteString("你是建筑能源巡检专家。请读取照片中仪表的读数，")
	sb.WriteString("并仅输出一个符合以下 JSON 结构的对象（不要输出任何解释文字或代码块标记）：\n")
	sb.WriteString(meterReadingSchemaDesc)
	sb.WriteString("\n")

	if note != "" {
		fmt.Fprintf(&sb, "\n巡检工程师的现场备注（最重要的判断依据，请优先结合）：%q\n", note)
	}

	if ocrText != "" {
		fmt.Fprintf(&sb, "\nOCR 识别出的文字（辅助参考，注意 OCR 可能把读数拆行或误识别）：\n%s\n", ocrText)
	}

	return sb.String()
}

// NameplatePrompt 铭牌照片的提示词. 正常流程铭牌走 OCR，此提示词用于人工兜底.
func NameplatePrompt(note string) string {
	var sb strings.Builder

	sb.WriteString("你是建筑机电巡检专家。请提取照片中设备铭牌上的全部字段，")
	sb.WriteString("并仅输出一个符合以下 JSON 结构的对象（不要输出任何解释文字或代码块标记）：\n")
	sb.WriteString(nameplateSchemaDesc)
	sb.WriteString("\n")

	if note != "" {
		fmt.Fprintf(&sb, "\n巡检工程师的现场备注：%q\n", note)
	}

	return sb.String()
}
