package utils

import "strings"

// tagMarker 描述文本中的标签约定前缀
const tagMarker = "tags:"

// ExtractTags 从描述文本尾部的 "Tags: a, b, c" 约定中提取标签
// 这是历史遗留的脆弱约定 (远端没有结构化标签字段)，按原样保留:
// 取第一个 "Tags:" (不区分大小写) 之后到行尾的内容，按逗号切分
func ExtractTags(desc string) []string {
	idx := strings.Index(strings.ToLower(desc), tagMarker)
	if idx < 0 {
		return nil
	}
	rest := desc[idx+len(tagMarker):]
	if nl := strings.IndexAny(rest, "\r\n"); nl >= 0 {
		rest = rest[:nl]
	}

	var tags []string
	for _, part := range strings.Split(rest, ",") {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
