package utils

import "strings"

// SanitizeGTIN 清洗 GTIN (UPC/EAN/ISBN 家族)
// 先剔除所有非数字字符，数字长度必须是 8/12/13/14 之一，否则视为无 GTIN 返回空串
func SanitizeGTIN(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	g := b.String()
	switch len(g) {
	case 8, 12, 13, 14:
		return g
	}
	return ""
}
