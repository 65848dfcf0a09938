// Package textnorm 提供检索用的文本归一化：去除变音符号并转小写。
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ/Đ 在 Unicode 中不是组合字符，NFD 分解后不会变成 d，需要单独替换
var letterReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// Fold 将文本转为无变音符号的小写形式，例如 "Giáo trình Điện tử" → "giao trinh dien tu"
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, letterReplacer.Replace(s))
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}

// SearchText 组合多个字段生成检索列内容
func SearchText(fields ...string) string {
	folded := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = Fold(f); f != "" {
			folded = append(folded, f)
		}
	}
	return strings.Join(folded, " ")
}
