// Package qrimage 将短文本编码为 PNG 二维码并输出 data URI。
package qrimage

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// DefaultSize 默认图片边长（像素）
const DefaultSize = 256

// PNG 生成二维码 PNG 字节
func PNG(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("生成二维码失败: %w", err)
	}
	return png, nil
}

// DataURI 生成可直接用于 <img src> 的 data:image/png;base64 字符串
func DataURI(content string, size int) (string, error) {
	png, err := PNG(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
