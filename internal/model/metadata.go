package model

import (
	"encoding/json"
	"fmt"
)

// Metadata 开放但受约束的键值元数据
// 各使用场景的键集合是可枚举的，入库前按场景校验，避免无类型的任意blob
type Metadata map[string]interface{}

// 元数据场景
const (
	MetadataScopeActivity     = "activity"     // 学习活跃度桶
	MetadataScopeNotification = "notification" // 通知附加数据
)

// 各场景允许的键及取值类型（number/string）
var metadataSchemas = map[string]map[string]string{
	MetadataScopeActivity: {
		"daily":   "number", // 当日活跃次数
		"weekly":  "number", // 本周活跃次数
		"monthly": "number", // 本月活跃次数
	},
	MetadataScopeNotification: {
		"order_no":  "string",
		"item_type": "string",
		"item_id":   "number",
		"amount":    "number",
		"deeplink":  "string",
	},
}

// Validate 按场景校验元数据的键和取值类型
func (m Metadata) Validate(scope string) error {
	schema, ok := metadataSchemas[scope]
	if !ok {
		return fmt.Errorf("未知的元数据场景: %s", scope)
	}

	for key, value := range m {
		kind, allowed := schema[key]
		if !allowed {
			return fmt.Errorf("场景 %s 不支持的元数据键: %s", scope, key)
		}

		switch kind {
		case "number":
			switch value.(type) {
			case int, int64, uint, float64:
				// JSON反序列化得到的数字是float64
			default:
				return fmt.Errorf("元数据键 %s 需要数字类型", key)
			}
		case "string":
			if _, ok := value.(string); !ok {
				return fmt.Errorf("元数据键 %s 需要字符串类型", key)
			}
		}
	}

	return nil
}

// Encode 序列化为JSON字符串，用于存入json列
func (m Metadata) Encode() (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeMetadata 从json列解析元数据
func DecodeMetadata(raw string) (Metadata, error) {
	var m Metadata
	if raw == "" {
		return m, nil
	}
	err := json.Unmarshal([]byte(raw), &m)
	return m, err
}
