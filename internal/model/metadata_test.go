package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataValidate(t *testing.T) {
	tests := []struct {
		name    string
		scope   string
		m       Metadata
		wantErr bool
	}{
		{"活跃度桶合法", MetadataScopeActivity, Metadata{"daily": 3, "weekly": 10.0, "monthly": 42}, false},
		{"活跃度桶拒绝未知键", MetadataScopeActivity, Metadata{"yearly": 1}, true},
		{"活跃度桶拒绝字符串取值", MetadataScopeActivity, Metadata{"daily": "three"}, true},
		{"通知附加数据合法", MetadataScopeNotification, Metadata{
			"order_no": "20250601120000123456", "item_type": "course", "item_id": uint(5), "amount": 499.0,
		}, false},
		{"通知附加数据拒绝数字order_no", MetadataScopeNotification, Metadata{"order_no": 123}, true},
		{"未知场景", "unknown", Metadata{"daily": 1}, true},
		{"空元数据总是合法", MetadataScopeActivity, Metadata{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate(tt.scope)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMetadataEncodeDecode(t *testing.T) {
	m := Metadata{"daily": 3, "weekly": 12, "monthly": 40}

	raw, err := m.Encode()
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	decoded, err := DecodeMetadata(raw)
	require.NoError(t, err)
	// JSON数字反序列化为float64
	assert.Equal(t, float64(3), decoded["daily"])
	assert.NoError(t, decoded.Validate(MetadataScopeActivity))
}

func TestMetadataEncodeEmpty(t *testing.T) {
	raw, err := Metadata{}.Encode()
	require.NoError(t, err)
	assert.Empty(t, raw)

	decoded, err := DecodeMetadata("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestNotificationSetMetadataValidates(t *testing.T) {
	n := Notification{}
	err := n.SetMetadata(Metadata{"deeplink": "/courses/5"})
	require.NoError(t, err)

	got, err := n.GetMetadata()
	require.NoError(t, err)
	assert.Equal(t, "/courses/5", got["deeplink"])

	// 通知场景不认识活跃度桶的键
	assert.Error(t, n.SetMetadata(Metadata{"daily": 1}))
}
