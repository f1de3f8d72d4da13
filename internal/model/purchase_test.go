package model

import (
	"testing"
	"time"
)

func TestPurchaseIsActiveAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name      string
		status    string
		validTill *time.Time
		want      bool
	}{
		{"completed无有效期长期有效", PurchaseStatusCompleted, nil, true},
		{"completed未过期", PurchaseStatusCompleted, &future, true},
		{"completed已过期", PurchaseStatusCompleted, &past, false},
		{"pending不授权", PurchaseStatusPending, nil, false},
		{"failed不授权", PurchaseStatusFailed, &future, false},
		{"refunded不授权", PurchaseStatusRefunded, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Purchase{Status: tt.status, ValidTill: tt.validTill}
			if got := p.IsActiveAt(now); got != tt.want {
				t.Errorf("IsActiveAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

// 有效期截止时刻本身不授权，必须严格早于截止时间
func TestPurchaseExpiryBoundary(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := Purchase{Status: PurchaseStatusCompleted, ValidTill: &deadline}

	if p.IsActiveAt(deadline) {
		t.Error("截止时刻本身不应授权")
	}
	if !p.IsActiveAt(deadline.Add(-time.Microsecond)) {
		t.Error("截止前一微秒应授权")
	}
	if p.IsActiveAt(deadline.Add(time.Microsecond)) {
		t.Error("截止后一微秒不应授权")
	}
}
