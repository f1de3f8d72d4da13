package entitlement

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upsc-prep/internal/model"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func completedPurchase(id uint, itemType string, itemID uint, validTill *time.Time) model.Purchase {
	return model.Purchase{
		ID:        id,
		ItemType:  itemType,
		ItemID:    itemID,
		Status:    model.PurchaseStatusCompleted,
		ValidTill: validTill,
	}
}

func newTestStore(t *testing.T, fetch Fetcher) *Store {
	t.Helper()
	s := NewStore(1, fetch)
	s.now = fixedNow
	return s
}

func TestStoreHasPurchased(t *testing.T) {
	future := fixedNow().Add(time.Hour)
	past := fixedNow().Add(-time.Hour)

	s := newTestStore(t, func(userID uint) ([]model.Purchase, error) {
		return []model.Purchase{
			completedPurchase(1, model.ItemTypeCourse, 10, nil),
			completedPurchase(2, model.ItemTypeCourse, 11, &past),
			completedPurchase(3, model.ItemTypeTestSeries, 10, &future),
			{ID: 4, ItemType: model.ItemTypeCourse, ItemID: 12, Status: model.PurchaseStatusPending},
		}, nil
	})
	require.NoError(t, s.Ensure())

	assert.True(t, s.HasPurchased(model.ItemTypeCourse, 10), "长期有效的购买应授权")
	assert.False(t, s.HasPurchased(model.ItemTypeCourse, 11), "过期的购买不应授权")
	assert.True(t, s.HasPurchased(model.ItemTypeTestSeries, 10), "未过期的购买应授权")
	assert.False(t, s.HasPurchased(model.ItemTypeCourse, 12), "pending的购买不应授权")
	assert.False(t, s.HasPurchased(model.ItemTypeTestSeries, 11), "未购买的内容不应授权")
	// 类型和ID都要匹配
	assert.False(t, s.HasPurchased(model.ItemTypeTestSeries, 12))
}

func TestStoreIsPurchaseActive(t *testing.T) {
	past := fixedNow().Add(-time.Hour)

	s := newTestStore(t, func(userID uint) ([]model.Purchase, error) {
		return []model.Purchase{
			completedPurchase(1, model.ItemTypeCourse, 10, nil),
			completedPurchase(2, model.ItemTypeCourse, 11, &past),
		}, nil
	})
	require.NoError(t, s.Ensure())

	assert.True(t, s.IsPurchaseActive(1))
	assert.False(t, s.IsPurchaseActive(2))
	assert.False(t, s.IsPurchaseActive(99), "不存在的记录不应授权")
}

func TestStoreEnsureLoadsOnce(t *testing.T) {
	calls := 0
	s := newTestStore(t, func(userID uint) ([]model.Purchase, error) {
		calls++
		return nil, nil
	})

	assert.False(t, s.Loaded())
	require.NoError(t, s.Ensure())
	require.NoError(t, s.Ensure())
	require.NoError(t, s.Ensure())

	assert.True(t, s.Loaded())
	assert.Equal(t, 1, calls, "已加载后Ensure不应重复拉取")
}

func TestStoreRefreshKeepsStaleCacheOnError(t *testing.T) {
	failing := false
	s := newTestStore(t, func(userID uint) ([]model.Purchase, error) {
		if failing {
			return nil, errors.New("数据库不可用")
		}
		return []model.Purchase{completedPurchase(1, model.ItemTypeCourse, 10, nil)}, nil
	})

	require.NoError(t, s.Refresh())
	require.True(t, s.HasPurchased(model.ItemTypeCourse, 10))

	// 拉取失败时保留旧缓存
	failing = true
	err := s.Refresh()
	assert.Error(t, err)
	assert.True(t, s.HasPurchased(model.ItemTypeCourse, 10), "失败的刷新不应清空缓存")
	assert.True(t, s.Loaded())
	assert.Error(t, s.LastError())

	// 恢复后刷新成功，错误清空
	failing = false
	require.NoError(t, s.Refresh())
	assert.NoError(t, s.LastError())
}

func TestStoreRefreshReplacesWholesale(t *testing.T) {
	second := false
	s := newTestStore(t, func(userID uint) ([]model.Purchase, error) {
		if second {
			return []model.Purchase{completedPurchase(2, model.ItemTypeCourse, 20, nil)}, nil
		}
		return []model.Purchase{completedPurchase(1, model.ItemTypeCourse, 10, nil)}, nil
	})

	require.NoError(t, s.Refresh())
	require.True(t, s.HasPurchased(model.ItemTypeCourse, 10))

	second = true
	require.NoError(t, s.Refresh())

	assert.False(t, s.HasPurchased(model.ItemTypeCourse, 10), "刷新应整体替换缓存")
	assert.True(t, s.HasPurchased(model.ItemTypeCourse, 20))
}

func TestProviderGetAndInvalidate(t *testing.T) {
	p := NewProvider(func(userID uint) ([]model.Purchase, error) {
		return nil, nil
	})

	s1 := p.Get(1)
	assert.Same(t, s1, p.Get(1), "同一用户应复用缓存")
	assert.NotSame(t, s1, p.Get(2), "不同用户的缓存相互独立")

	// 创建不触发加载
	assert.False(t, s1.Loaded())

	p.Invalidate(1)
	assert.NotSame(t, s1, p.Get(1), "销毁后重新获取应是新缓存")
}
