package entitlement

import (
	"sync"
	"time"

	"upsc-prep/internal/model"
)

// Fetcher 拉取用户的全部购买记录
type Fetcher func(userID uint) ([]model.Purchase, error)

// Store 单个用户会话的购买记录缓存
// 读操作只看缓存，不发起网络/数据库请求；Refresh成功时整体替换缓存，
// 失败时保留旧缓存并记录错误（宁可用旧数据也不清空）
type Store struct {
	userID uint
	fetch  Fetcher
	now    func() time.Time

	mu        sync.RWMutex
	purchases []model.Purchase
	loaded    bool
	loading   bool
	lastErr   error
}

// NewStore 创建用户的购买记录缓存
func NewStore(userID uint, fetch Fetcher) *Store {
	return &Store{
		userID: userID,
		fetch:  fetch,
		now:    time.Now,
	}
}

// HasPurchased 判断用户当前是否持有对 (itemType, itemID) 的有效购买
// 纯缓存判断: 存在类型和内容匹配、状态completed且有效期严格晚于当前时刻的记录
func (s *Store) HasPurchased(itemType string, itemID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	for i := range s.purchases {
		p := &s.purchases[i]
		if p.ItemType == itemType && p.ItemID == itemID && p.IsActiveAt(now) {
			return true
		}
	}
	return false
}

// IsPurchaseActive 按购买记录ID判断是否有效，规则同 HasPurchased
func (s *Store) IsPurchaseActive(purchaseID uint) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	for i := range s.purchases {
		p := &s.purchases[i]
		if p.ID == purchaseID {
			return p.IsActiveAt(now)
		}
	}
	return false
}

// Purchases 返回缓存的购买记录副本
func (s *Store) Purchases() []model.Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Purchase, len(s.purchases))
	copy(out, s.purchases)
	return out
}

// Refresh 重新拉取购买记录
// 成功时整体替换缓存；失败时不动旧缓存，错误存入lastErr由调用方观察，不自动重试
func (s *Store) Refresh() error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	purchases, err := s.fetch(s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.lastErr = err
		return err
	}

	s.purchases = purchases
	s.loaded = true
	s.lastErr = nil
	return nil
}

// Ensure 首次访问时同步加载一次，已加载时为空操作
func (s *Store) Ensure() error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()

	if loaded {
		return nil
	}
	return s.Refresh()
}

// Loaded 缓存是否完成过至少一次成功加载
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Loading 是否有一次拉取正在进行
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError 最近一次失败拉取的错误，成功后清空
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Provider 进程级的会话缓存注册表，按用户维护Store
// 登出时调用 Invalidate 销毁对应会话的缓存
type Provider struct {
	mu     sync.Mutex
	stores map[uint]*Store
	fetch  Fetcher
}

// NewProvider 创建注册表，fetch为依赖注入的购买记录来源
func NewProvider(fetch Fetcher) *Provider {
	return &Provider{
		stores: make(map[uint]*Store),
		fetch:  fetch,
	}
}

// Get 获取用户的缓存，不存在时创建（创建不触发加载）
func (p *Provider) Get(userID uint) *Store {
	p.mu.Lock()
	defer p.mu.Unlock()

	store, ok := p.stores[userID]
	if !ok {
		store = NewStore(userID, p.fetch)
		p.stores[userID] = store
	}
	return store
}

// Invalidate 销毁用户的缓存（登出或退款后调用）
func (p *Provider) Invalidate(userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.stores, userID)
}
