package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upsc-prep/internal/entitlement"
	"upsc-prep/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func contentHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": "付费正文"})
}

func gateRouter(provider *entitlement.Provider, handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{setUser(1),
		EntitlementGate(provider, model.ItemTypeCourse, "id")}, handlers...)
	r.GET("/courses/:id/content", chain...)
	return r
}

func doRequest(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestGateAllowsEntitledUser(t *testing.T) {
	provider := entitlement.NewProvider(func(userID uint) ([]model.Purchase, error) {
		return []model.Purchase{
			{ID: 1, UserID: userID, ItemType: model.ItemTypeCourse, ItemID: 10, Status: model.PurchaseStatusCompleted},
		}, nil
	})

	w := doRequest(gateRouter(provider, contentHandler), "/courses/10/content")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "付费正文")
}

func TestGateBlocksWithPaywall(t *testing.T) {
	provider := entitlement.NewProvider(func(userID uint) ([]model.Purchase, error) {
		return nil, nil
	})

	w := doRequest(gateRouter(provider, contentHandler), "/courses/10/content")

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "purchase_url")
	assert.NotContains(t, w.Body.String(), "付费正文")
}

func TestGateBlocksExpiredPurchase(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	provider := entitlement.NewProvider(func(userID uint) ([]model.Purchase, error) {
		return []model.Purchase{
			{ID: 1, UserID: userID, ItemType: model.ItemTypeCourse, ItemID: 10,
				Status: model.PurchaseStatusCompleted, ValidTill: &past},
		}, nil
	})

	w := doRequest(gateRouter(provider, contentHandler), "/courses/10/content")

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
}

func TestGateFallback(t *testing.T) {
	provider := entitlement.NewProvider(func(userID uint) ([]model.Purchase, error) {
		return nil, nil
	})

	r := gin.New()
	r.GET("/courses/:id/content", setUser(1),
		EntitlementGateWithFallback(provider, model.ItemTypeCourse, "id", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"code": 200, "data": "免费试读"})
		}),
		contentHandler)

	w := doRequest(r, "/courses/10/content")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "免费试读")
	assert.NotContains(t, w.Body.String(), "付费正文")
}

func TestGateLoadingInFlight(t *testing.T) {
	release := make(chan struct{})
	provider := entitlement.NewProvider(func(userID uint) ([]model.Purchase, error) {
		<-release
		return nil, nil
	})

	// 另一个请求正在做首次加载
	store := provider.Get(1)
	go store.Refresh() //nolint:errcheck
	require.Eventually(t, store.Loading, time.Second, time.Millisecond)

	w := doRequest(gateRouter(provider, contentHandler), "/courses/10/content")
	close(release)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.NotContains(t, w.Body.String(), "付费正文")
}

func TestGateFirstLoadFailure(t *testing.T) {
	provider := entitlement.NewProvider(func(userID uint) ([]model.Purchase, error) {
		return nil, errors.New("数据库不可用")
	})

	w := doRequest(gateRouter(provider, contentHandler), "/courses/10/content")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGateStaleCacheStillServes(t *testing.T) {
	failing := false
	provider := entitlement.NewProvider(func(userID uint) ([]model.Purchase, error) {
		if failing {
			return nil, errors.New("数据库不可用")
		}
		return []model.Purchase{
			{ID: 1, UserID: userID, ItemType: model.ItemTypeCourse, ItemID: 10, Status: model.PurchaseStatusCompleted},
		}, nil
	})

	// 先成功加载一次
	require.NoError(t, provider.Get(1).Refresh())

	// 之后数据源故障，旧缓存仍然授权
	failing = true
	require.Error(t, provider.Get(1).Refresh())

	w := doRequest(gateRouter(provider, contentHandler), "/courses/10/content")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGateRequiresLogin(t *testing.T) {
	provider := entitlement.NewProvider(func(userID uint) ([]model.Purchase, error) {
		return nil, nil
	})

	r := gin.New()
	r.GET("/courses/:id/content",
		EntitlementGate(provider, model.ItemTypeCourse, "id"), contentHandler)

	w := doRequest(r, "/courses/10/content")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGateBadItemID(t *testing.T) {
	provider := entitlement.NewProvider(func(userID uint) ([]model.Purchase, error) {
		return nil, nil
	})

	w := doRequest(gateRouter(provider, contentHandler), "/courses/abc/content")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
