package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
)

// TestSeriesRequest 测试系列创建/更新参数
type TestSeriesRequest struct {
	Name          string  `json:"name" binding:"required"`
	Cover         string  `json:"cover"`
	Exam          string  `json:"exam"`
	Price         float64 `json:"price"`
	Description   string  `json:"description"`
	Content       string  `json:"content"`
	ValidityDays  int     `json:"validity_days"`
	IsPublished   *bool   `json:"is_published"`
	TestCount     int     `json:"test_count"`
	QuestionCount int     `json:"question_count"`
	Sort          int     `json:"sort"`
}

// GetTestSeriesList 获取测试系列列表
func GetTestSeriesList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	keyword := c.Query("keyword")

	var list []model.TestSeries
	var total int64
	query := database.DB.Model(&model.TestSeries{})

	if keyword != "" {
		query = query.Where("name LIKE ? OR exam LIKE ?", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "获取测试系列总数失败",
		})
		return
	}

	err := query.Order("sort DESC").Offset((page - 1) * size).Limit(size).Find(&list).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "获取测试系列列表失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"total": total,
			"items": list,
		},
	})
}

// GetTestSeries 获取单个测试系列
func GetTestSeries(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	var series model.TestSeries
	if err := database.DB.First(&series, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code": 404,
			"msg":  "测试系列不存在",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": series,
	})
}

// CreateTestSeries 创建测试系列
func CreateTestSeries(c *gin.Context) {
	var req TestSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	series := model.TestSeries{
		Name:          req.Name,
		Cover:         req.Cover,
		Exam:          req.Exam,
		Price:         req.Price,
		Description:   req.Description,
		Content:       req.Content,
		ValidityDays:  req.ValidityDays,
		TestCount:     req.TestCount,
		QuestionCount: req.QuestionCount,
		Sort:          req.Sort,
	}
	if req.IsPublished != nil {
		series.IsPublished = *req.IsPublished
	} else {
		series.IsPublished = true
	}

	if err := database.DB.Create(&series).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "创建测试系列失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"id": series.ID},
	})
}

// UpdateTestSeries 更新测试系列
func UpdateTestSeries(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	var series model.TestSeries
	if err := database.DB.First(&series, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code": 404,
			"msg":  "测试系列不存在",
		})
		return
	}

	var req TestSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	updates := map[string]interface{}{
		"name":           req.Name,
		"cover":          req.Cover,
		"exam":           req.Exam,
		"price":          req.Price,
		"description":    req.Description,
		"content":        req.Content,
		"validity_days":  req.ValidityDays,
		"test_count":     req.TestCount,
		"question_count": req.QuestionCount,
		"sort":           req.Sort,
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}

	if err := database.DB.Model(&series).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "更新测试系列失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "更新成功",
	})
}

// DeleteTestSeries 删除测试系列
func DeleteTestSeries(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	if err := database.DB.Delete(&model.TestSeries{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "删除测试系列失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "删除成功",
	})
}
