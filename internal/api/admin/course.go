package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
)

// CourseRequest 课程创建/更新参数
type CourseRequest struct {
	Name         string  `json:"name" binding:"required"`
	Cover        string  `json:"cover"`
	Exam         string  `json:"exam"`
	Subject      string  `json:"subject"`
	Price        float64 `json:"price"`
	Description  string  `json:"description"`
	Content      string  `json:"content"`
	ValidityDays int     `json:"validity_days"`
	IsPublished  *bool   `json:"is_published"`
	LessonCount  int     `json:"lesson_count"`
	Sort         int     `json:"sort"`
}

// GetCourses 获取课程列表
func GetCourses(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	keyword := c.Query("keyword")

	var courses []model.Course
	var total int64
	query := database.DB.Model(&model.Course{})

	// 关键字搜索
	if keyword != "" {
		query = query.Where("name LIKE ? OR exam LIKE ? OR subject LIKE ?",
			"%"+keyword+"%", "%"+keyword+"%", "%"+keyword+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "获取课程总数失败",
		})
		return
	}

	err := query.Order("sort DESC").Offset((page - 1) * size).Limit(size).Find(&courses).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "获取课程列表失败",
		})
		return
	}

	var courseList []gin.H
	for _, course := range courses {
		courseList = append(courseList, gin.H{
			"id":            course.ID,
			"name":          course.Name,
			"cover":         course.Cover,
			"exam":          course.Exam,
			"subject":       course.Subject,
			"price":         course.Price,
			"description":   course.Description,
			"validity_days": course.ValidityDays,
			"is_published":  course.IsPublished,
			"lesson_count":  course.LessonCount,
			"sort":          course.Sort,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"total": total,
			"items": courseList,
		},
	})
}

// GetCourse 获取单个课程
func GetCourse(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	var course model.Course
	if err := database.DB.First(&course, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code": 404,
			"msg":  "课程不存在",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": course,
	})
}

// CreateCourse 创建课程
func CreateCourse(c *gin.Context) {
	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	course := model.Course{
		Name:         req.Name,
		Cover:        req.Cover,
		Exam:         req.Exam,
		Subject:      req.Subject,
		Price:        req.Price,
		Description:  req.Description,
		Content:      req.Content,
		ValidityDays: req.ValidityDays,
		LessonCount:  req.LessonCount,
		Sort:         req.Sort,
	}
	if req.IsPublished != nil {
		course.IsPublished = *req.IsPublished
	} else {
		course.IsPublished = true
	}

	if err := database.DB.Create(&course).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "创建课程失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{"id": course.ID},
	})
}

// UpdateCourse 更新课程
func UpdateCourse(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	var course model.Course
	if err := database.DB.First(&course, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code": 404,
			"msg":  "课程不存在",
		})
		return
	}

	var req CourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	updates := map[string]interface{}{
		"name":          req.Name,
		"cover":         req.Cover,
		"exam":          req.Exam,
		"subject":       req.Subject,
		"price":         req.Price,
		"description":   req.Description,
		"content":       req.Content,
		"validity_days": req.ValidityDays,
		"lesson_count":  req.LessonCount,
		"sort":          req.Sort,
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}

	if err := database.DB.Model(&course).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "更新课程失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "更新成功",
	})
}

// DeleteCourse 删除课程
func DeleteCourse(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	if err := database.DB.Delete(&model.Course{}, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "删除课程失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "删除成功",
	})
}
