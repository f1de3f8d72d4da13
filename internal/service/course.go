package service

import (
	"errors"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
)

var Course = new(CourseService)

type CourseService struct{}

// GetList 获取已上架课程列表
func (s *CourseService) GetList(page, size int, exam string) ([]model.Course, int64, error) {
	db := database.DB.Model(&model.Course{}).Where("is_published = ?", true)
	if exam != "" {
		db = db.Where("exam = ?", exam)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []model.Course
	offset := (page - 1) * size
	if err := db.Order("sort desc, id asc").Offset(offset).Limit(size).Find(&courses).Error; err != nil {
		return nil, 0, err
	}

	// 列表不下发正文内容
	for i := range courses {
		courses[i].Content = ""
	}

	return courses, total, nil
}

// GetDetail 获取课程详情（不含正文内容，正文需通过权益校验）
func (s *CourseService) GetDetail(courseID uint) (*model.Course, error) {
	var course model.Course
	if err := database.DB.First(&course, courseID).Error; err != nil {
		return nil, errors.New("课程不存在")
	}
	course.Content = ""
	return &course, nil
}

// GetContent 获取课程正文内容，调用方需先通过权益校验
func (s *CourseService) GetContent(courseID uint) (*model.Course, error) {
	var course model.Course
	if err := database.DB.First(&course, courseID).Error; err != nil {
		return nil, errors.New("课程不存在")
	}
	return &course, nil
}
