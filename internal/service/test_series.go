package service

import (
	"errors"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
)

var TestSeries = new(TestSeriesService)

type TestSeriesService struct{}

// GetList 获取已上架测试系列列表
func (s *TestSeriesService) GetList(page, size int, exam string) ([]model.TestSeries, int64, error) {
	db := database.DB.Model(&model.TestSeries{}).Where("is_published = ?", true)
	if exam != "" {
		db = db.Where("exam = ?", exam)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.TestSeries
	offset := (page - 1) * size
	if err := db.Order("sort desc, id asc").Offset(offset).Limit(size).Find(&list).Error; err != nil {
		return nil, 0, err
	}

	for i := range list {
		list[i].Content = ""
	}

	return list, total, nil
}

// GetDetail 获取测试系列详情（不含正文内容）
func (s *TestSeriesService) GetDetail(seriesID uint) (*model.TestSeries, error) {
	var series model.TestSeries
	if err := database.DB.First(&series, seriesID).Error; err != nil {
		return nil, errors.New("测试系列不存在")
	}
	series.Content = ""
	return &series, nil
}

// GetContent 获取测试系列正文内容，调用方需先通过权益校验
func (s *TestSeriesService) GetContent(seriesID uint) (*model.TestSeries, error) {
	var series model.TestSeries
	if err := database.DB.First(&series, seriesID).Error; err != nil {
		return nil, errors.New("测试系列不存在")
	}
	return &series, nil
}
