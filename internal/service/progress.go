package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
)

var Progress = new(ProgressService)

type ProgressService struct{}

// SubmitTestResult 提交一次测试成绩，更新进度和连续学习统计
func (s *ProgressService) SubmitTestResult(userID uint, itemType string, itemID uint, score float64) (*model.ProgressRecord, error) {
	if itemType != model.ItemTypeCourse && itemType != model.ItemTypeTestSeries {
		return nil, errors.New("不支持的内容类型")
	}
	if score < 0 || score > 100 {
		return nil, errors.New("分数必须在0到100之间")
	}

	now := time.Now()

	var record model.ProgressRecord
	err := database.DB.Where("user_id = ? AND item_type = ? AND item_id = ?",
		userID, itemType, itemID).First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		record = model.ProgressRecord{
			UserID:   userID,
			ItemType: itemType,
			ItemID:   itemID,
		}
	}

	record.TestsTaken++
	record.LastScore = score
	if score > record.BestScore {
		record.BestScore = score
	}
	record.LastActivityAt = &now

	if err := database.DB.Save(&record).Error; err != nil {
		return nil, err
	}

	if err := s.touchStreak(userID, now); err != nil {
		return nil, err
	}

	return &record, nil
}

// touchStreak 记录一次活跃，维护连续天数和活跃度桶
func (s *ProgressService) touchStreak(userID uint, now time.Time) error {
	var stats model.StreakStats
	err := database.DB.Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		stats = model.StreakStats{UserID: userID}
	}

	today := now.Truncate(24 * time.Hour)

	activity, decodeErr := stats.GetActivity()
	if decodeErr != nil || activity == nil {
		activity = model.Metadata{}
	}

	if stats.LastActiveDate == nil {
		stats.CurrentStreak = 1
	} else {
		last := *stats.LastActiveDate
		lastDay := last.Truncate(24 * time.Hour)
		switch days := int(today.Sub(lastDay).Hours() / 24); {
		case days == 0:
			// 同一天重复活跃不增加连续天数
		case days == 1:
			stats.CurrentStreak++
		default:
			// 断档，连续天数重新计
			stats.CurrentStreak = 1
		}

		// 跨周期时对应的桶清零
		if !sameDay(last, now) {
			activity["daily"] = 0
		}
		if !sameWeek(last, now) {
			activity["weekly"] = 0
		}
		if !sameMonth(last, now) {
			activity["monthly"] = 0
		}
	}
	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	stats.LastActiveDate = &today

	bumpBucket(activity, "daily")
	bumpBucket(activity, "weekly")
	bumpBucket(activity, "monthly")

	if err := stats.SetActivity(activity); err != nil {
		return err
	}

	return database.DB.Save(&stats).Error
}

func sameDay(a, b time.Time) bool {
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

func sameWeek(a, b time.Time) bool {
	ay, aw := a.ISOWeek()
	by, bw := b.ISOWeek()
	return ay == by && aw == bw
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// bumpBucket 活跃度桶计数加一，兼容JSON反序列化出来的float64
func bumpBucket(m model.Metadata, key string) {
	switch v := m[key].(type) {
	case float64:
		m[key] = v + 1
	case int:
		m[key] = v + 1
	default:
		m[key] = 1
	}
}

// GetProgress 获取用户对某内容的进度
func (s *ProgressService) GetProgress(userID uint, itemType string, itemID uint) (*model.ProgressRecord, error) {
	var record model.ProgressRecord
	err := database.DB.Where("user_id = ? AND item_type = ? AND item_id = ?",
		userID, itemType, itemID).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 没有进度返回零值记录
			return &model.ProgressRecord{
				UserID:   userID,
				ItemType: itemType,
				ItemID:   itemID,
			}, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetStreak 获取用户的连续学习统计
func (s *ProgressService) GetStreak(userID uint) (map[string]interface{}, error) {
	var stats model.StreakStats
	err := database.DB.Where("user_id = ?", userID).First(&stats).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return map[string]interface{}{
				"current_streak":   0,
				"longest_streak":   0,
				"last_active_date": nil,
				"activity":         model.Metadata{},
			}, nil
		}
		return nil, err
	}

	activity, _ := stats.GetActivity()
	if activity == nil {
		activity = model.Metadata{}
	}

	return map[string]interface{}{
		"current_streak":   stats.CurrentStreak,
		"longest_streak":   stats.LongestStreak,
		"last_active_date": stats.LastActiveDate,
		"activity":         activity,
	}, nil
}
