package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
)

func TestSubmitTestResult(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	record, err := Progress.SubmitTestResult(1, model.ItemTypeCourse, course.ID, 72)
	require.NoError(t, err)
	assert.Equal(t, 1, record.TestsTaken)
	assert.Equal(t, 72.0, record.BestScore)
	assert.Equal(t, 72.0, record.LastScore)

	// 第二次成绩更低: 最新分更新，最好分保留
	record, err = Progress.SubmitTestResult(1, model.ItemTypeCourse, course.ID, 65)
	require.NoError(t, err)
	assert.Equal(t, 2, record.TestsTaken)
	assert.Equal(t, 72.0, record.BestScore)
	assert.Equal(t, 65.0, record.LastScore)

	// 第三次刷新最好分
	record, err = Progress.SubmitTestResult(1, model.ItemTypeCourse, course.ID, 88)
	require.NoError(t, err)
	assert.Equal(t, 88.0, record.BestScore)
}

func TestSubmitTestResultValidation(t *testing.T) {
	setupPaymentTest(t)

	_, err := Progress.SubmitTestResult(1, "unknown", 1, 50)
	assert.Error(t, err)

	_, err = Progress.SubmitTestResult(1, model.ItemTypeCourse, 1, -1)
	assert.Error(t, err)

	_, err = Progress.SubmitTestResult(1, model.ItemTypeCourse, 1, 101)
	assert.Error(t, err)
}

func TestStreakTracking(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	_, err := Progress.SubmitTestResult(1, model.ItemTypeCourse, course.ID, 70)
	require.NoError(t, err)

	stats, err := Progress.GetStreak(1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["current_streak"])
	assert.Equal(t, 1, stats["longest_streak"])

	// 同一天重复活跃不增加连续天数，但活跃度桶继续累加
	_, err = Progress.SubmitTestResult(1, model.ItemTypeCourse, course.ID, 75)
	require.NoError(t, err)

	stats, err = Progress.GetStreak(1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["current_streak"])

	activity := stats["activity"].(model.Metadata)
	assert.Equal(t, float64(2), activity["daily"])
	assert.NoError(t, activity.Validate(model.MetadataScopeActivity))
}

func TestStreakContinuesAcrossConsecutiveDays(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	_, err := Progress.SubmitTestResult(1, model.ItemTypeCourse, course.ID, 70)
	require.NoError(t, err)

	// 最近活跃日期回拨到昨天
	yesterday := time.Now().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	require.NoError(t, database.DB.Model(&model.StreakStats{}).
		Where("user_id = ?", 1).Update("last_active_date", yesterday).Error)

	_, err = Progress.SubmitTestResult(1, model.ItemTypeCourse, course.ID, 80)
	require.NoError(t, err)

	stats, err := Progress.GetStreak(1)
	require.NoError(t, err)
	assert.Equal(t, 2, stats["current_streak"])
	assert.Equal(t, 2, stats["longest_streak"])
}

func TestStreakResetsAfterGap(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	_, err := Progress.SubmitTestResult(1, model.ItemTypeCourse, course.ID, 70)
	require.NoError(t, err)

	// 断档三天
	threeDaysAgo := time.Now().AddDate(0, 0, -3).Truncate(24 * time.Hour)
	require.NoError(t, database.DB.Model(&model.StreakStats{}).
		Where("user_id = ?", 1).Updates(map[string]interface{}{
		"last_active_date": threeDaysAgo,
		"current_streak":   5,
		"longest_streak":   5,
	}).Error)

	_, err = Progress.SubmitTestResult(1, model.ItemTypeCourse, course.ID, 80)
	require.NoError(t, err)

	stats, err := Progress.GetStreak(1)
	require.NoError(t, err)
	assert.Equal(t, 1, stats["current_streak"], "断档后连续天数重新计")
	assert.Equal(t, 5, stats["longest_streak"], "历史最长保留")
}

func TestGetProgressWithoutRecord(t *testing.T) {
	setupPaymentTest(t)

	record, err := Progress.GetProgress(1, model.ItemTypeCourse, 99)
	require.NoError(t, err)
	assert.Equal(t, 0, record.TestsTaken)
	assert.Equal(t, 0.0, record.BestScore)
}

func TestGetStreakWithoutStats(t *testing.T) {
	setupPaymentTest(t)

	stats, err := Progress.GetStreak(1)
	require.NoError(t, err)
	assert.Equal(t, 0, stats["current_streak"])
}
