package database

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CHUFrameRepository provides database operations for CHU frames
type CHUFrameRepository struct {
	db *gorm.DB
}

// NewCHUFrameRepository creates a new repository instance
func NewCHUFrameRepository(db *gorm.DB) *CHUFrameRepository {
	return &CHUFrameRepository{db: db}
}

// Save inserts a frame and fills in its ID
func (r *CHUFrameRepository) Save(frame *CHUFrame) error {
	if frame == nil {
		return fmt.Errorf("frame cannot be nil")
	}
	if frame.ReceivedAt.IsZero() {
		frame.ReceivedAt = time.Now()
	}
	return r.db.Create(frame).Error
}

// Count returns the total number of stored frames
func (r *CHUFrameRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&CHUFrame{}).Count(&count).Error
	return count, err
}

// CountValid returns the number of frames that decoded without error
func (r *CHUFrameRepository) CountValid() (int64, error) {
	var count int64
	err := r.db.Model(&CHUFrame{}).Where("error = ''").Count(&count).Error
	return count, err
}

// GetRecent returns frames received after since, newest first
func (r *CHUFrameRepository) GetRecent(since time.Time, limit int) ([]CHUFrame, error) {
	var frames []CHUFrame
	err := r.db.Where("received_at > ?", since).
		Order("received_at DESC").
		Limit(limit).
		Find(&frames).Error
	return frames, err
}

// GetLatestTime returns the most recent frame that carried an absolute time
func (r *CHUFrameRepository) GetLatestTime() (*CHUFrame, error) {
	var frame CHUFrame
	err := r.db.Where("time IS NOT NULL").
		Order("received_at DESC").
		First(&frame).Error
	if err != nil {
		return nil, err
	}
	return &frame, nil
}

// DeleteBefore removes frames received before the cutoff
func (r *CHUFrameRepository) DeleteBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("received_at < ?", cutoff).Delete(&CHUFrame{})
	return result.RowsAffected, result.Error
}
