package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TransmissionRepository provides database operations for D-STAR
// transmissions
type TransmissionRepository struct {
	db *gorm.DB
}

// NewTransmissionRepository creates a new repository instance
func NewTransmissionRepository(db *gorm.DB) *TransmissionRepository {
	return &TransmissionRepository{db: db}
}

// GetByID finds a transmission by its UUID
func (r *TransmissionRepository) GetByID(id string) (*Transmission, error) {
	var tx Transmission
	err := r.db.Where("id = ?", id).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Upsert creates or updates a transmission
func (r *TransmissionRepository) Upsert(tx *Transmission) error {
	if tx == nil {
		return fmt.Errorf("transmission cannot be nil")
	}

	if !tx.IsValid() {
		return fmt.Errorf("transmission is not valid: id=%q", tx.ID)
	}

	tx.SanitizeFields()
	return r.db.Save(tx).Error
}

// Count returns the total number of transmissions
func (r *TransmissionRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&Transmission{}).Count(&count).Error
	return count, err
}

// GetOpen returns transmissions without an end, oldest first
func (r *TransmissionRepository) GetOpen() ([]Transmission, error) {
	var txs []Transmission
	err := r.db.Where("ended_at IS NULL").
		Order("started_at ASC").
		Find(&txs).Error
	return txs, err
}

// GetRecent returns transmissions started after since, newest first
func (r *TransmissionRepository) GetRecent(since time.Time, limit int) ([]Transmission, error) {
	var txs []Transmission
	err := r.db.Where("started_at > ?", since).
		Order("started_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// FindByCallsignPattern searches for own callsigns starting with pattern
func (r *TransmissionRepository) FindByCallsignPattern(pattern string, limit int) ([]Transmission, error) {
	var txs []Transmission
	err := r.db.Where("own LIKE ?", pattern+"%").
		Order("started_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// StationCount is how many transmissions one own callsign made.
type StationCount struct {
	Own   string `json:"own"`
	Count int    `json:"count"`
}

// GetStatistics returns basic transmission statistics
func (r *TransmissionRepository) GetStatistics() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	count, err := r.Count()
	if err != nil {
		return nil, err
	}
	stats["total_transmissions"] = count

	var latest Transmission
	err = r.db.Order("started_at DESC").First(&latest).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		stats["last_heard"] = latest.StartedAt
		stats["last_callsign"] = latest.Own
	}

	// Most active stations (top 10)
	var stationStats []StationCount
	err = r.db.Model(&Transmission{}).
		Select("own, COUNT(*) as count").
		Where("own != ''").
		Group("own").
		Order("count DESC").
		Limit(10).
		Find(&stationStats).Error
	if err != nil {
		return nil, err
	}
	stats["top_stations"] = stationStats

	return stats, nil
}

// HealthCheck verifies the repository is working correctly
func (r *TransmissionRepository) HealthCheck() error {
	var count int64
	return r.db.Model(&Transmission{}).Count(&count).Error
}
