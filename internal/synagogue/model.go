package synagogue

import (
	"time"

	"religious_services_backend/internal/common"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PrayerTimes maps a prayer name to its local time, e.g. {"shacharit": "06:30"}.
type PrayerTimes map[string]string

// Synagogue is a synagogue listing shown in the app directory.
type Synagogue struct {
	common.BaseModel
	Name         string                          `gorm:"type:varchar(150);not null"`
	Slug         string                          `gorm:"type:varchar(170);not null;uniqueIndex"`
	Address      string                          `gorm:"type:varchar(255)"`
	City         string                          `gorm:"type:varchar(100);index"`
	Latitude     *float64                        `gorm:"type:decimal(10,8)"`
	Longitude    *float64                        `gorm:"type:decimal(11,8)"`
	Nusach       string                          `gorm:"type:varchar(50)"`
	ContactPhone *string                         `gorm:"type:varchar(50)"`
	PrayerTimes  datatypes.JSONType[PrayerTimes] `gorm:"type:jsonb"`
	Notes        *string                         `gorm:"type:text"`
	IsActive     bool                            `gorm:"not null;index"`
}

func (Synagogue) TableName() string {
	return "synagogues"
}

// --- DTOs ---

type SynagogueResponse struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Slug         string      `json:"slug"`
	Address      string      `json:"address"`
	City         string      `json:"city"`
	Latitude     *float64    `json:"latitude,omitempty"`
	Longitude    *float64    `json:"longitude,omitempty"`
	Nusach       string      `json:"nusach,omitempty"`
	ContactPhone *string     `json:"contact_phone,omitempty"`
	PrayerTimes  PrayerTimes `json:"prayer_times"`
	Notes        *string     `json:"notes,omitempty"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

func ToSynagogueResponse(s *Synagogue) SynagogueResponse {
	times := s.PrayerTimes.Data()
	if times == nil {
		times = PrayerTimes{}
	}
	return SynagogueResponse{
		ID:           s.ID,
		Name:         s.Name,
		Slug:         s.Slug,
		Address:      s.Address,
		City:         s.City,
		Latitude:     s.Latitude,
		Longitude:    s.Longitude,
		Nusach:       s.Nusach,
		ContactPhone: s.ContactPhone,
		PrayerTimes:  times,
		Notes:        s.Notes,
		IsActive:     s.IsActive,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// SaveSynagogueRequest is used for both create and full update.
type SaveSynagogueRequest struct {
	Name         string      `json:"name" binding:"required,max=150"`
	Slug         string      `json:"slug" binding:"omitempty,max=170"`
	Address      string      `json:"address" binding:"max=255"`
	City         string      `json:"city" binding:"required,max=100"`
	Latitude     *float64    `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64    `json:"longitude" binding:"omitempty,longitude"`
	Nusach       string      `json:"nusach" binding:"max=50"`
	ContactPhone *string     `json:"contact_phone" binding:"omitempty,max=50"`
	PrayerTimes  PrayerTimes `json:"prayer_times" binding:"omitempty,dive,keys,required,max=50,endkeys,required,max=20"`
	Notes        *string     `json:"notes"`
	IsActive     *bool       `json:"is_active"`
}

// ListQuery filters the directory.
type ListQuery struct {
	common.PaginationQuery
	City   string `form:"city"`
	Search string `form:"q"`
	// IncludeInactive is set by admin routes only.
	IncludeInactive bool `form:"-"`
}
