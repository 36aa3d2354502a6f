package domain

import "time"

const (
	ReaderNameMaxLength = 50
	DefaultCurrentRound = 1
)

type Reader struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:50;uniqueIndex;not null" json:"name"`
	TargetCount  int       `gorm:"not null;default:0" json:"target_count"`
	CurrentRound int       `gorm:"not null;default:1" json:"current_round"`
	PinHash      []byte    `json:"-"`
	PinSalt      []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// ReaderSummary is the public projection returned by login and identity lookups.
type ReaderSummary struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	TargetCount  int    `json:"target_count"`
	CurrentRound int    `json:"current_round"`
}

func (r *Reader) Summary() ReaderSummary {
	return ReaderSummary{
		ID:           r.ID,
		Name:         r.Name,
		TargetCount:  r.TargetCount,
		CurrentRound: r.CurrentRound,
	}
}
