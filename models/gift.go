package models

import (
	"fmt"
	"time"
)

// Rarity tiers, ordered from most to least common. Stored as strings so
// the table stays readable; ordering goes through RarityRank.
const (
	RarityCommon    = "common"
	RarityRare      = "rare"
	RarityEpic      = "epic"
	RarityLegendary = "legendary"
)

var rarityRank = map[string]int{
	RarityCommon:    0,
	RarityRare:      1,
	RarityEpic:      2,
	RarityLegendary: 3,
}

// RarityRank returns the sort position of a rarity tier, common first.
func RarityRank(rarity string) int {
	return rarityRank[rarity]
}

// ParseRarity validates a rarity string against the closed tier set.
func ParseRarity(s string) (string, error) {
	if _, ok := rarityRank[s]; !ok {
		return "", fmt.Errorf("unknown rarity %q", s)
	}
	return s, nil
}

// Gift is a catalog entry in the prize pool. Quantity is only ever
// decremented by the allocation service; entries are soft-disabled via
// Available instead of deleted.
type Gift struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Icon      string    `gorm:"size:16;not null" json:"icon"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Rarity    string    `gorm:"size:50;not null;default:'common'" json:"rarity"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Available bool      `gorm:"not null;default:true" json:"available"`
	CreatedAt time.Time `json:"created_at"`

	// Associations
	Wins []Win `gorm:"foreignKey:GiftID" json:"wins,omitempty"`
}

func (Gift) TableName() string {
	return "gifts"
}
