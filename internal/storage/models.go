package storage

// CacheEntry stores one serialized cache value. Rate-limit counters live in
// the same table under their own key namespace; rows past ExpiresTS are
// treated as absent and cleaned up lazily.
type CacheEntry struct {
	CacheKey  string `gorm:"primaryKey;size:255"`
	Value     []byte `gorm:"type:mediumblob;not null"`
	ExpiresTS int64  `gorm:"not null;index"`
	UpdatedTS int64  `gorm:"not null"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}
