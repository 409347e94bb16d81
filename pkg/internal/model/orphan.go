package model

import "time"

// OrphanBlob 记录没有元数据行引用的 blob，由定时任务清理.
type OrphanBlob struct {
	ID           uint       `gorm:"primaryKey"              json:"id"`
	StoragePath  string     `gorm:"size:768;index;not null" json:"storage_path"`
	ProjectID    string     `gorm:"size:128;index"          json:"project_id"`
	Reason       string     `gorm:"type:text"               json:"reason"`
	CreatedAt    time.Time  `gorm:"index"                   json:"created_at"`
	ReconciledAt *time.Time `gorm:"index"                   json:"reconciled_at,omitempty"`
}

// TableName 表名.
func (OrphanBlob) TableName() string { return "orphan_blobs" }
