package domain

import "time"

// KV value kinds stored in KVKey.Kind.
const (
	KindString = "string"
	KindSet    = "set"
)

// KVKey is one key of the SQLite key-value emulation. String values live in
// Value; set members live in KVMember rows. A nil ExpiresAt never expires.
type KVKey struct {
	Key       string     `gorm:"type:TEXT NOT NULL;primaryKey"`
	Kind      string     `gorm:"type:TEXT NOT NULL"`
	Value     string     `gorm:"type:TEXT NOT NULL;default:''"`
	ExpiresAt *time.Time `gorm:"type:DATETIME;index"`
}

// TableName implements the GORM tabler interface.
func (KVKey) TableName() string { return "kv_keys" }

// KVMember is one member of a set-valued key.
type KVMember struct {
	Key    string `gorm:"type:TEXT NOT NULL;primaryKey"`
	Member string `gorm:"type:TEXT NOT NULL;primaryKey"`
}

// TableName implements the GORM tabler interface.
func (KVMember) TableName() string { return "kv_members" }
