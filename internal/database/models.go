package database

import (
	"time"
)

// Signal is one entry of the signal catalog.
type Signal struct {
	Name        string `gorm:"primaryKey;column:name"`
	Description string `gorm:"column:description"`
}

// TableName specifies the table name for Signal
func (Signal) TableName() string {
	return "signals"
}

// SignalSample is one stored sample. Scalar signals fill Value, vector
// signals fill Vector with a msgpack encoded []float64.
type SignalSample struct {
	Time   time.Time `gorm:"column:time;not null"`
	Name   string    `gorm:"column:name;not null"`
	Value  *float64  `gorm:"column:value"`
	Vector []byte    `gorm:"column:vector"`
}

// TableName specifies the table name for SignalSample
func (SignalSample) TableName() string {
	return "signal_samples"
}
