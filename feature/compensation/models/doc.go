// Package models defines the GORM entities of the compensation feature.
//
// CompensationRecord maps the compensation_records table. Its column set is
// also the source of truth for the integrity server check.
package models
