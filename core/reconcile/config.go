package reconcile

// Config holds configuration for payroll synchronization.
type Config struct {
	// Source is the tag written on imported records.
	Source string `mapstructure:"source" default:"payroll-provider"`
	// ImportPrefix is the storage prefix holding payroll export files.
	ImportPrefix string `mapstructure:"import_prefix" default:"imports/"`
	// MaxBatch caps the number of records accepted in one request.
	MaxBatch int `mapstructure:"max_batch" default:"5000"`
}
