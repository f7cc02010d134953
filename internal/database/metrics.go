package database

import (
	"time"

	"campusnest/internal/observability"

	"gorm.io/gorm"
)

const queryStartKey = "campusnest:query_start"

// RegisterQueryMetrics installs GORM callbacks that observe query latency
// into observability.DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "raw"
			}
			observability.DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, fn func(*gorm.DB)) error
		finish   func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
	}
	for _, s := range steps {
		if err := s.register("metrics:before_"+s.op, before); err != nil {
			return err
		}
		if err := s.finish("metrics:after_"+s.op, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
