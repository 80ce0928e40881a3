package models

import "github.com/uptrace/bun"

// Counter is a named monotonic counter. The champion number lives here so
// two overlapping award cycles can never mint the same role name.
type Counter struct {
	bun.BaseModel `bun:"table:counters"`

	Name  string `bun:"name,pk"`
	Value int64  `bun:"value,notnull,default:0"`
}
