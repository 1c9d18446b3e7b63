// Package kdutil offers Go helpers over kd virtual tables: shadow table
// naming, point upserts, and range and nearest queries issued through SQL.
package kdutil
