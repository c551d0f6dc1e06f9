// Package idhash derives deterministic identifiers from domain content.
// Ids are SHA256 over a pipe-joined field list, hex encoded, so the same
// input always maps to the same id across processes and restarts.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"market-forecast-lab/internal/domain"
)

// ComputeDatasetID computes a deterministic dataset id covering the full
// dataset content, so re-uploading the same data is idempotent and any
// value change produces a new id.
// Formula: SHA256(name|row_count|date,field=value,...|date,...) with the
// fields of each row in sorted order.
// Returns hex-encoded hash (64 characters).
func ComputeDatasetID(name string, rows domain.Series) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d", name, len(rows))

	for _, r := range rows {
		fmt.Fprintf(h, "|%s", r.Date)
		fields := make([]string, 0, len(r.Values))
		for k := range r.Values {
			fields = append(fields, k)
		}
		sort.Strings(fields)
		for _, k := range fields {
			fmt.Fprintf(h, ",%s=%g", k, r.Values[k])
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
