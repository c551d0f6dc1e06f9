package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeRunID computes a deterministic forecast run id.
// Formula: SHA256(dataset_id|model_id|target|horizon|created_at_ms)
// Returns hex-encoded hash (64 characters).
func ComputeRunID(datasetID, modelID, targetField string, horizon int, createdAtMs int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%d",
		datasetID,
		modelID,
		targetField,
		horizon,
		createdAtMs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
