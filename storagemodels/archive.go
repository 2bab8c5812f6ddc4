/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"strings"
)

// RecoveryMode is the retention policy of a stream archive.
type RecoveryMode string

const (
	// RecoveryModeAll keeps every record, keyed by partition key and sequence number.
	RecoveryModeAll RecoveryMode = "ALL"
	// RecoveryModeLatest keeps only the newest record per partition key; there is no sort key.
	RecoveryModeLatest RecoveryMode = "LATEST"
)

// ParseRecoveryMode accepts "all" or "latest" in any case.
func ParseRecoveryMode(s string) (RecoveryMode, error) {
	switch RecoveryMode(strings.ToUpper(strings.TrimSpace(s))) {
	case RecoveryModeAll:
		return RecoveryModeAll, nil
	case RecoveryModeLatest:
		return RecoveryModeLatest, nil
	}
	return "", fmt.Errorf("unknown recovery mode %q", s)
}

// HasSortKey reports whether archive tables in this mode carry a usable sort key.
func (m RecoveryMode) HasSortKey() bool {
	return m == RecoveryModeAll
}

// ArchiveStreamConfig is the resolved archive configuration of one stream.
// It is immutable once resolved.
type ArchiveStreamConfig struct {
	StreamName   string       `json:"streamName" yaml:"stream_name" toml:"stream_name"`
	TableName    string       `json:"tableName" yaml:"table_name" toml:"table_name"`
	RecoveryMode RecoveryMode `json:"recoveryMode" yaml:"recovery_mode" toml:"recovery_mode"`
}
