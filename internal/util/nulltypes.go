// Copyright (c) 2025-2026 Stanza CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "database/sql"

// NullInt64FromPtr converts an optional int64 into sql.NullInt64. A nil
// pointer maps to the invalid (NULL) value.
func NullInt64FromPtr(ptr *int64) sql.NullInt64 {
	if ptr == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *ptr, Valid: true}
}
