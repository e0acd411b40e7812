// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldPrincipal = "principal_id"
	FieldTenantID  = "tenant_id"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Delivery fields
	FieldResourceID   = "resource_id"
	FieldLobbyID      = "lobby_id"
	FieldFileKey      = "file_key"
	FieldSegmentIndex = "segment_index"
	FieldRangeStart   = "range_start"
	FieldRangeEnd     = "range_end"
	FieldTotalSize    = "total_size"
	FieldBackend      = "backend"
	FieldReason       = "reason"

	// Path / URL fields
	FieldPath   = "path"
	FieldMethod = "method"
	FieldStatus = "status"
)
