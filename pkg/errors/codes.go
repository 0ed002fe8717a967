package errors

// Error codes used across the report generation pipeline. Codes are stable
// identifiers: callers match on them with IsCode, never on message text.
const (
	// Record errors
	CodeRecordDecode  = "RECORD_DECODE"  // record JSON could not be decoded
	CodeRecordMissing = "RECORD_MISSING" // no record supplied
	CodeRecordInvalid = "RECORD_INVALID" // record fails basic validation

	// Layout errors
	CodeLayoutMeasure = "LAYOUT_MEASURE" // text measurement failed (unsupported characters)
	CodeLayoutFlow    = "LAYOUT_FLOW"    // flow invariant violation during pagination

	// Export errors
	CodeExportBuild = "EXPORT_BUILD" // PDF document could not be assembled
	CodeExportWrite = "EXPORT_WRITE" // artifact could not be written to disk

	// Config errors
	CodeConfigRead  = "CONFIG_READ"  // config file could not be read
	CodeConfigParse = "CONFIG_PARSE" // config file could not be parsed

	// Store errors
	CodeStoreQuery  = "STORE_QUERY"  // audit query failed
	CodeStoreInsert = "STORE_INSERT" // audit insert failed
)
