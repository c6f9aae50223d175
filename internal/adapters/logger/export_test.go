package logger

// CollectErrorEntriesExported exposes collectErrorEntries to the external tests.
func CollectErrorEntriesExported(err error) []ErrorEntry {
	return collectErrorEntries(err)
}

// FormatErrorEntriesExported exposes formatErrorEntries to the external tests.
func FormatErrorEntriesExported(entries []ErrorEntry) string {
	return formatErrorEntries(entries)
}
