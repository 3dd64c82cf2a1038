package log

// FieldComponent tags every line with the subsystem that wrote it.
const FieldComponent = "component"

// Component names used across the module.
const (
	ComponentApp       = "app"
	ComponentDirectory = "directory"
	ComponentFinance   = "finance"
)
