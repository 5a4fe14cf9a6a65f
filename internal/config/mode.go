package config

// Mode selects which conditional transforms a pipeline run applies. It is
// decided by the invoked command and threaded explicitly through every
// component constructor; nothing reads it from the process environment.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// IsDevelopment reports whether the mode is the development/preview mode.
func (m Mode) IsDevelopment() bool {
	return m == ModeDevelopment
}
