// Package commune resolves commune codes to display names and administrative
// boundary geometries. The pipeline only depends on the Directory capability;
// callers inject either the static table or the remote contours index.
package commune

// Directory maps an INSEE commune code to its display name.
type Directory interface {
	// Nom returns the display name for the code, and whether it is known.
	Nom(code string) (string, bool)
}

// StaticDirectory is an in-memory Directory, used for tests and offline runs.
type StaticDirectory map[string]string

// Nom implements Directory.
func (d StaticDirectory) Nom(code string) (string, bool) {
	nom, ok := d[code]
	return nom, ok
}
