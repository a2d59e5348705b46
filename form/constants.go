package form

// Document-level keys used in ValidationErrors returned by Apply. They never
// collide with form field names.
const (
	KeyDocument = "_document"
)
