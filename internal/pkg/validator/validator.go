package validator

// Validator validates request and domain structs.
type Validator interface {
	// Validate checks the struct tags of data and returns an error describing
	// every violated rule, or nil when the struct is valid.
	Validate(data any) error
}
