package models

// Plane records where one plane of a dataset comes from
type Plane struct {
	// Index is the plane index within the dataset
	Index int

	// Z, C and T are the plane coordinates
	Z, C, T int

	// Filename is the file holding the plane, for datasets spread over
	// several files
	Filename string
}
