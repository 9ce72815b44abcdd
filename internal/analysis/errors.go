package analysis

import "fmt"

// EmptyDatasetError indicates the decoder produced no rows.
type EmptyDatasetError struct {
	Source string
}

func (e *EmptyDatasetError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("empty dataset: %s contains no rows", e.Source)
	}
	return "empty dataset: no rows to analyze"
}

// ClassificationError indicates the table structure could not be classified at all.
type ClassificationError struct {
	Reason string
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify table: %s", e.Reason)
}

// NotFoundError indicates a student id or class name absent from the dataset.
type NotFoundError struct {
	Kind string // "student" | "class"
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// MissingDatasetError indicates a query issued before any successful upload.
type MissingDatasetError struct{}

func (e *MissingDatasetError) Error() string {
	return "no dataset loaded: upload a grade file first"
}
