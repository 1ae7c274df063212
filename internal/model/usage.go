package model

// UsageReport is the envelope of the elastic usage endpoint. Rows are kept
// as raw objects; the dashboard only normalizes a few known columns.
type UsageReport struct {
	Data []map[string]any `json:"data"`
}
