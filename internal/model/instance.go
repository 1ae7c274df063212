package model

// Instance is a customer's elastic instance on the licensing service.
type Instance struct {
	ID        string `json:"id,omitempty"`
	AccountID string `json:"accountId"`
	ShortName string `json:"shortName"`
}

// InstancePage is the paged envelope returned by the instances endpoint.
type InstancePage struct {
	Content []Instance `json:"content"`
}
