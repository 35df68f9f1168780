package types

// Nonce is a short-lived login challenge, stored under its own value
type Nonce struct {
	BaseDocument `json:",inline"`
	Nonce        string `json:"nonce"`
	Created      int64  `json:"created"` // epoch milliseconds UTC
}
