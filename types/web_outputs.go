package types

type JwsToken struct {
	Token string `json:"token"`
}

// When responding a nonce string as a signature challenge
type NonceResponse struct {
	Nonce string `json:"nonce"`
}

// successful proof verification
type OutputVerified struct {
	IsOK           bool   `json:"ok"`
	RecordID       string `json:"recordId,omitempty"`
	DistanceMeters int64  `json:"distanceMeters,omitempty"`
}

type OutputAttendanceList struct {
	Records []*AttendanceRecord `json:"records"`
}
