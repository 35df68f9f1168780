package types

import (
	"github.com/fxamacker/cbor/v2"
	"github.com/hibiken/asynq"
)

var (
	QueueTypeAuditTrail = "attendance:audit"
)

// AuditTask carries a committed proof into the audit trail queue
type AuditTask struct {
	RecordID  string         `cbor:"recordId"`
	UserID    string         `cbor:"userId"`
	SessionID string         `cbor:"sessionId"`
	Metadata  *ProofMetadata `cbor:"metadata"`
	Created   int64          `cbor:"created"`
}

func NewAuditTrailTask(audit *AuditTask) (*asynq.Task, error) {
	payload, err := cbor.Marshal(audit)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(QueueTypeAuditTrail, payload), nil
}
