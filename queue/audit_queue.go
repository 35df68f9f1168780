package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rollcall/go-rollcall-server/global"
	"github.com/rollcall/go-rollcall-server/repository"
	"github.com/rollcall/go-rollcall-server/types"
)

// AuditQueue persists committed proofs into the audit_trail database.
// Writes ride the task queue so a slow audit store never blocks the
// verification request path; the attendance record itself is already
// committed synchronously by the verifier.
type AuditQueue struct {
	auditRepo repository.Repository
	env       *types.Environment
}

// audit trail document
type auditDocument struct {
	types.BaseDocument `json:",inline"`
	RecordID           string               `json:"recordId"`
	UserID             string               `json:"userId"`
	SessionID          string               `json:"sessionId"`
	Metadata           *types.ProofMetadata `json:"metadata"`
	Created            int64                `json:"created"`
}

func NewAuditQueue(dbSelector repository.DBSelector, env *types.Environment) *AuditQueue {
	auditRepo, err := dbSelector.ChooseDB(repository.AuditTrail)
	if err != nil {
		panic(err)
	}
	return &AuditQueue{
		auditRepo: auditRepo,
		env:       env,
	}
}

// Processing of audit trail tasks
func (aq *AuditQueue) ProcessAuditTask(ctx context.Context, t *asynq.Task) error {
	var task types.AuditTask
	if err := cbor.Unmarshal(t.Payload(), &task); err != nil {
		return fmt.Errorf("cbor.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	doc := &auditDocument{
		RecordID:  task.RecordID,
		UserID:    task.UserID,
		SessionID: task.SessionID,
		Metadata:  task.Metadata,
		Created:   task.Created,
	}

	saveCtx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := aq.auditRepo.Save(saveCtx, uuid.NewString(), doc); err != nil {
		global.Logger.Log("AuditQueue", "failed to save audit document", "error", err.Error())
		return err // retried with exponential backoff
	}
	return nil
}
