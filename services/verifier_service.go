package services

import (
	"math"
	"time"

	"github.com/go-kit/log/level"
	"github.com/rollcall/go-rollcall-server/global"
	"github.com/rollcall/go-rollcall-server/metrics"
	"github.com/rollcall/go-rollcall-server/types"
	"github.com/rollcall/go-rollcall-server/util"
)

// geofence radius applied when neither the session nor the config carries one
const fallbackRadiusMeters = 50.0

// Store views consumed by the verifier. The couch-backed services satisfy
// them; tests substitute in-memory fakes.
type SessionStore interface {
	GetByToken(token string) (*types.AttendanceSession, error)
}

type DeviceKeyStore interface {
	GetByUserID(userID string) (*types.DeviceKey, error)
}

type AttendanceStore interface {
	Insert(record *types.AttendanceRecord) error
}

// ProofVerifier validates submitted attendance proofs and commits one
// record per accepted proof. Stateless per request: concurrent calls share
// nothing but the injected stores.
type ProofVerifier struct {
	sessions SessionStore
	keys     DeviceKeyStore
	records  AttendanceStore
	env      *types.Environment
	now      func() time.Time
}

func NewProofVerifier(sessions SessionStore, keys DeviceKeyStore, records AttendanceStore, env *types.Environment) *ProofVerifier {
	return &ProofVerifier{
		sessions: sessions,
		keys:     keys,
		records:  records,
		env:      env,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Verify runs the rejection stages in order and, only when every one of
// them passes, inserts exactly one attendance record. Every rejection is
// terminal for the request and maps to a distinct typed error; nothing is
// written on any rejection path.
//
// Resubmitting the same valid proof before session expiry inserts a second
// record. Deduplication is a listing-flow policy, deliberately not enforced
// here.
func (v *ProofVerifier) Verify(userID string, input *types.InputProof) (*types.AttendanceRecord, error) {
	record, err := v.verify(userID, input)
	metrics.AttendanceVerificationsMetrics(outcomeLabel(err))
	return record, err
}

func (v *ProofVerifier) verify(userID string, input *types.InputProof) (*types.AttendanceRecord, error) {
	// structural checks before any store access
	tsMillis, vErr := v.validatePayload(input)
	if vErr != nil {
		return nil, vErr
	}

	session, sErr := v.sessions.GetByToken(input.Token)
	if sErr != nil {
		if sErr == types.ErrNotFound {
			return nil, types.ErrSessionNotFound
		}
		return nil, sErr
	}
	now := v.now().UnixMilli()
	if now >= session.ExpiresAt {
		return nil, types.ErrSessionExpired
	}

	// geofence: inclusive boundary, comparison on the unrounded distance
	distance := util.HaversineMeters(input.Latitude, input.Longitude, session.Latitude, session.Longitude)
	radius := session.RadiusMeters
	if radius <= 0 {
		radius = global.Conf.Rollcall.DefaultRadiusMeters
	}
	if radius <= 0 {
		radius = fallbackRadiusMeters
	}
	if distance > radius {
		return nil, types.ErrOutOfRange
	}

	deviceKey, kErr := v.keys.GetByUserID(userID)
	if kErr != nil {
		if kErr == types.ErrNotFound {
			return nil, types.ErrKeyNotRegistered
		}
		return nil, kErr
	}

	message := util.CanonicalProofMessage(input.Token, tsMillis, input.Latitude, input.Longitude)
	verified, sigErr := util.VerifyHex([]byte(message), input.Signature, deviceKey.PublicKey)
	if sigErr != nil {
		return nil, types.ErrSignatureInvalid
	}
	if !verified {
		return nil, types.ErrSignatureInvalid
	}

	sessionID := session.UnderstoreID
	if sessionID == "" {
		sessionID = session.ID
	}
	record := &types.AttendanceRecord{
		UserID:     userID,
		Method:     types.AttendanceMethodCryptoProof,
		Verified:   true,
		VerifiedAt: now,
		VerifiedBy: userID, // self-verified crypto proof
		Metadata: &types.ProofMetadata{
			Token:           input.Token,
			Timestamp:       input.Timestamp,
			TimestampMillis: tsMillis,
			Latitude:        input.Latitude,
			Longitude:       input.Longitude,
			DistanceMeters:  int64(math.Round(distance)),
			PublicKey:       deviceKey.PublicKey,
			DeviceID:        deviceKey.DeviceID,
			SessionID:       sessionID,
			Signature:       input.Signature,
		},
	}
	if iErr := v.records.Insert(record); iErr != nil {
		return nil, iErr
	}

	v.enqueueAudit(record)

	return record, nil
}

// validatePayload is purely structural: it runs before any store access to
// fail fast and avoid wasted I/O. Returns the parsed timestamp in UTC
// epoch milliseconds.
func (v *ProofVerifier) validatePayload(input *types.InputProof) (int64, error) {
	if input == nil || input.Token == "" || input.Signature == "" {
		return 0, types.ErrBadRequest
	}
	if math.IsNaN(input.Latitude) || math.IsInf(input.Latitude, 0) ||
		math.IsNaN(input.Longitude) || math.IsInf(input.Longitude, 0) {
		return 0, types.ErrBadRequest
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return 0, types.ErrBadRequest
	}
	tsMillis, tErr := util.ParseProofTimestamp(input.Timestamp)
	if tErr != nil {
		return 0, types.ErrBadRequest
	}
	return tsMillis, nil
}

// enqueueAudit hands the committed proof to the audit trail queue.
// Best effort: the record is already committed, so a queue failure is
// logged and consciously discarded.
func (v *ProofVerifier) enqueueAudit(record *types.AttendanceRecord) {
	if v.env == nil || v.env.TaskClient == nil {
		return
	}
	task, tErr := types.NewAuditTrailTask(&types.AuditTask{
		RecordID:  record.ID,
		UserID:    record.UserID,
		SessionID: record.Metadata.SessionID,
		Metadata:  record.Metadata,
		Created:   v.now().UnixMilli(),
	})
	if tErr != nil {
		level.Error(global.Logger).Log("msg", "failed to create audit task", "error", tErr)
		return
	}
	if _, qErr := v.env.TaskClient.Enqueue(task); qErr != nil {
		level.Error(global.Logger).Log("msg", "failed to enqueue audit task", "error", qErr)
	}
}

func outcomeLabel(err error) string {
	switch err {
	case nil:
		return "accepted"
	case types.ErrBadRequest:
		return "invalid_payload"
	case types.ErrSessionNotFound:
		return "invalid_session"
	case types.ErrSessionExpired:
		return "session_expired"
	case types.ErrOutOfRange:
		return "out_of_range"
	case types.ErrKeyNotRegistered:
		return "key_not_registered"
	case types.ErrSignatureInvalid:
		return "invalid_signature"
	default:
		return "internal_error"
	}
}
