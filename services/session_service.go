package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-kit/log/level"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rollcall/go-rollcall-server/global"
	"github.com/rollcall/go-rollcall-server/repository"
	"github.com/rollcall/go-rollcall-server/types"
	"github.com/rollcall/go-rollcall-server/util"
)

const defaultSessionTTLMinutes = 30

// SessionService owns the attendance_sessions database. Sessions are
// created by the admin flow and read by the proof verifier; expiry is the
// sole lifecycle transition.
type SessionService struct {
	sessionRepo repository.Repository
}

type sessionExpiredView struct {
	TotalRows int64               `json:"total_rows"`
	Offset    int64               `json:"offset"`
	Rows      []sessionExpiredRow `json:"rows"`
}

type sessionExpiredRow struct {
	ID        string `json:"id"`
	ExpiresAt int64  `json:"key"`   // key is the expiry timestamp
	Rev       string `json:"value"` // value is _rev which is needed for deletion
}

func NewSessionService(dbSelector repository.DBSelector) *SessionService {
	db, err := dbSelector.ChooseDB(repository.Session)
	if err != nil {
		panic(err)
	}
	return &SessionService{
		sessionRepo: db,
	}
}

// Create stores a new attendance session with a crypto-random token.
// Radius and duration fall back to configured defaults when unset.
func (ss *SessionService) Create(input *types.InputSession, createdBy string) (*types.AttendanceSession, error) {
	token, tErr := util.GenerateSessionToken()
	if tErr != nil {
		return nil, tErr
	}

	ttl := input.DurationMinutes
	if ttl <= 0 {
		ttl = global.Conf.Rollcall.SessionTTLMinutes
	}
	if ttl <= 0 {
		ttl = defaultSessionTTLMinutes
	}

	now := time.Now().UTC()
	session := &types.AttendanceSession{
		Token:        token,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		RadiusMeters: input.RadiusMeters,
		ExpiresAt:    now.Add(time.Duration(ttl) * time.Minute).UnixMilli(),
		Created:      now.UnixMilli(),
		CreatedBy:    createdBy,
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := ss.sessionRepo.Save(ctx, uuid.NewString(), session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetByToken finds the session for a submitted token (unique per session)
func (ss *SessionService) GetByToken(token string) (*types.AttendanceSession, error) {
	client := ss.sessionRepo.GetClient().(*resty.Client).R().
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"selector": map[string]interface{}{
				"token": map[string]interface{}{
					"$eq": token,
				},
			},
			"limit": 1,
		})
	resp, err := client.Post(fmt.Sprintf("%s/_find", repository.Session))
	if err != nil {
		level.Error(global.Logger).Log("msg", "failed to get session by token", "error", err)
		return nil, err
	}
	if resp.IsError() {
		if resp.StatusCode() == 404 {
			return nil, types.ErrNotFound
		}
		level.Error(global.Logger).Log("msg", "failed to get session by token", "error", resp.Status())
		return nil, types.ErrInternal
	}

	var result struct {
		Docs []*types.AttendanceSession `json:"docs"`
	}
	if uErr := json.Unmarshal(resp.Body(), &result); uErr != nil {
		level.Error(global.Logger).Log("msg", "failed to map session", "error", uErr)
		return nil, uErr
	}
	if len(result.Docs) == 0 {
		return nil, types.ErrNotFound
	}
	return result.Docs[0], nil
}

// RemoveExpiredSessions loops and bulk deletes sessions past their expiry
// until total_rows == 0 (cron job)
func (ss *SessionService) RemoveExpiredSessions() {
	totalRows := int64(1) // start value to enter the loop
	for totalRows > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()

		now := time.Now().UTC().UnixMilli()
		query := fmt.Sprintf("_design/session/_view/expired?descending=true&startkey=%d&limit=100", now)
		response, err := ss.sessionRepo.GetByID(ctx, query)
		if err != nil {
			global.Logger.Log("Error getting expired sessions", err.Error())
			return
		}

		var expired sessionExpiredView
		mErr := repository.MapToObject(response, &expired)
		if mErr != nil {
			global.Logger.Log("Error mapping expired sessions", mErr.Error())
			return
		}
		if len(expired.Rows) > 0 {
			bulkDelete := []types.BaseDocument{}
			for _, sessionDoc := range expired.Rows {
				deleteDoc := types.BaseDocument{
					UnderstoreID:  sessionDoc.ID,
					UnderscoreRev: sessionDoc.Rev,
					Deleted:       true,
				}
				bulkDelete = append(bulkDelete, deleteDoc)
			}
			bulkDeleteDocument := map[string]interface{}{
				"docs": bulkDelete,
			}
			_, bulkDeleteErr := ss.sessionRepo.Update(ctx, "/_bulk_docs", bulkDeleteDocument)
			if bulkDeleteErr != nil {
				level.Error(global.Logger).Log(bulkDeleteErr, "Error deleting expired sessions")
				return
			}
		}
		totalRows = int64(len(expired.Rows))
	}
}
