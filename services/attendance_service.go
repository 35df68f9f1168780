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
)

// AttendanceService owns the attendance_records database
type AttendanceService struct {
	attendanceRepo repository.Repository
}

func NewAttendanceService(dbSelector repository.DBSelector) *AttendanceService {
	attendanceRepo, err := dbSelector.ChooseDB(repository.Attendance)
	if err != nil {
		panic(err)
	}
	return &AttendanceService{attendanceRepo: attendanceRepo}
}

// Insert writes one attendance record under a fresh id. No deduplication:
// resubmission policy is owned by the listing/scheduling flows, not here.
func (s *AttendanceService) Insert(record *types.AttendanceRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if err := s.attendanceRepo.Save(ctx, record.ID, record); err != nil {
		global.Logger.Log("AttendanceService.Insert", "failed to save", err.Error())
		return err
	}
	return nil
}

// ListByUser returns the user's records newest-first
func (s *AttendanceService) ListByUser(userID string, limit int) ([]*types.AttendanceRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	client := s.attendanceRepo.GetClient().(*resty.Client).R().
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]interface{}{
			"selector": map[string]interface{}{
				"userId": map[string]interface{}{
					"$eq": userID,
				},
			},
			"sort":  []map[string]interface{}{{"userId": "desc"}, {"verifiedAt": "desc"}},
			"limit": limit,
		})
	resp, err := client.Post(fmt.Sprintf("%s/_find", repository.Attendance))
	if err != nil {
		level.Error(global.Logger).Log("msg", "failed to list attendance", "error", err)
		return nil, err
	}
	if resp.IsError() {
		level.Error(global.Logger).Log("msg", "failed to list attendance", "error", resp.Status())
		return nil, types.ErrInternal
	}

	var result struct {
		Docs []*types.AttendanceRecord `json:"docs"`
	}
	if uErr := json.Unmarshal(resp.Body(), &result); uErr != nil {
		return nil, uErr
	}
	return result.Docs, nil
}
