package repository

import (
	"fmt"

	"github.com/go-resty/resty/v2"
)

// CreateSessionTokenIndex creates an index on the attendance_sessions
// database for lookups by token
func CreateSessionTokenIndex(sessionRepo Repository) error {
	tokenIndex := map[string]interface{}{
		"index": map[string]interface{}{
			"fields": []string{"token"},
		},
		"name": "session-token-index",
		"type": "json",
		"ddoc": "session-token-index",
	}
	c := sessionRepo.GetClient().(*resty.Client)
	resp, rErr := c.R().SetBody(tokenIndex).Post(fmt.Sprintf("%s/%s", Session, "_index"))
	if rErr != nil {
		return rErr
	}
	if resp.IsError() {
		return handleError(resp)
	}
	return nil
}

// CreateAttendanceUserIndex creates an index on the attendance_records
// database for listing a user's records newest-first
func CreateAttendanceUserIndex(attendanceRepo Repository) error {
	userIndex := map[string]interface{}{
		"index": map[string]interface{}{
			"fields": []map[string]interface{}{
				{"userId": "desc"},
				{"verifiedAt": "desc"},
			},
		},
		"name": "attendance-user-verifiedat-index",
		"ddoc": "attendance-user-verifiedat-index",
		"type": "json",
	}
	c := attendanceRepo.GetClient().(*resty.Client)
	resp, rErr := c.R().SetBody(userIndex).Post(fmt.Sprintf("%s/%s", Attendance, "_index"))
	if rErr != nil {
		return rErr
	}
	if resp.IsError() {
		return handleError(resp)
	}
	return nil
}
