package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/rollcall/go-rollcall-server/types"
	"github.com/stretchr/testify/assert"
)

var url = "http://localhost:5689"

func InitMockDatabase(dbName string) (Repository, error) {
	httpmock.Activate()

	mr, mErr := httpmock.NewJsonResponder(201, types.OK{IsOK: true})
	if mErr != nil {
		return nil, mErr
	}
	httpmock.RegisterResponder("PUT", fmt.Sprintf("%s/%s", url, dbName), mr)
	httpmock.RegisterResponder("HEAD", fmt.Sprintf("%s/%s", url, dbName), mr)
	httpmock.RegisterResponder("GET", fmt.Sprintf("%s/%s", url, dbName), mr)

	db, err := NewCouchDBRepository(url, dbName, "test", "test", true)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func deactivateMock() {
	httpmock.DeactivateAndReset()
}

func TestInitNewDatabase(t *testing.T) {
	db, err := InitMockDatabase(Session)
	defer deactivateMock()
	if err != nil {
		t.Fatal(err)
	}
	if db == nil {
		t.Fatal("db is nil")
	}
	assert.Equal(t, Session, db.GetDBName())
}

func TestSaveAndGetByID(t *testing.T) {
	db, _ := InitMockDatabase(Session)
	defer deactivateMock()

	session := &types.AttendanceSession{
		Token:        "abc123",
		Latitude:     14.599512,
		Longitude:    120.984222,
		RadiusMeters: 50,
		ExpiresAt:    1704096600000,
	}
	mk, _ := httpmock.NewJsonResponder(201, types.OK{IsOK: true})
	httpmock.RegisterResponder("PUT", fmt.Sprintf("%s/%s/%s", url, Session, "s1"), mk)

	mk, _ = httpmock.NewJsonResponder(200, session)
	httpmock.RegisterResponder("GET", fmt.Sprintf("%s/%s/%s", url, Session, "s1"), mk)

	if err := db.Save(context.Background(), "s1", session); err != nil {
		t.Fatal(err)
	}
	res, err := db.GetByID(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	var loaded types.AttendanceSession
	if mErr := MapToObject(res, &loaded); mErr != nil {
		t.Fatal(mErr)
	}
	assert.Equal(t, "abc123", loaded.Token)
	assert.Equal(t, float64(50), loaded.RadiusMeters)
}

func TestGetByIDNotFound(t *testing.T) {
	db, _ := InitMockDatabase(DeviceKey)
	defer deactivateMock()

	mk := httpmock.NewStringResponder(404, `{"error":"not_found","reason":"missing"}`)
	httpmock.RegisterResponder("GET", fmt.Sprintf("%s/%s/%s", url, DeviceKey, "missing"), mk)

	_, err := db.GetByID(context.Background(), "missing")
	assert.Equal(t, types.ErrNotFound, err)
}

func TestChooseDB(t *testing.T) {
	db, err := InitMockDatabase(Attendance)
	defer deactivateMock()
	if err != nil {
		t.Fatal(err)
	}
	selector := NewCouchDBSelector()
	selector.AddDB(db)

	chosen, cErr := selector.ChooseDB(Attendance)
	if cErr != nil {
		t.Fatal(cErr)
	}
	assert.Equal(t, Attendance, chosen.GetDBName())

	_, missingErr := selector.ChooseDB(Nonce)
	assert.Equal(t, types.ErrNotFound, missingErr)
}
