package main

import (
	"errors"
	"strconv"

	"github.com/rollcall/go-rollcall-server/global"
	"github.com/rollcall/go-rollcall-server/repository"
	"github.com/rollcall/go-rollcall-server/services"
	"github.com/rollcall/go-rollcall-server/types"
)

// Configure DB Repositories and create DB Selector
func ConfigDBSelector() repository.DBSelector {
	// configure Repository (couchDB)
	repoUrl := global.Conf.CouchDB.Scheme + "://" + global.Conf.CouchDB.Host + ":" + strconv.Itoa(global.Conf.CouchDB.Port)
	nonceRepo, nonceRepoErr := repository.NewCouchDBRepository(repoUrl, repository.Nonce, global.Conf.CouchDB.Username, global.Conf.CouchDB.Password, false)
	sessionRepo, sessionRepoErr := repository.NewCouchDBRepository(repoUrl, repository.Session, global.Conf.CouchDB.Username, global.Conf.CouchDB.Password, false)
	deviceKeyRepo, deviceKeyRepoErr := repository.NewCouchDBRepository(repoUrl, repository.DeviceKey, global.Conf.CouchDB.Username, global.Conf.CouchDB.Password, false)
	attendanceRepo, attendanceRepoErr := repository.NewCouchDBRepository(repoUrl, repository.Attendance, global.Conf.CouchDB.Username, global.Conf.CouchDB.Password, false)
	auditTrailRepo, auditTrailRepoErr := repository.NewCouchDBRepository(repoUrl, repository.AuditTrail, global.Conf.CouchDB.Username, global.Conf.CouchDB.Password, false)

	repoErr := errors.Join(nonceRepoErr, sessionRepoErr, deviceKeyRepoErr, attendanceRepoErr, auditTrailRepoErr)
	if repoErr != nil {
		global.Logger.Log("error", "Failed to create repositories", "error", repoErr.Error())
		panic(repoErr)
	}

	// REPOSITORY definitions
	dbSelector := repository.NewCouchDBSelector()
	dbSelector.AddDB(nonceRepo)
	dbSelector.AddDB(sessionRepo)
	dbSelector.AddDB(deviceKeyRepo)
	dbSelector.AddDB(attendanceRepo)
	dbSelector.AddDB(auditTrailRepo)

	return dbSelector
}

func ConfigDBIndexing(dbSelector *repository.CouchDBSelector, environment *types.Environment) {
	// CREATE REQUIRED SERVICES
	nonceService := services.NewNonceService(dbSelector)
	sessionService := services.NewSessionService(dbSelector)

	// Create INDEXES
	sessionRepo, sErr := dbSelector.ChooseDB(repository.Session)
	if sErr != nil {
		panic(sErr)
	}
	attendanceRepo, aErr := dbSelector.ChooseDB(repository.Attendance)
	if aErr != nil {
		panic(aErr)
	}
	indexErr := errors.Join(
		repository.CreateSessionTokenIndex(sessionRepo),
		repository.CreateAttendanceUserIndex(attendanceRepo),
	)
	if indexErr != nil {
		global.Logger.Log("error", "Failed to create indexes", "error", indexErr.Error())
		panic(indexErr)
	}

	// Create DESIGN DOCUMENTS (views behind the purge jobs)
	designErr := errors.Join(
		repository.CreateDesign_DeleteExpiredRecordsByCreatedDate(repository.Nonce, "nonce", "old"),
		repository.CreateDesign_ExpiredSessions(repository.Session, "session", "expired"),
	)
	if designErr != nil {
		global.Logger.Log("error", "Failed to create design documents", "error", designErr.Error())
		panic(designErr)
	}

	// PURGE JOBS
	environment.Cron.AddFunc("@every 5m", nonceService.RemoveExpiredNonces)
	environment.Cron.AddFunc("@every 5m", sessionService.RemoveExpiredSessions)
	environment.Cron.Start()
}
