package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rollcall/go-rollcall-server/global"
	"github.com/rollcall/go-rollcall-server/repository"
	"github.com/rollcall/go-rollcall-server/types"
)

const deviceKeyCachePrefix = "devicekey:"

// DeviceKeyService stores the registered signing key of each user's device.
// At most one key per user: re-registration overwrites the existing one.
type DeviceKeyService struct {
	deviceKeyRepo repository.Repository
	env           *types.Environment
}

func NewDeviceKeyService(dbSelector repository.DBSelector, env *types.Environment) *DeviceKeyService {
	deviceKeyRepo, err := dbSelector.ChooseDB(repository.DeviceKey)
	if err != nil {
		panic(err)
	}
	return &DeviceKeyService{deviceKeyRepo: deviceKeyRepo, env: env}
}

func (s *DeviceKeyService) getFromCache(userID string) *types.DeviceKey {
	if s.env == nil || s.env.RedisClient == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	val, cErr := s.env.RedisClient.Get(ctx, deviceKeyCachePrefix+userID).Result()
	if cErr != nil {
		if cErr != redis.Nil {
			global.Logger.Log("CacheError", "DeviceKeyService.Get", cErr.Error())
		}
		return nil
	}
	var deviceKey types.DeviceKey
	if err := json.Unmarshal([]byte(val), &deviceKey); err != nil {
		global.Logger.Log("CacheError", "DeviceKeyService.Get Unmarshal error", err.Error())
		return nil
	}
	if deviceKey.PublicKey != "" {
		return &deviceKey
	}
	return nil
}

func (s *DeviceKeyService) saveToCache(userID string, deviceKey *types.DeviceKey) {
	if s.env == nil || s.env.RedisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	keyString, mErr := json.Marshal(deviceKey)
	if mErr != nil {
		global.Logger.Log("CacheError", "DeviceKeyService.Set", "failed to marshal", mErr.Error())
		return
	}
	if cErr := s.env.RedisClient.Set(ctx, deviceKeyCachePrefix+userID, keyString, 0).Err(); cErr != nil {
		global.Logger.Log("CacheError", "DeviceKeyService.Set", "failed to store to cache", cErr.Error())
	}
}

func (s *DeviceKeyService) deleteFromCache(userID string) {
	if s.env == nil || s.env.RedisClient == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cErr := s.env.RedisClient.Del(ctx, deviceKeyCachePrefix+userID).Err(); cErr != nil {
		global.Logger.Log("CacheError", "DeviceKeyService.Delete", cErr.Error())
	}
}

// GetByUserID returns the user's currently registered device key
// (user id is the document _id)
func (s *DeviceKeyService) GetByUserID(userID string) (*types.DeviceKey, error) {
	if cached := s.getFromCache(userID); cached != nil {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	response, err := s.deviceKeyRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	var existing types.DeviceKey
	mErr := repository.MapToObject(response, &existing)
	if mErr != nil {
		return nil, mErr
	}

	s.saveToCache(userID, &existing)
	return &existing, nil
}

// Upsert overwrites the user's registered key. RegisteredAt is preserved
// only when the same public key is re-submitted from the same device.
func (s *DeviceKeyService) Upsert(userID string, input *types.InputDeviceKey) (*types.DeviceKey, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC().UnixMilli()
	deviceKey := &types.DeviceKey{
		UserID:       userID,
		PublicKey:    input.PublicKey,
		DeviceID:     input.DeviceID,
		RegisteredAt: now,
		Updated:      now,
	}

	existing, eErr := s.GetByUserID(userID)
	if eErr != nil && eErr != types.ErrNotFound {
		return nil, eErr
	}
	if existing != nil {
		deviceKey.BaseDocument = existing.BaseDocument
		if existing.PublicKey == input.PublicKey && existing.DeviceID == input.DeviceID {
			deviceKey.RegisteredAt = existing.RegisteredAt
		}
	}

	if err := s.deviceKeyRepo.Save(ctx, userID, deviceKey); err != nil {
		global.Logger.Log("DeviceKeyService.Upsert", "failed to save", err.Error())
		return nil, err
	}
	// refreshed on the next Get
	s.deleteFromCache(userID)

	return deviceKey, nil
}
