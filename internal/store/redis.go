package store

import (
	"context"
	"encoding/json"
	"fmt"

	"deepchat/internal/models"
	"deepchat/internal/redis"
)

// Redis keeps each session as two JSON-encoded Redis lists under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps client and deletes every key under prefix so that state starts empty,
// as it does for the memory backend.
func NewRedis(ctx context.Context, client *redis.Client, prefix string) (*Redis, error) {
	r := &Redis{client: client, prefix: prefix}
	if _, err := client.DelPattern(ctx, prefix+":*"); err != nil {
		return nil, fmt.Errorf("reset redis store: %w", err)
	}
	return r, nil
}

func (r *Redis) sessionKey(sessionID string) string {
	return r.prefix + ":session:" + sessionID
}

func (r *Redis) filesKey(sessionID string) string {
	return r.prefix + ":files:" + sessionID
}

func (r *Redis) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	raw, err := r.client.LRange(ctx, r.sessionKey(sessionID))
	if err != nil {
		return nil, errStore("load history", sessionID, err)
	}
	turns := make([]models.Turn, 0, len(raw))
	for _, item := range raw {
		var turn models.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, errStore("decode history", sessionID, err)
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (r *Redis) AppendTurns(ctx context.Context, sessionID string, turns ...models.Turn) error {
	values, err := encodeAll(turns)
	if err != nil {
		return errStore("encode turns", sessionID, err)
	}
	if err := r.client.RPush(ctx, r.sessionKey(sessionID), values...); err != nil {
		return errStore("append turns", sessionID, err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.sessionKey(sessionID)); err != nil {
		return errStore("clear", sessionID, err)
	}
	return nil
}

func (r *Redis) Files(ctx context.Context, sessionID string) ([]models.UploadedFile, error) {
	raw, err := r.client.LRange(ctx, r.filesKey(sessionID))
	if err != nil {
		return nil, errStore("load files", sessionID, err)
	}
	files := make([]models.UploadedFile, 0, len(raw))
	for _, item := range raw {
		var f models.UploadedFile
		if err := json.Unmarshal([]byte(item), &f); err != nil {
			return nil, errStore("decode files", sessionID, err)
		}
		files = append(files, f)
	}
	return files, nil
}

func (r *Redis) AddFiles(ctx context.Context, sessionID string, files ...models.UploadedFile) error {
	values, err := encodeAll(files)
	if err != nil {
		return errStore("encode files", sessionID, err)
	}
	// a single RPUSH with every value is atomic
	if err := r.client.RPush(ctx, r.filesKey(sessionID), values...); err != nil {
		return errStore("add files", sessionID, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func encodeAll[T any](items []T) ([]interface{}, error) {
	values := make([]interface{}, 0, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, err
		}
		values = append(values, data)
	}
	return values, nil
}
