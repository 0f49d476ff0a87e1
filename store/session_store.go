package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/BatmanBruc/bat-bot-merger/types"
)

// State errors surfaced to handlers when an upload or a button press
// arrives out of order. The session is never mutated on rejection.
var (
	ErrNoVideo           = errors.New("video not received yet")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrAlreadyProcessing = errors.New("session already processing")
)

type SessionStore struct {
	client *RedisClient
	ttl    time.Duration
}

func NewSessionStore(redisClient *RedisClient, ttlHours int) *SessionStore {
	ttl := time.Duration(ttlHours) * time.Hour
	if ttlHours <= 0 {
		ttl = 24 * time.Hour
	}

	return &SessionStore{
		client: redisClient,
		ttl:    ttl,
	}
}

func (s *SessionStore) key(userID int64) string {
	return s.client.generateKey("merge_session", fmt.Sprintf("%d", userID))
}

// Get returns the user's session, or a fresh empty one when none is
// stored.
func (s *SessionStore) Get(userID int64) (*types.MergeSession, error) {
	var session types.MergeSession
	err := s.client.Get(s.key(userID), &session)
	if err == ErrNotFound {
		now := time.Now()
		return &types.MergeSession{
			UserID:    userID,
			Stage:     types.StageEmpty,
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) save(session *types.MergeSession) error {
	session.UpdatedAt = time.Now()
	return s.client.Set(s.key(session.UserID), session, s.ttl)
}

func (s *SessionStore) SetVideo(userID, chatID int64, fileID string, fileSize int64) (*types.MergeSession, error) {
	session, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if err := applyVideo(session, fileID, fileSize); err != nil {
		return nil, err
	}
	session.ChatID = chatID
	if err := s.save(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) SetAudio(userID int64, fileID string, fileSize int64) (*types.MergeSession, error) {
	session, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if err := applyAudio(session, fileID, fileSize); err != nil {
		return nil, err
	}
	if err := s.save(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) SetMode(userID int64, mode types.MergeMode) (*types.MergeSession, error) {
	session, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if err := applyMode(session, mode); err != nil {
		return nil, err
	}
	if err := s.save(session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) SetProcessing(userID int64) error {
	session, err := s.Get(userID)
	if err != nil {
		return err
	}
	if err := applyStart(session); err != nil {
		return err
	}
	return s.save(session)
}

// Clear is the only way back to the empty stage and must run on every
// pipeline exit.
func (s *SessionStore) Clear(userID int64) error {
	return s.client.Del(s.key(userID))
}

// Pure transition rules. Each apply* mutates the session only when the
// transition is legal; otherwise the session is left untouched and a
// typed error is returned.

func applyVideo(session *types.MergeSession, fileID string, fileSize int64) error {
	// A new video restarts the sequence: sending a video is always the
	// first step, whatever was accumulated before.
	switch session.Stage {
	case types.StageProcessing:
		return ErrAlreadyProcessing
	}
	session.Stage = types.StageVideoReceived
	session.VideoFileID = fileID
	session.VideoSize = fileSize
	session.AudioFileID = ""
	session.AudioSize = 0
	session.Mode = ""
	return nil
}

func applyAudio(session *types.MergeSession, fileID string, fileSize int64) error {
	switch session.Stage {
	case types.StageVideoReceived:
		session.Stage = types.StageAudioReceived
		session.AudioFileID = fileID
		session.AudioSize = fileSize
		return nil
	case types.StageProcessing:
		return ErrAlreadyProcessing
	case types.StageEmpty:
		return ErrNoVideo
	default:
		return ErrInvalidTransition
	}
}

func applyMode(session *types.MergeSession, mode types.MergeMode) error {
	switch session.Stage {
	case types.StageAudioReceived:
		session.Stage = types.StageModeSelected
		session.Mode = mode
		return nil
	case types.StageModeSelected, types.StageProcessing:
		// A repeated button press: the first click already committed a
		// mode and the merge is on its way.
		return ErrAlreadyProcessing
	default:
		return ErrInvalidTransition
	}
}

func applyStart(session *types.MergeSession) error {
	if session.Stage != types.StageModeSelected {
		return ErrInvalidTransition
	}
	session.Stage = types.StageProcessing
	return nil
}
