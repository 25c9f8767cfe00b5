package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glowtrack/glowtrack-api/internal/models"
	appErrors "github.com/glowtrack/glowtrack-api/pkg/errors"
)

type photoSaverStub struct {
	mu       sync.Mutex
	photo    *models.Photo
	saveErr  error
	limited  bool
	limitErr error
	deleted  []string
	block    chan struct{}
	entered  chan struct{}
}

func (s *photoSaverStub) SavePhoto(ctx context.Context, _ io.Reader, userID string) (*models.Photo, error) {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	photo := *s.photo
	photo.UserID = userID
	return &photo, nil
}

func (s *photoSaverStub) DeletePhoto(photo *models.Photo) error {
	s.mu.Lock()
	s.deleted = append(s.deleted, photo.ID)
	s.mu.Unlock()
	return nil
}

func (s *photoSaverStub) WithinLimit() (bool, error) {
	if s.limitErr != nil {
		return false, s.limitErr
	}
	return !s.limited, nil
}

func newCaptureFixture(saver *photoSaverStub) (*CaptureService, *PhotoService, *AchievementService) {
	photos := newTestPhotoService(newStateStoreStub(), nil)
	achievements := NewAchievementService(newStateStoreStub(), nil)
	capture := NewCaptureService(saver, photos, achievements, nil, nil, time.Second)
	return capture, photos, achievements
}

func TestCaptureRegistersPhotoAndUnlocksFirst(t *testing.T) {
	saved := makePhoto("p1", "", time.Now(), 4096)
	saver := &photoSaverStub{photo: &saved}
	capture, photos, _ := newCaptureFixture(saver)

	result, err := capture.Capture(context.Background(), "u1", bytes.NewReader([]byte("jpeg")))
	require.NoError(t, err)

	assert.Equal(t, "p1", result.Photo.ID)
	assert.Equal(t, "u1", result.Photo.UserID)
	assert.Contains(t, achievementIDs(result.UnlockedAchievements), "first_photo")

	_, found := photos.Get("p1")
	assert.True(t, found)
	assert.Equal(t, int64(4096), photos.TotalStorageUsed())
}

func TestCaptureRejectedWhenStorageFull(t *testing.T) {
	saved := makePhoto("p1", "", time.Now(), 4096)
	saver := &photoSaverStub{photo: &saved, limited: true}
	capture, photos, _ := newCaptureFixture(saver)

	_, err := capture.Capture(context.Background(), "u1", bytes.NewReader(nil))
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrStorageFull.Code, appErr.Code)
	assert.Equal(t, 0, photos.Stats().FileCount)
}

func TestCaptureSaveFailureLeavesStoreUntouched(t *testing.T) {
	saver := &photoSaverStub{saveErr: errors.New("decode failed")}
	capture, photos, _ := newCaptureFixture(saver)

	_, err := capture.Capture(context.Background(), "u1", bytes.NewReader(nil))
	require.Error(t, err)
	assert.Equal(t, 0, photos.Stats().FileCount)
}

func TestCaptureRollsBackArtifactsOnRegistrationFailure(t *testing.T) {
	// An empty id fails store registration after artifacts were written.
	saved := makePhoto("", "", time.Now(), 4096)
	saver := &photoSaverStub{photo: &saved}
	capture, photos, _ := newCaptureFixture(saver)

	_, err := capture.Capture(context.Background(), "u1", bytes.NewReader(nil))
	require.Error(t, err)

	saver.mu.Lock()
	deleted := len(saver.deleted)
	saver.mu.Unlock()
	assert.Equal(t, 1, deleted)
	assert.Equal(t, 0, photos.Stats().FileCount)
}

func TestCaptureRejectsConcurrentAttemptForSameUser(t *testing.T) {
	saved := makePhoto("p1", "", time.Now(), 4096)
	saver := &photoSaverStub{photo: &saved, block: make(chan struct{}), entered: make(chan struct{}, 1)}
	capture, _, _ := newCaptureFixture(saver)

	done := make(chan error, 1)
	go func() {
		_, err := capture.Capture(context.Background(), "u1", bytes.NewReader(nil))
		done <- err
	}()

	// Wait until the first capture holds the user's slot.
	<-saver.entered
	_, err := capture.Capture(context.Background(), "u1", bytes.NewReader(nil))
	assert.True(t, errors.Is(err, appErrors.ErrCaptureInFlight))

	close(saver.block)
	require.NoError(t, <-done)

	// The slot frees up once the first capture completes.
	saver.block = nil
	saver.entered = nil
	_, err = capture.Capture(context.Background(), "u1", bytes.NewReader(nil))
	require.NoError(t, err)
}

func TestCaptureTimesOut(t *testing.T) {
	saved := makePhoto("p1", "", time.Now(), 4096)
	saver := &photoSaverStub{photo: &saved, block: make(chan struct{})}
	photos := newTestPhotoService(newStateStoreStub(), nil)
	capture := NewCaptureService(saver, photos, nil, nil, nil, 20*time.Millisecond)

	_, err := capture.Capture(context.Background(), "u1", bytes.NewReader(nil))
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrCaptureTimeout.Code, appErr.Code)
}
