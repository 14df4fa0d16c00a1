package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptcraft/progress-engine/internal/domain/achievement"
	"github.com/promptcraft/progress-engine/internal/domain/content"
	"github.com/promptcraft/progress-engine/internal/domain/ledger"
	"github.com/promptcraft/progress-engine/internal/domain/shared"
	"github.com/promptcraft/progress-engine/pkg/logger"
)

type fakeLedgerRepo struct {
	appended []*ledger.ActivityEvent
}

func (f *fakeLedgerRepo) Append(ctx context.Context, event *ledger.ActivityEvent) error {
	event.Seq = int64(len(f.appended) + 1)
	f.appended = append(f.appended, event)
	return nil
}

func (f *fakeLedgerRepo) ListRecent(ctx context.Context, userID string, limit int) ([]*ledger.ActivityEvent, error) {
	return f.appended, nil
}

func (f *fakeLedgerRepo) ActivityDates(ctx context.Context, userID string, windowDays int) ([]time.Time, error) {
	var dates []time.Time
	for _, e := range f.appended {
		if e.Kind.CountsAsActivity() {
			dates = append(dates, e.RecordedAt)
		}
	}
	return dates, nil
}

type fakeEvaluator struct {
	defs  []achievement.Definition
	calls int
}

func (f *fakeEvaluator) EvaluateAndGrant(ctx context.Context, userID string) ([]achievement.Grant, []achievement.Definition, error) {
	f.calls++
	grants := make([]achievement.Grant, len(f.defs))
	for i, def := range f.defs {
		grants[i] = achievement.Grant{UserID: userID, AchievementID: def.ID}
	}
	return grants, f.defs, nil
}

func TestUpdateProgress_CompletionTriggersEvaluation(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeContentRepo{
		progress: &content.UserProgress{
			UserID: "user-1", LessonID: 3, Progress: 100,
			StartedAt: now.Add(-time.Hour), CompletedAt: &now, UpdatedAt: now,
		},
		justCompleted: true,
	}
	ledgerRepo := &fakeLedgerRepo{}
	evaluator := &fakeEvaluator{defs: []achievement.Definition{{ID: 1, Name: "First Steps", Points: 10}}}
	bus := &fakeBus{}

	handler := NewUpdateProgressHandler(repo, ledgerRepo, evaluator, bus, logger.Default())
	result, err := handler.Handle(context.Background(), UpdateProgressCommand{
		UserID: "user-1", LessonID: 3, Progress: 100,
	})

	require.NoError(t, err)
	assert.True(t, result.JustCompleted)
	require.Len(t, result.NewAchievements, 1)
	assert.Equal(t, 1, evaluator.calls)

	require.Len(t, ledgerRepo.appended, 1)
	assert.Equal(t, ledger.KindLessonCompleted, ledgerRepo.appended[0].Kind)

	assert.Equal(t, []shared.EventType{
		shared.EventLessonProgress,
		shared.EventAchievementEarned,
	}, bus.types())
}

func TestUpdateProgress_PartialProgressSkipsEvaluation(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeContentRepo{
		progress: &content.UserProgress{
			UserID: "user-1", LessonID: 3, Progress: 40,
			StartedAt: now.Add(-time.Hour), UpdatedAt: now,
		},
	}
	ledgerRepo := &fakeLedgerRepo{}
	evaluator := &fakeEvaluator{}

	handler := NewUpdateProgressHandler(repo, ledgerRepo, evaluator, &fakeBus{}, logger.Default())
	result, err := handler.Handle(context.Background(), UpdateProgressCommand{
		UserID: "user-1", LessonID: 3, Progress: 40,
	})

	require.NoError(t, err)
	assert.False(t, result.JustCompleted)
	assert.Equal(t, 0, evaluator.calls)
	require.Len(t, ledgerRepo.appended, 1)
	assert.Equal(t, ledger.KindLessonProgress, ledgerRepo.appended[0].Kind)
}

func TestUpdateProgress_Validation(t *testing.T) {
	handler := NewUpdateProgressHandler(&fakeContentRepo{}, &fakeLedgerRepo{}, nil, nil, logger.Default())

	_, err := handler.Handle(context.Background(), UpdateProgressCommand{LessonID: 1, Progress: 10})
	assert.ErrorIs(t, err, shared.ErrEmptyUserID)

	_, err = handler.Handle(context.Background(), UpdateProgressCommand{UserID: "u", LessonID: 1, Progress: 101})
	assert.ErrorIs(t, err, shared.ErrInvariantViolation)
}

func TestToggleBookmark_AddAndRemove(t *testing.T) {
	repo := &fakeContentRepo{}
	ledgerRepo := &fakeLedgerRepo{}
	evaluator := &fakeEvaluator{}
	bus := &fakeBus{}

	handler := NewToggleBookmarkHandler(repo, ledgerRepo, evaluator, bus, logger.Default())

	result, err := handler.Handle(context.Background(), ToggleBookmarkCommand{UserID: "user-1", LessonID: 5})
	require.NoError(t, err)
	assert.True(t, result.Bookmarked)
	assert.Equal(t, 1, evaluator.calls)

	result, err = handler.Handle(context.Background(), ToggleBookmarkCommand{UserID: "user-1", LessonID: 5})
	require.NoError(t, err)
	assert.False(t, result.Bookmarked)
	// Removals cannot satisfy a threshold; no re-evaluation.
	assert.Equal(t, 1, evaluator.calls)

	require.Len(t, ledgerRepo.appended, 2)
	assert.Equal(t, ledger.KindBookmarkAdded, ledgerRepo.appended[0].Kind)
	assert.Equal(t, ledger.KindBookmarkRemoved, ledgerRepo.appended[1].Kind)
}

func TestRecordActivity_PreviewTriggersEvaluation(t *testing.T) {
	ledgerRepo := &fakeLedgerRepo{}
	evaluator := &fakeEvaluator{}

	handler := NewRecordActivityHandler(ledgerRepo, evaluator, logger.Default())

	_, err := handler.Handle(context.Background(), RecordActivityCommand{
		UserID: "user-1", Kind: ledger.KindPreviewGenerated, SubjectID: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, evaluator.calls)

	_, err = handler.Handle(context.Background(), RecordActivityCommand{
		UserID: "user-1", Kind: ledger.KindEngagementPing,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, evaluator.calls)

	_, err = handler.Handle(context.Background(), RecordActivityCommand{
		UserID: "user-1", Kind: ledger.EventKind("bogus"),
	})
	assert.ErrorIs(t, err, shared.ErrInvariantViolation)
}

func TestRecordActivity_RejectsKindsWithTheirOwnWriteChain(t *testing.T) {
	ledgerRepo := &fakeLedgerRepo{}
	handler := NewRecordActivityHandler(ledgerRepo, &fakeEvaluator{}, logger.Default())

	// Completions, submissions and bookmark toggles feed streak days and
	// achievement facts; recording them directly would inflate both.
	for _, kind := range []ledger.EventKind{
		ledger.KindLessonStarted,
		ledger.KindLessonProgress,
		ledger.KindLessonCompleted,
		ledger.KindPracticeSubmitted,
		ledger.KindBookmarkAdded,
		ledger.KindBookmarkRemoved,
	} {
		_, err := handler.Handle(context.Background(), RecordActivityCommand{
			UserID: "user-1", Kind: kind,
		})
		assert.ErrorIs(t, err, shared.ErrInvariantViolation, string(kind))
	}

	assert.Empty(t, ledgerRepo.appended)
}
