package services

import (
	"testing"

	"github.com/ahmedhussien1pro/cyberlabs-backend-sub000/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedPath(t *testing.T, db *gorm.DB, modules []models.PathModule) *models.LearningPath {
	t.Helper()
	path := &models.LearningPath{
		ID:     uuid.NewString(),
		Slug:   "path-" + uuid.NewString()[:8],
		Title:  "Test Path",
		Status: models.ContentStatusPublished,
	}
	require.NoError(t, db.Create(path).Error)
	for i := range modules {
		modules[i].ID = uuid.NewString()
		modules[i].PathID = path.ID
		modules[i].Position = i
		require.NoError(t, db.Create(&modules[i]).Error)
	}
	return path
}

func TestEnrollIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	course, _ := seedCourse(t, db, 3)

	first, err := progress.Enroll("l1", course.ID)
	require.NoError(t, err)
	assert.False(t, first.AlreadyEnrolled)

	second, err := progress.Enroll("l1", course.ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyEnrolled)

	// Only the fresh enrollment bumps the counter
	var got models.Course
	require.NoError(t, db.First(&got, "id = ?", course.ID).Error)
	assert.EqualValues(t, 1, got.EnrollmentCount)

	var rows int64
	db.Model(&models.CourseEnrollment{}).Where("course_id = ?", course.ID).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestEnrollUnknownCourse(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	_, err := progress.Enroll("l1", uuid.NewString())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteLessonRequiresEnrollment(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	course, lessons := seedCourse(t, db, 2)

	_, err := progress.CompleteLesson("l1", course.ID, lessons[0].ID)
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestCompleteLessonRejectsForeignLesson(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	course, _ := seedCourse(t, db, 2)
	other, otherLessons := seedCourse(t, db, 1)
	_ = other

	_, err := progress.Enroll("l1", course.ID)
	require.NoError(t, err)

	_, err = progress.CompleteLesson("l1", course.ID, otherLessons[0].ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteLessonProgression(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	seedLearner(t, db, "l1")
	course, lessons := seedCourse(t, db, 3)

	_, err := progress.Enroll("l1", course.ID)
	require.NoError(t, err)

	state, err := progress.CompleteLesson("l1", course.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 33, state.Progress)
	assert.False(t, state.IsCompleted)

	state, err = progress.CompleteLesson("l1", course.ID, lessons[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 67, state.Progress)
	assert.False(t, state.IsCompleted)

	state, err = progress.CompleteLesson("l1", course.ID, lessons[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 100, state.Progress)
	assert.True(t, state.IsCompleted)
	require.NotNil(t, state.CompletedAt)

	var learner models.Learner
	require.NoError(t, db.Where("external_user_id = ?", "l1").First(&learner).Error)
	assert.Equal(t, int64(3), learner.LessonsCompleted)
	assert.Equal(t, int64(1), learner.CoursesCompleted)
}

func TestCompleteLessonIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	seedLearner(t, db, "l1")
	course, lessons := seedCourse(t, db, 2)

	_, err := progress.Enroll("l1", course.ID)
	require.NoError(t, err)

	first, err := progress.CompleteLesson("l1", course.ID, lessons[0].ID)
	require.NoError(t, err)
	second, err := progress.CompleteLesson("l1", course.ID, lessons[0].ID)
	require.NoError(t, err)
	assert.Equal(t, first.Progress, second.Progress)

	var rows int64
	db.Model(&models.LessonCompletion{}).Where("lesson_id = ?", lessons[0].ID).Count(&rows)
	assert.Equal(t, int64(1), rows)

	// The repeat did not double-count the learner's stats
	var learner models.Learner
	require.NoError(t, db.Where("external_user_id = ?", "l1").First(&learner).Error)
	assert.Equal(t, int64(1), learner.LessonsCompleted)
}

func TestCompletionStickyWhenLessonsAddedLater(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	course, lessons := seedCourse(t, db, 1)

	_, err := progress.Enroll("l1", course.ID)
	require.NoError(t, err)
	state, err := progress.CompleteLesson("l1", course.ID, lessons[0].ID)
	require.NoError(t, err)
	require.True(t, state.IsCompleted)
	completedAt := *state.CompletedAt

	// A lesson added after completion lowers the percentage but never
	// un-completes the course, and the original timestamp survives.
	extra := models.Lesson{ID: uuid.NewString(), CourseID: course.ID, Title: "Added later", Position: 1}
	require.NoError(t, db.Create(&extra).Error)

	state, err = progress.CompleteLesson("l1", course.ID, extra.ID)
	require.NoError(t, err)
	assert.True(t, state.IsCompleted)
	assert.Equal(t, 100, state.Progress)
	require.NotNil(t, state.CompletedAt)
	assert.Equal(t, completedAt.Unix(), state.CompletedAt.Unix())
}

func TestZeroLessonCourseNeverAutoCompletes(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	course, _ := seedCourse(t, db, 0)

	state, err := progress.Enroll("l1", course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Progress)
	assert.False(t, state.IsCompleted)
}

func TestSyncPathProgressMixedModules(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	ledger := NewLedgerService(db, nil)
	eval := NewSubmissionService(db, ledger)

	course, lessons := seedCourse(t, db, 1)
	ch := seedChallenge(t, db, &models.Challenge{
		ExpectedAnswer: "FLAG{alpha}",
		BasePoints:     100,
		BaseXP:         50,
	})
	path := seedPath(t, db, []models.PathModule{
		{Kind: models.ModuleKindCourse, CourseID: &course.ID},
		{Kind: models.ModuleKindChallenge, ChallengeID: &ch.ID},
	})

	_, err := progress.EnrollPath("l1", path.ID)
	require.NoError(t, err)

	state, err := progress.SyncPathProgress("l1", path.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, state.Progress)

	// Finish the course module: 1 of 2 → 50%
	_, err = progress.Enroll("l1", course.ID)
	require.NoError(t, err)
	_, err = progress.CompleteLesson("l1", course.ID, lessons[0].ID)
	require.NoError(t, err)

	state, err = progress.SyncPathProgress("l1", path.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, state.Progress)
	assert.False(t, state.IsCompleted)

	// Solve the challenge module: 2 of 2 → complete
	_, err = eval.Evaluate("l1", ch.ID, "FLAG{alpha}")
	require.NoError(t, err)

	state, err = progress.SyncPathProgress("l1", path.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, state.Progress)
	assert.True(t, state.IsCompleted)
	require.NotNil(t, state.CompletedAt)
	firstCompletion := *state.CompletedAt

	// Re-syncing keeps the original completion timestamp
	state, err = progress.SyncPathProgress("l1", path.ID)
	require.NoError(t, err)
	require.NotNil(t, state.CompletedAt)
	assert.Equal(t, firstCompletion.Unix(), state.CompletedAt.Unix())
}

func TestSyncPathProgressRequiresEnrollment(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	path := seedPath(t, db, nil)

	_, err := progress.SyncPathProgress("l1", path.ID)
	require.ErrorIs(t, err, ErrNotEnrolled)
}

func TestEnrollPathIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	progress := NewProgressService(db)
	path := seedPath(t, db, nil)

	_, err := progress.EnrollPath("l1", path.ID)
	require.NoError(t, err)
	second, err := progress.EnrollPath("l1", path.ID)
	require.NoError(t, err)
	assert.True(t, second.AlreadyEnrolled)

	var rows int64
	db.Model(&models.LearningPathEnrollment{}).Where("path_id = ?", path.ID).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestPercentRounding(t *testing.T) {
	assert.Equal(t, 0, percent(0, 0))
	assert.Equal(t, 0, percent(0, 3))
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 67, percent(2, 3))
	assert.Equal(t, 100, percent(3, 3))
	assert.Equal(t, 17, percent(1, 6))
	assert.Equal(t, 50, percent(1, 2))
}
