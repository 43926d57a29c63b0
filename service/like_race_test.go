package service

import (
	"Agora/dao"
	"Agora/models"
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errDuplicate = errors.New("Error 1062 (23000): Duplicate entry '42-1-post' for key 'uk_like_user_target'")

// newMockLikeService 用 sqlmock 精确控制唯一键竞争的时序
func newMockLikeService(t *testing.T) (*LikeService, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	svc := &LikeService{
		LikeDAO:    dao.NewLikeDAO(db),
		PostDAO:    dao.NewPostDAO(db),
		CommentDAO: dao.NewComment(db),
		ReplyDAO:   dao.NewReply(db),
		Publisher:  &recordingPublisher{},
	}
	return svc, mock
}

func expectPublishedPost(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT (.+) FROM `posts` (.+) FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "like_count"}).
			AddRow(1, 1, models.PostPublished, 1))
}

func expectNoFact(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("SELECT (.+) FROM `like_facts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "target_id", "target_kind"}))
}

func TestToggleLike_RaceRetriesOnce(t *testing.T) {
	svc, mock := newMockLikeService(t)

	// 第一次：未查到记录，插入时对方已抢先插入
	mock.ExpectBegin()
	expectPublishedPost(mock)
	expectNoFact(mock)
	mock.ExpectExec("INSERT INTO `like_facts`").WillReturnError(errDuplicate)
	mock.ExpectRollback()

	// 重试：按对方已生效的状态取消点赞
	mock.ExpectBegin()
	expectPublishedPost(mock)
	mock.ExpectQuery("SELECT (.+) FROM `like_facts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "target_id", "target_kind"}).
			AddRow(99, 42, 1, models.TargetPost))
	mock.ExpectExec("DELETE FROM `like_facts`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `posts` SET `like_count`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT like_count FROM `posts`").
		WillReturnRows(sqlmock.NewRows([]string{"like_count"}).AddRow(0))
	mock.ExpectCommit()

	res, err := svc.ToggleLike(context.Background(), 42, 1, models.TargetPost)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.EqualValues(t, 0, res.LikeCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLike_RaceTwiceIsConflict(t *testing.T) {
	svc, mock := newMockLikeService(t)

	for i := 0; i < 2; i++ {
		mock.ExpectBegin()
		expectPublishedPost(mock)
		expectNoFact(mock)
		mock.ExpectExec("INSERT INTO `like_facts`").WillReturnError(errDuplicate)
		mock.ExpectRollback()
	}

	_, err := svc.ToggleLike(context.Background(), 42, 1, models.TargetPost)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLike_RemoveRaceRetries(t *testing.T) {
	svc, mock := newMockLikeService(t)

	// 查到记录但删除时已被并发请求删掉
	mock.ExpectBegin()
	expectPublishedPost(mock)
	mock.ExpectQuery("SELECT (.+) FROM `like_facts`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "target_id", "target_kind"}).
			AddRow(99, 42, 1, models.TargetPost))
	mock.ExpectExec("DELETE FROM `like_facts`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	mock.ExpectBegin()
	expectPublishedPost(mock)
	expectNoFact(mock)
	mock.ExpectExec("INSERT INTO `like_facts`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `posts` SET `like_count`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT like_count FROM `posts`").
		WillReturnRows(sqlmock.NewRows([]string{"like_count"}).AddRow(1))
	mock.ExpectCommit()

	res, err := svc.ToggleLike(context.Background(), 42, 1, models.TargetPost)
	require.NoError(t, err)
	assert.True(t, res.Liked)
	assert.EqualValues(t, 1, res.LikeCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLike_CounterFailureRollsBack(t *testing.T) {
	svc, mock := newMockLikeService(t)
	dbErr := errors.New("lock wait timeout exceeded")

	mock.ExpectBegin()
	expectPublishedPost(mock)
	expectNoFact(mock)
	mock.ExpectExec("INSERT INTO `like_facts`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `posts` SET `like_count`").WillReturnError(dbErr)
	mock.ExpectRollback()

	_, err := svc.ToggleLike(context.Background(), 42, 1, models.TargetPost)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.False(t, IsDomainError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleLike_TargetGoneRollsBack(t *testing.T) {
	svc, mock := newMockLikeService(t)

	// 插入点赞记录后文章已不存在，计数没有命中行
	mock.ExpectBegin()
	expectPublishedPost(mock)
	expectNoFact(mock)
	mock.ExpectExec("INSERT INTO `like_facts`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE `posts` SET `like_count`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.ToggleLike(context.Background(), 42, 1, models.TargetPost)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
