package service

import (
	"Agora/models"
	"Agora/pkg/snowflake"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReconcile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post := env.createPost(t, 1)
	comment := env.createComment(t, post.ID, 2)
	env.createComment(t, post.ID, 3)
	reply := env.createReply(t, comment.ID, 3)
	_, err := env.like.ToggleLike(ctx, 4, post.ID, models.TargetPost)
	require.NoError(t, err)
	_, err = env.like.ToggleLike(ctx, 4, reply.ID, models.TargetReply)
	require.NoError(t, err)

	// 一致时不修正
	n, err := env.reconcile.Reconcile(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	// 人为制造漂移
	require.NoError(t, env.postDAO.SetCounters(ctx, post.ID, 9, 0))
	require.NoError(t, env.commentDAO.SetCounters(ctx, comment.ID, 3, 5))
	require.NoError(t, env.replyDAO.SetLikeCount(ctx, reply.ID, 0))

	n, err = env.reconcile.Reconcile(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	p := env.getPost(t, post.ID)
	assert.EqualValues(t, 1, p.LikeCount)
	assert.EqualValues(t, 2, p.ReplyCount)
	c := env.getComment(t, comment.ID)
	assert.EqualValues(t, 0, c.LikeCount)
	assert.EqualValues(t, 1, c.ReplyCount)
	assert.EqualValues(t, 1, env.getReply(t, reply.ID).LikeCount)

	_, err = env.reconcile.Reconcile(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReconcile_IgnoresInactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post := env.createPost(t, 1)
	comment := env.createComment(t, post.ID, 2)
	hidden := env.createComment(t, post.ID, 3)
	require.NoError(t, env.thread.HideComment(ctx, admin(9), hidden.ID))
	r1 := env.createReply(t, comment.ID, 3)
	env.createReply(t, comment.ID, 4)
	require.NoError(t, env.thread.DeleteReply(ctx, user(3), r1.ID))

	n, err := env.reconcile.Reconcile(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.EqualValues(t, 1, env.getPost(t, post.ID).ReplyCount)
	assert.EqualValues(t, 1, env.getComment(t, comment.ID).ReplyCount)
}

func TestReconcile_ConcurrentToggleKept(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1)
	require.NoError(t, env.postDAO.SetCounters(ctx, post.ID, 5, 0))

	// 写回文章计数前另一个用户点赞成功
	env.interleave(t, "update", "posts", func(db *gorm.DB) error {
		err := db.Create(&models.LikeFact{
			ID:         snowflake.GenID(),
			UserID:     7,
			TargetID:   post.ID,
			TargetKind: models.TargetPost,
			CreatedAt:  time.Now().UTC(),
		}).Error
		if err != nil {
			return err
		}
		return db.Exec("UPDATE posts SET like_count = like_count + 1 WHERE id = ?", post.ID).Error
	})

	n, err := env.reconcile.Reconcile(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	liked, err := env.like.IsLiked(ctx, 7, post.ID, models.TargetPost)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.EqualValues(t, 1, env.getPost(t, post.ID).LikeCount)
}

func TestReconcileAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	var ids []uint64
	for i := 0; i < 3; i++ {
		post := env.createPost(t, 1)
		env.createComment(t, post.ID, 2)
		ids = append(ids, post.ID)
	}
	for _, id := range ids[:2] {
		require.NoError(t, env.postDAO.SetCounters(ctx, id, 5, 5))
	}

	n, err := env.reconcile.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, id := range ids {
		p := env.getPost(t, id)
		assert.EqualValues(t, 0, p.LikeCount)
		assert.EqualValues(t, 1, p.ReplyCount)
	}
}
