package service

import (
	"Agora/models"
	"Agora/types"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draft, err := env.post.CreatePost(ctx, 1, newDraft())
	require.NoError(t, err)
	assert.Equal(t, models.PostDraft, draft.Status)
	assert.Zero(t, env.publisher.count(EventPostPublished))

	post := env.createPost(t, 1)
	assert.Equal(t, models.PostPublished, post.Status)
	assert.Equal(t, 1, env.publisher.count(EventPostPublished))

	_, err = env.post.CreatePost(ctx, 1, &types.CreatePostRequest{Title: "  "})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = env.post.CreatePost(ctx, 1, &types.CreatePostRequest{Title: strings.Repeat("题", 201)})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	draft, err := env.post.CreatePost(ctx, 1, newDraft())
	require.NoError(t, err)

	// 草稿不能直接归档
	assert.ErrorIs(t, env.post.ArchivePost(ctx, user(1), draft.ID), ErrInvalidState)
	assert.ErrorIs(t, env.post.PublishPost(ctx, user(2), draft.ID), ErrForbidden)

	require.NoError(t, env.post.PublishPost(ctx, user(1), draft.ID))
	require.NoError(t, env.post.PublishPost(ctx, user(1), draft.ID))
	assert.Equal(t, models.PostPublished, env.getPost(t, draft.ID).Status)
	assert.Equal(t, 1, env.publisher.count(EventPostPublished))

	require.NoError(t, env.post.ArchivePost(ctx, admin(9), draft.ID))
	assert.Equal(t, models.PostArchived, env.getPost(t, draft.ID).Status)

	require.NoError(t, env.post.PublishPost(ctx, user(1), draft.ID))
	assert.Equal(t, models.PostPublished, env.getPost(t, draft.ID).Status)

	assert.ErrorIs(t, env.post.PublishPost(ctx, user(1), 404), ErrNotFound)
}

func TestDestroyPost_Cascade(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post := env.createPost(t, 1)
	comment := env.createComment(t, post.ID, 2)
	reply := env.createReply(t, comment.ID, 3)
	other := env.createPost(t, 1)
	otherComment := env.createComment(t, other.ID, 2)

	for _, tc := range []struct {
		id   uint64
		kind models.TargetKind
	}{
		{post.ID, models.TargetPost},
		{comment.ID, models.TargetComment},
		{reply.ID, models.TargetReply},
		{other.ID, models.TargetPost},
		{otherComment.ID, models.TargetComment},
	} {
		_, err := env.like.ToggleLike(ctx, 5, tc.id, tc.kind)
		require.NoError(t, err)
	}

	assert.ErrorIs(t, env.post.DestroyPost(ctx, user(2), post.ID), ErrForbidden)
	require.NoError(t, env.post.DestroyPost(ctx, user(1), post.ID))

	_, err := env.postDAO.GetByID(ctx, post.ID)
	assert.Error(t, err)
	_, err = env.commentDAO.GetByID(ctx, comment.ID)
	assert.Error(t, err)
	_, err = env.replyDAO.GetByID(ctx, reply.ID)
	assert.Error(t, err)

	// 只剩另一篇文章相关的点赞
	given, err := env.likeDAO.CountByUser(ctx, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 2, given)
	assert.EqualValues(t, 1, env.getPost(t, other.ID).LikeCount)
	assert.EqualValues(t, 1, env.getComment(t, otherComment.ID).LikeCount)

	assert.ErrorIs(t, env.post.DestroyPost(ctx, user(1), post.ID), ErrNotFound)
}

func TestRecordView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.createPost(t, 1)

	// 匿名浏览每次都计数
	require.NoError(t, env.post.RecordView(ctx, post.ID, 0))
	require.NoError(t, env.post.RecordView(ctx, post.ID, 0))
	assert.EqualValues(t, 2, env.getPost(t, post.ID).ViewCount)

	// 登录用户窗口内去重
	require.NoError(t, env.post.RecordView(ctx, post.ID, 7))
	require.NoError(t, env.post.RecordView(ctx, post.ID, 7))
	assert.EqualValues(t, 3, env.getPost(t, post.ID).ViewCount)

	env.redis.FastForward(env.post.App.ViewDedupWindow())
	require.NoError(t, env.post.RecordView(ctx, post.ID, 7))
	assert.EqualValues(t, 4, env.getPost(t, post.ID).ViewCount)

	draft, err := env.post.CreatePost(ctx, 1, newDraft())
	require.NoError(t, err)
	assert.ErrorIs(t, env.post.RecordView(ctx, draft.ID, 7), ErrNotFound)
}

func TestShareCode(t *testing.T) {
	env := newTestEnv(t)
	post := env.createPost(t, 1)

	code, err := env.post.ShareCode(post.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(code), 12)

	id, err := env.post.ResolveShareCode(code)
	require.NoError(t, err)
	assert.Equal(t, post.ID, id)

	_, err = env.post.ResolveShareCode("!!not-a-code!!")
	assert.ErrorIs(t, err, ErrNotFound)
}
