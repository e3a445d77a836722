package main

import (
	"context"
	"slices"
)

type PostsState struct {
	Posts       []Post
	CurrentPost *Post
	IsLoading   bool
	Error       string
	SearchQuery string
	Pagination  Pagination
}

func initialPostsState() PostsState {
	return PostsState{
		Pagination: Pagination{CurrentPage: 1, TotalPages: 1, Limit: defaultPageSize},
	}
}

func (s *PostsState) pending() {
	s.IsLoading = true
	s.Error = ""
}

func (s *PostsState) rejected(err error) {
	s.IsLoading = false
	s.Error = err.Error()
}

func (s *PostsState) pageFetched(page PostPage) {
	s.IsLoading = false
	s.Posts = page.Posts
	s.Pagination = page.Pagination
}

func (s *PostsState) postFetched(p Post) {
	s.IsLoading = false
	s.CurrentPost = &p
}

func (s *PostsState) postCreated(p Post) {
	s.IsLoading = false
	s.Posts = slices.Insert(s.Posts, 0, p)
}

func (s *PostsState) postUpdated(p Post) {
	s.IsLoading = false
	if i := slices.IndexFunc(s.Posts, func(x Post) bool { return x.ID == p.ID }); i >= 0 {
		s.Posts[i] = p
	}
	if s.CurrentPost != nil && s.CurrentPost.ID == p.ID {
		s.CurrentPost = &p
	}
}

func (s *PostsState) postDeleted(id int) {
	s.IsLoading = false
	s.Posts = slices.DeleteFunc(s.Posts, func(p Post) bool { return p.ID == id })
	if s.CurrentPost != nil && s.CurrentPost.ID == id {
		s.CurrentPost = nil
	}
}

// commentAdded keeps the cached comment counts in step with a new comment.
func (s *PostsState) commentAdded(c Comment) {
	if i := slices.IndexFunc(s.Posts, func(p Post) bool { return p.ID == c.PostID }); i >= 0 {
		s.Posts[i].CommentsCount++
	}
	if s.CurrentPost != nil && s.CurrentPost.ID == c.PostID {
		p := *s.CurrentPost
		p.CommentsCount++
		s.CurrentPost = &p
	}
}

func (s *Store) ClearPostsError() {
	s.update(func(st *State) { st.Posts.Error = "" })
}

func (s *Store) SetSearchQuery(q string) {
	s.update(func(st *State) { st.Posts.SearchQuery = q })
}

func (s *Store) ClearCurrentPost() {
	s.update(func(st *State) { st.Posts.CurrentPost = nil })
}

func postsPending(st *State)             { st.Posts.pending() }
func postsRejected(st *State, err error) { st.Posts.rejected(err) }
func postsAbort(st *State)               { st.Posts.IsLoading = false }

func (s *Store) FetchPosts(ctx context.Context, q PostQuery) *Task {
	return s.dispatch(ctx, thunk{
		name:    "posts/fetchPosts",
		pending: postsPending,
		run: func(ctx context.Context) (func(*State), error) {
			page, err := s.api.GetPosts(ctx, q)
			if err != nil {
				return nil, err
			}
			return func(st *State) { st.Posts.pageFetched(page) }, nil
		},
		rejected: postsRejected,
		abort:    postsAbort,
	})
}

func (s *Store) FetchPostByID(ctx context.Context, id int) *Task {
	return s.dispatch(ctx, thunk{
		name:    "posts/fetchPostById",
		pending: postsPending,
		run: func(ctx context.Context) (func(*State), error) {
			post, err := s.api.GetPostByID(ctx, id)
			if err != nil {
				return nil, err
			}
			return func(st *State) { st.Posts.postFetched(post) }, nil
		},
		rejected: postsRejected,
		abort:    postsAbort,
	})
}

func (s *Store) CreatePost(ctx context.Context, title, content string) *Task {
	token := s.Auth().Token
	return s.dispatch(ctx, thunk{
		name:    "posts/createPost",
		pending: postsPending,
		run: func(ctx context.Context) (func(*State), error) {
			post, err := s.api.CreatePost(ctx, token, title, content)
			if err != nil {
				return nil, err
			}
			return func(st *State) { st.Posts.postCreated(post) }, nil
		},
		rejected: postsRejected,
		abort:    postsAbort,
	})
}

func (s *Store) UpdatePost(ctx context.Context, id int, title, content string) *Task {
	token := s.Auth().Token
	return s.dispatch(ctx, thunk{
		name:    "posts/updatePost",
		pending: postsPending,
		run: func(ctx context.Context) (func(*State), error) {
			post, err := s.api.UpdatePost(ctx, token, id, title, content)
			if err != nil {
				return nil, err
			}
			return func(st *State) { st.Posts.postUpdated(post) }, nil
		},
		rejected: postsRejected,
		abort:    postsAbort,
	})
}

// DeletePost removes the post from the cached list and drops its comments
// from the comments slice.
func (s *Store) DeletePost(ctx context.Context, id int) *Task {
	token := s.Auth().Token
	return s.dispatch(ctx, thunk{
		name:    "posts/deletePost",
		pending: postsPending,
		run: func(ctx context.Context) (func(*State), error) {
			if err := s.api.DeletePost(ctx, token, id); err != nil {
				return nil, err
			}
			return func(st *State) {
				st.Posts.postDeleted(id)
				st.Comments.postDeleted(id)
			}, nil
		},
		rejected: postsRejected,
		abort:    postsAbort,
	})
}
