package main

import (
	"context"
	"slices"
)

type CommentsState struct {
	Comments  []Comment
	IsLoading bool
	Error     string
}

func (s *CommentsState) pending() {
	s.IsLoading = true
	s.Error = ""
}

func (s *CommentsState) rejected(err error) {
	s.IsLoading = false
	s.Error = err.Error()
}

func (s *CommentsState) fetched(comments []Comment) {
	s.IsLoading = false
	s.Comments = comments
}

func (s *CommentsState) added(c Comment) {
	s.IsLoading = false
	s.Comments = append(s.Comments, c)
}

func (s *CommentsState) postDeleted(postID int) {
	s.Comments = slices.DeleteFunc(s.Comments, func(c Comment) bool { return c.PostID == postID })
}

func (s *Store) ClearCommentsError() {
	s.update(func(st *State) { st.Comments.Error = "" })
}

func (s *Store) ClearComments() {
	s.update(func(st *State) { st.Comments.Comments = nil })
}

func commentsPending(st *State)             { st.Comments.pending() }
func commentsRejected(st *State, err error) { st.Comments.rejected(err) }
func commentsAbort(st *State)               { st.Comments.IsLoading = false }

func (s *Store) FetchComments(ctx context.Context, postID int) *Task {
	return s.dispatch(ctx, thunk{
		name:    "comments/fetchCommentsByPostId",
		pending: commentsPending,
		run: func(ctx context.Context) (func(*State), error) {
			comments, err := s.api.GetCommentsByPostID(ctx, postID)
			if err != nil {
				return nil, err
			}
			return func(st *State) { st.Comments.fetched(comments) }, nil
		},
		rejected: commentsRejected,
		abort:    commentsAbort,
	})
}

func (s *Store) CreateComment(ctx context.Context, postID int, content string) *Task {
	token := s.Auth().Token
	return s.dispatch(ctx, thunk{
		name:    "comments/createComment",
		pending: commentsPending,
		run: func(ctx context.Context) (func(*State), error) {
			comment, err := s.api.CreateComment(ctx, token, postID, content)
			if err != nil {
				return nil, err
			}
			return func(st *State) {
				st.Comments.added(comment)
				st.Posts.commentAdded(comment)
			}, nil
		},
		rejected: commentsRejected,
		abort:    commentsAbort,
	})
}
