package main

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// API stands in for a remote backend: every call waits a fixed latency and
// then works against the repository.
type API struct {
	repo          *Repository
	latency       time.Duration
	tokenTTL      time.Duration
	enforceExpiry bool
	bcryptCost    int
	now           func() time.Time
}

func NewAPI(repo *Repository, cfg Config) *API {
	return &API{
		repo:          repo,
		latency:       cfg.APILatency,
		tokenTTL:      cfg.TokenTTL,
		enforceExpiry: cfg.EnforceTokenExpiry,
		bcryptCost:    cfg.BcryptCost,
		now:           time.Now,
	}
}

type PostQuery struct {
	Search string
	Page   int
	Limit  int
}

const defaultPageSize = 10

// delay simulates the network round trip. It returns early with the
// context's error if ctx is done first.
func (a *API) delay(ctx context.Context) error {
	if a.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(a.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *API) authResult(user User) AuthResult {
	return AuthResult{
		User:  user.public(),
		Token: issueToken(user.ID, a.now(), a.tokenTTL),
	}
}

// actor resolves the user a bearer token speaks for.
func (a *API) actor(token string) (User, error) {
	if token == "" {
		return User{}, ErrUnauthorized
	}

	claims, err := parseToken(token)
	if err != nil {
		return User{}, err
	}
	if a.enforceExpiry && claims.expired(a.now()) {
		return User{}, ErrTokenExpired
	}

	user, ok := a.repo.userByID(claims.UserID)
	if !ok {
		return User{}, ErrUnauthorized
	}
	return user, nil
}

func (a *API) Login(ctx context.Context, email, password string) (AuthResult, error) {
	if err := a.delay(ctx); err != nil {
		return AuthResult{}, err
	}

	email = normalizeEmail(email)
	user, ok := a.repo.userByEmail(email)
	if !ok {
		log.Printf("api.Login: no user for email=%s", email)
		return AuthResult{}, ErrInvalidCredentials
	}
	if !checkPassword(user.Password, password) {
		log.Printf("api.Login: bad password for email=%s", email)
		return AuthResult{}, ErrInvalidCredentials
	}

	return a.authResult(user), nil
}

func (a *API) Register(ctx context.Context, name, email, password string) (AuthResult, error) {
	if err := a.delay(ctx); err != nil {
		return AuthResult{}, err
	}

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return AuthResult{}, fmt.Errorf("name, email and password are required: %w", ErrInvalidInput)
	}
	if _, ok := a.repo.userByEmail(email); ok {
		return AuthResult{}, ErrEmailTaken
	}

	hash, err := hashPassword(password, a.bcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hashing password: %w", err)
	}

	user, err := a.repo.addUser(ctx, name, email, hash)
	if err != nil {
		return AuthResult{}, err
	}

	log.Printf("api.Register: new user id=%d", user.ID)
	return a.authResult(user), nil
}

// CurrentUser returns the user behind token, without the credential hash.
func (a *API) CurrentUser(ctx context.Context, token string) (User, error) {
	if err := a.delay(ctx); err != nil {
		return User{}, err
	}

	user, err := a.actor(token)
	if err != nil {
		return User{}, err
	}
	return user.public(), nil
}

// GetPosts returns one page of posts, newest first. A non-empty search keeps
// posts whose title or content contains it, ignoring case; pagination is
// computed against the filtered set.
func (a *API) GetPosts(ctx context.Context, q PostQuery) (PostPage, error) {
	if err := a.delay(ctx); err != nil {
		return PostPage{}, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = defaultPageSize
	}

	posts := a.repo.listPosts()
	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		posts = slices.DeleteFunc(posts, func(p Post) bool {
			return !strings.Contains(strings.ToLower(p.Title), search) &&
				!strings.Contains(strings.ToLower(p.Content), search)
		})
	}

	slices.SortStableFunc(posts, func(x, y Post) int {
		if c := y.CreatedAt.Compare(x.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(y.ID, x.ID)
	})

	total := len(posts)
	pages := total / q.Limit
	if total%q.Limit != 0 {
		pages++
	}

	// Pages past the end are empty. Checking the page before multiplying
	// keeps huge page numbers from overflowing.
	start := total
	if q.Page <= pages {
		start = (q.Page - 1) * q.Limit
	}
	end := start + min(q.Limit, total-start)

	return PostPage{
		Posts: nonNil(slices.Clone(posts[start:end])),
		Pagination: Pagination{
			CurrentPage: q.Page,
			TotalPages:  pages,
			TotalPosts:  total,
			Limit:       q.Limit,
		},
	}, nil
}

func (a *API) GetPostByID(ctx context.Context, id int) (Post, error) {
	if err := a.delay(ctx); err != nil {
		return Post{}, err
	}

	post, ok := a.repo.postByID(id)
	if !ok {
		return Post{}, ErrPostNotFound
	}
	return post, nil
}

func (a *API) CreatePost(ctx context.Context, token, title, content string) (Post, error) {
	if err := a.delay(ctx); err != nil {
		return Post{}, err
	}

	user, err := a.actor(token)
	if err != nil {
		return Post{}, err
	}

	return a.repo.addPost(ctx, strings.TrimSpace(title), strings.TrimSpace(content), user.author(), a.now().UTC())
}

func (a *API) UpdatePost(ctx context.Context, token string, id int, title, content string) (Post, error) {
	if err := a.delay(ctx); err != nil {
		return Post{}, err
	}

	user, err := a.actor(token)
	if err != nil {
		return Post{}, err
	}

	return a.repo.updatePost(ctx, id, user.ID, strings.TrimSpace(title), strings.TrimSpace(content), a.now().UTC())
}

// DeletePost removes post id together with all of its comments.
func (a *API) DeletePost(ctx context.Context, token string, id int) error {
	if err := a.delay(ctx); err != nil {
		return err
	}

	user, err := a.actor(token)
	if err != nil {
		return err
	}

	return a.repo.deletePost(ctx, id, user.ID)
}

// GetCommentsByPostID returns the comments on postID, oldest first.
func (a *API) GetCommentsByPostID(ctx context.Context, postID int) ([]Comment, error) {
	if err := a.delay(ctx); err != nil {
		return nil, err
	}

	comments := a.repo.commentsFor(postID)
	slices.SortStableFunc(comments, func(x, y Comment) int {
		if c := x.CreatedAt.Compare(y.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return nonNil(comments), nil
}

func (a *API) CreateComment(ctx context.Context, token string, postID int, content string) (Comment, error) {
	if err := a.delay(ctx); err != nil {
		return Comment{}, err
	}

	user, err := a.actor(token)
	if err != nil {
		return Comment{}, err
	}

	return a.repo.addComment(ctx, postID, strings.TrimSpace(content), user.author(), a.now().UTC())
}
