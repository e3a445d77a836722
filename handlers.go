package main

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Blog is the server-rendered view over the store.
type Blog struct {
	store         *Store
	templates     map[string]*template.Template
	secureCookies bool
	pageSize      int
}

func NewBlog(store *Store, cfg Config) *Blog {
	return &Blog{
		store:         store,
		templates:     loadTemplates(),
		secureCookies: cfg.SecureCookies,
		pageSize:      cfg.PageSize,
	}
}

func (b *Blog) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("/", b.Home)
	mux.HandleFunc("GET /post/{id}", b.Detail)
	mux.HandleFunc("/login", b.Login)
	mux.HandleFunc("/register", b.Register)
	mux.HandleFunc("POST /logout", b.Logout)
	mux.HandleFunc("POST /theme", b.Theme)

	// Protected routes
	mux.HandleFunc("POST /post/{id}/comments", b.requireAuth(b.Comment))
	mux.HandleFunc("/new", b.requireAuth(b.Create))
	mux.HandleFunc("/edit/{id}", b.requireAuth(b.Edit))
	mux.HandleFunc("/delete/{id}", b.requireAuth(b.Delete))

	return mux
}

// logRequests logs method, path and duration of every request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}

// await waits for t. If the client goes away first the task is cancelled,
// so its late result never reaches the store.
func (b *Blog) await(r *http.Request, t *Task) error {
	select {
	case <-t.Done():
		return t.Err()
	case <-r.Context().Done():
		t.Cancel()
		return r.Context().Err()
	}
}

func (b *Blog) pageData(w http.ResponseWriter, r *http.Request, title string) map[string]any {
	st := b.store.State()
	return map[string]any{
		"Title":           title,
		"IsAuthenticated": st.Auth.IsAuthenticated(),
		"User":            st.Auth.User,
		"Theme":           st.Theme.Mode,
		"FormToken":       b.formToken(w, r),
	}
}

func (b *Blog) render(w http.ResponseWriter, status int, page string, data map[string]any) {
	var buf bytes.Buffer
	if err := b.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		log.Printf("rendering %s: %v", page, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// fail maps a task error onto a response.
func (b *Blog) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// client went away
	case errors.Is(err, ErrPostNotFound):
		http.NotFound(w, r)
	case errors.Is(err, ErrNotOwner):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrTokenExpired):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// bindForm copies the named request fields into f.
func bindForm(f *Form, r *http.Request, fields ...string) {
	for _, name := range fields {
		f.Change(name, r.FormValue(name))
	}
}

func (b *Blog) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	b.store.SetSearchQuery(q)
	task := b.store.FetchPosts(r.Context(), PostQuery{Search: q, Page: page, Limit: b.pageSize})
	if err := b.await(r, task); err != nil {
		b.fail(w, r, err)
		return
	}

	st := b.store.State()
	data := b.pageData(w, r, "Home")
	data["Posts"] = st.Posts.Posts
	data["Pagination"] = st.Posts.Pagination
	data["Search"] = q

	b.render(w, http.StatusOK, "home.html", data)
}

// loadDetail fetches post id and its comments into the store.
func (b *Blog) loadDetail(r *http.Request, id int) error {
	b.store.ClearCurrentPost()
	b.store.ClearComments()

	postTask := b.store.FetchPostByID(r.Context(), id)
	commentsTask := b.store.FetchComments(r.Context(), id)

	if err := b.await(r, postTask); err != nil {
		commentsTask.Cancel()
		return err
	}
	return b.await(r, commentsTask)
}

func (b *Blog) renderDetail(w http.ResponseWriter, r *http.Request, status int, form *Form, errMsg string) {
	st := b.store.State()
	post := st.Posts.CurrentPost
	if post == nil {
		http.NotFound(w, r)
		return
	}

	data := b.pageData(w, r, post.Title)
	data["Post"] = *post
	data["Comments"] = st.Comments.Comments
	data["IsOwner"] = st.Auth.User != nil && st.Auth.User.ID == post.Author.ID
	data["Form"] = form
	data["Error"] = errMsg

	b.render(w, status, "detail.html", data)
}

func (b *Blog) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	if err := b.loadDetail(r, id); err != nil {
		b.fail(w, r, err)
		return
	}

	b.renderDetail(w, r, http.StatusOK, NewForm(Values{"content": ""}, CommentSchema), "")
}

func (b *Blog) Comment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}
	if !readForm(w, r) {
		return
	}

	form := NewForm(Values{"content": ""}, CommentSchema)
	bindForm(form, r, "content")

	var taskErr error
	submitted := form.Submit(r.Context(), func(ctx context.Context, v Values) error {
		taskErr = b.await(r, b.store.CreateComment(ctx, id, v["content"]))
		return taskErr
	})

	if submitted && taskErr == nil {
		http.Redirect(w, r, "/post/"+strconv.Itoa(id), http.StatusSeeOther)
		return
	}
	if taskErr != nil && !errors.Is(taskErr, ErrInvalidInput) {
		b.fail(w, r, taskErr)
		return
	}

	var errMsg string
	if taskErr != nil {
		errMsg = b.store.State().Comments.Error
	}
	if err := b.loadDetail(r, id); err != nil {
		b.fail(w, r, err)
		return
	}
	b.renderDetail(w, r, http.StatusBadRequest, form, errMsg)
}

func (b *Blog) Login(w http.ResponseWriter, r *http.Request) {
	form := NewForm(Values{"email": "", "password": ""}, LoginSchema)

	if r.Method == http.MethodGet {
		if b.store.Auth().IsAuthenticated() {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		data := b.pageData(w, r, "Log in")
		data["Form"] = form
		b.render(w, http.StatusOK, "login.html", data)
		return
	}

	if r.Method == http.MethodPost {
		if !readForm(w, r) {
			return
		}
		bindForm(form, r, "email", "password")
		b.store.ClearAuthError()

		var taskErr error
		submitted := form.Submit(r.Context(), func(ctx context.Context, v Values) error {
			taskErr = b.await(r, b.store.Login(ctx, v["email"], v["password"]))
			return taskErr
		})

		if submitted && taskErr == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		data := b.pageData(w, r, "Log in")
		data["Form"] = form
		data["Error"] = b.store.Auth().Error
		b.render(w, http.StatusBadRequest, "login.html", data)
	}
}

func (b *Blog) Register(w http.ResponseWriter, r *http.Request) {
	form := NewForm(Values{"name": "", "email": "", "password": "", "confirmPassword": ""}, RegisterSchema)

	if r.Method == http.MethodGet {
		data := b.pageData(w, r, "Register")
		data["Form"] = form
		b.render(w, http.StatusOK, "register.html", data)
		return
	}

	if r.Method == http.MethodPost {
		if !readForm(w, r) {
			return
		}
		bindForm(form, r, "name", "email", "password", "confirmPassword")
		b.store.ClearAuthError()

		var taskErr error
		submitted := form.Submit(r.Context(), func(ctx context.Context, v Values) error {
			taskErr = b.await(r, b.store.Register(ctx, v["name"], v["email"], v["password"]))
			return taskErr
		})

		if submitted && taskErr == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}

		data := b.pageData(w, r, "Register")
		data["Form"] = form
		data["Error"] = b.store.Auth().Error
		b.render(w, http.StatusBadRequest, "register.html", data)
	}
}

func (b *Blog) Logout(w http.ResponseWriter, r *http.Request) {
	if !readForm(w, r) {
		return
	}

	if err := b.await(r, b.store.Logout(r.Context())); err != nil {
		b.fail(w, r, err)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (b *Blog) Theme(w http.ResponseWriter, r *http.Request) {
	if !readForm(w, r) {
		return
	}

	b.store.ToggleTheme(r.Context())
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (b *Blog) Create(w http.ResponseWriter, r *http.Request) {
	form := NewForm(Values{"title": "", "content": ""}, PostSchema)

	if r.Method == http.MethodGet {
		data := b.pageData(w, r, "New Post")
		data["Form"] = form
		b.render(w, http.StatusOK, "create.html", data)
		return
	}

	if r.Method == http.MethodPost {
		if !readForm(w, r) {
			return
		}
		bindForm(form, r, "title", "content")

		var taskErr error
		submitted := form.Submit(r.Context(), func(ctx context.Context, v Values) error {
			taskErr = b.await(r, b.store.CreatePost(ctx, v["title"], v["content"]))
			return taskErr
		})

		if submitted && taskErr == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		if taskErr != nil && !errors.Is(taskErr, ErrInvalidInput) {
			b.fail(w, r, taskErr)
			return
		}

		data := b.pageData(w, r, "New Post")
		data["Form"] = form
		data["Error"] = b.store.State().Posts.Error
		b.render(w, http.StatusBadRequest, "create.html", data)
	}
}

// ownPost loads post id into the store and checks that the session user
// wrote it.
func (b *Blog) ownPost(r *http.Request, id int) (Post, error) {
	if err := b.await(r, b.store.FetchPostByID(r.Context(), id)); err != nil {
		return Post{}, err
	}

	st := b.store.State()
	if st.Posts.CurrentPost == nil {
		return Post{}, ErrPostNotFound
	}
	if st.Auth.User == nil || st.Auth.User.ID != st.Posts.CurrentPost.Author.ID {
		return Post{}, ErrNotOwner
	}
	return *st.Posts.CurrentPost, nil
}

func (b *Blog) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodGet {
		post, err := b.ownPost(r, id)
		if err != nil {
			b.fail(w, r, err)
			return
		}

		data := b.pageData(w, r, "Editing "+strconv.Quote(post.Title))
		data["Post"] = post
		data["Form"] = NewForm(Values{"title": post.Title, "content": post.Content}, PostSchema)
		b.render(w, http.StatusOK, "edit.html", data)
		return
	}

	if r.Method == http.MethodPost {
		if !readForm(w, r) {
			return
		}

		form := NewForm(Values{"title": "", "content": ""}, PostSchema)
		bindForm(form, r, "title", "content")

		var taskErr error
		submitted := form.Submit(r.Context(), func(ctx context.Context, v Values) error {
			taskErr = b.await(r, b.store.UpdatePost(ctx, id, v["title"], v["content"]))
			return taskErr
		})

		if submitted && taskErr == nil {
			http.Redirect(w, r, "/post/"+strconv.Itoa(id), http.StatusSeeOther)
			return
		}
		if taskErr != nil && !errors.Is(taskErr, ErrInvalidInput) {
			b.fail(w, r, taskErr)
			return
		}

		data := b.pageData(w, r, "Edit post")
		data["Post"] = Post{ID: id}
		data["Form"] = form
		data["Error"] = b.store.State().Posts.Error
		b.render(w, http.StatusBadRequest, "edit.html", data)
	}
}

func (b *Blog) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	if r.Method == http.MethodGet {
		post, err := b.ownPost(r, id)
		if err != nil {
			b.fail(w, r, err)
			return
		}

		data := b.pageData(w, r, "Deleting "+strconv.Quote(post.Title))
		data["Post"] = post
		b.render(w, http.StatusOK, "delete.html", data)
		return
	}

	if r.Method == http.MethodPost {
		if !readForm(w, r) {
			return
		}

		if err := b.await(r, b.store.DeletePost(r.Context(), id)); err != nil {
			b.fail(w, r, err)
			return
		}

		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}
