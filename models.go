package main

import "time"

// User is a registered account. Password holds the bcrypt hash and is
// stripped before a user leaves the API.
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

type Author struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Post struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Author        Author     `json:"author"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
	CommentsCount int        `json:"commentsCount"`
}

type Comment struct {
	ID        int       `json:"id"`
	PostID    int       `json:"postId"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalPosts  int `json:"totalPosts"`
	Limit       int `json:"limit"`
}

func (p Pagination) HasPrev() bool { return p.CurrentPage > 1 }
func (p Pagination) HasNext() bool { return p.CurrentPage < p.TotalPages }
func (p Pagination) PrevPage() int { return p.CurrentPage - 1 }
func (p Pagination) NextPage() int { return p.CurrentPage + 1 }

type PostPage struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

func (u User) author() Author {
	return Author{ID: u.ID, Name: u.Name}
}

// public returns a copy of u without the credential hash.
func (u User) public() User {
	u.Password = ""
	return u
}
