package main

import "errors"

// Messages are shown to the user as-is through the owning slice's error.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrPostNotFound       = errors.New("post not found")
	ErrUnauthorized       = errors.New("you must be logged in to do that")
	ErrTokenExpired       = errors.New("session expired, please log in again")
	ErrNotOwner           = errors.New("only the author can change this post")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTaskCancelled      = errors.New("request cancelled")
)
