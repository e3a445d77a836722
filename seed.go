package main

import (
	_ "embed"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

type seedFile struct {
	Users []struct {
		ID       int    `yaml:"id"`
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"users"`
	Posts []struct {
		ID       int           `yaml:"id"`
		Title    string        `yaml:"title"`
		Content  string        `yaml:"content"`
		AuthorID int           `yaml:"author_id"`
		Age      time.Duration `yaml:"age"`
	} `yaml:"posts"`
	Comments []struct {
		ID       int           `yaml:"id"`
		PostID   int           `yaml:"post_id"`
		Content  string        `yaml:"content"`
		AuthorID int           `yaml:"author_id"`
		Age      time.Duration `yaml:"age"`
	} `yaml:"comments"`
}

// Seed is the default content for each collection.
type Seed struct {
	Users    []User
	Posts    []Post
	Comments []Comment
}

// loadSeed builds the default collections, hashing seed passwords with cost
// and dating records relative to now.
func loadSeed(cost int, now time.Time) (Seed, error) {
	return parseSeed(seedYAML, cost, now)
}

func parseSeed(data []byte, cost int, now time.Time) (Seed, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Seed{}, fmt.Errorf("parsing seed: %w", err)
	}

	var seed Seed
	authors := make(map[int]Author)
	for _, u := range f.Users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return Seed{}, fmt.Errorf("hashing seed password for %s: %w", u.Email, err)
		}
		user := User{ID: u.ID, Name: u.Name, Email: u.Email, Password: string(hash)}
		seed.Users = append(seed.Users, user)
		authors[u.ID] = user.author()
	}

	counts := make(map[int]int)
	for _, c := range f.Comments {
		counts[c.PostID]++
	}

	for _, p := range f.Posts {
		author, ok := authors[p.AuthorID]
		if !ok {
			return Seed{}, fmt.Errorf("seed post %d: unknown author %d", p.ID, p.AuthorID)
		}
		seed.Posts = append(seed.Posts, Post{
			ID:            p.ID,
			Title:         p.Title,
			Content:       p.Content,
			Author:        author,
			CreatedAt:     now.Add(-p.Age).UTC(),
			CommentsCount: counts[p.ID],
		})
	}

	for _, c := range f.Comments {
		author, ok := authors[c.AuthorID]
		if !ok {
			return Seed{}, fmt.Errorf("seed comment %d: unknown author %d", c.ID, c.AuthorID)
		}
		seed.Comments = append(seed.Comments, Comment{
			ID:        c.ID,
			PostID:    c.PostID,
			Content:   c.Content,
			Author:    author,
			CreatedAt: now.Add(-c.Age).UTC(),
		})
	}

	return seed, nil
}
