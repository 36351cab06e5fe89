package validation

import (
	"strconv"
	"strings"
)

// PostForm is the payload of the create and edit post pages.
type PostForm struct {
	Text  string `form:"text" json:"text" validate:"required,notblank"`
	Group string `form:"group" json:"group" validate:"omitempty,numeric"`
	// ClearImage removes the current image on edit.
	ClearImage bool `form:"clear_image" json:"clear_image"`
}

// GroupID returns the selected group, or nil when none was chosen.
func (f PostForm) GroupID() *uint {
	raw := strings.TrimSpace(f.Group)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil
	}
	v := uint(id)
	return &v
}

// CommentForm is the payload of the comment box on the post page.
type CommentForm struct {
	Text string `form:"text" json:"text" validate:"required,notblank"`
}

// SignupForm registers a new account.
type SignupForm struct {
	FirstName string `form:"first_name" json:"first_name" validate:"max=150"`
	LastName  string `form:"last_name" json:"last_name" validate:"max=150"`
	Username  string `form:"username" json:"username" validate:"required,username"`
	Email     string `form:"email" json:"email" validate:"required,email,max=254"`
	Password  string `form:"password" json:"password,omitempty" validate:"required,password"`
}

// LoginForm authenticates an existing account.
type LoginForm struct {
	Username string `form:"username" json:"username" validate:"required"`
	Password string `form:"password" json:"password,omitempty" validate:"required"`
}

// GroupForm creates a group from the command line or a fixtures file.
type GroupForm struct {
	Title       string `form:"title" yaml:"title" validate:"required,notblank,max=200"`
	Slug        string `form:"slug" yaml:"slug" validate:"required,slug,max=50"`
	Description string `form:"description" yaml:"description"`
}
