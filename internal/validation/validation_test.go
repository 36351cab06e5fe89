package validation

import (
	"errors"
	"testing"

	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	return appErr.Fields
}

func TestStruct_PostForm(t *testing.T) {
	assert.NoError(t, Struct(PostForm{Text: "Текст формы"}))
	assert.NoError(t, Struct(PostForm{Text: "hello", Group: "3"}))

	fields := fieldErrors(t, Struct(PostForm{Text: "   "}))
	assert.Equal(t, "This field is required.", fields["text"])

	fields = fieldErrors(t, Struct(PostForm{Text: "ok", Group: "abc"}))
	assert.Contains(t, fields, "group")
	assert.NotContains(t, fields, "text")
}

func TestPostForm_GroupID(t *testing.T) {
	assert.Nil(t, PostForm{}.GroupID())
	assert.Nil(t, PostForm{Group: "0"}.GroupID())
	assert.Nil(t, PostForm{Group: "x"}.GroupID())

	id := PostForm{Group: " 7 "}.GroupID()
	require.NotNil(t, id)
	assert.Equal(t, uint(7), *id)
}

func TestStruct_CommentForm(t *testing.T) {
	assert.NoError(t, Struct(CommentForm{Text: "nice"}))
	fields := fieldErrors(t, Struct(CommentForm{Text: ""}))
	assert.Contains(t, fields, "text")
}

func TestStruct_SignupForm(t *testing.T) {
	valid := SignupForm{Username: "leo", Email: "leo@example.com", Password: "Str0ng!Password"}
	assert.NoError(t, Struct(valid))

	bad := valid
	bad.Username = "_leo"
	bad.Email = "not-an-email"
	bad.Password = "weak"
	fields := fieldErrors(t, Struct(bad))
	assert.Equal(t, "username cannot start or end with underscore or hyphen", fields["username"])
	assert.Equal(t, "Enter a valid email address.", fields["email"])
	assert.Equal(t, "password must be at least 12 characters long", fields["password"])
}

func TestStruct_GroupForm(t *testing.T) {
	assert.NoError(t, Struct(GroupForm{Title: "Cats", Slug: "cats_and-dogs"}))
	fields := fieldErrors(t, Struct(GroupForm{Title: "Cats", Slug: "cats and dogs"}))
	assert.Contains(t, fields, "slug")
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"Str0ng!Password", false},
		{"short1!A", true},
		{"alllowercase1!", true},
		{"ALLUPPERCASE1!", true},
		{"NoDigitsHere!!", true},
		{"NoSpecials1234", true},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSlug(t *testing.T) {
	assert.NoError(t, ValidateSlug("test-slug_1"))
	assert.Error(t, ValidateSlug(""))
	assert.Error(t, ValidateSlug("with space"))
	assert.Error(t, ValidateSlug("кириллица"))
}
