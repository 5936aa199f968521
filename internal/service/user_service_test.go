package service

import (
	"context"
	"strings"
	"testing"

	"feedhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_GetUser(t *testing.T) {
	t.Parallel()

	repo := noopUserRepo()
	repo.findByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		if id == 1 {
			return &models.User{ID: 1, Name: "alice"}, nil
		}
		return nil, nil
	}
	svc := NewUserService(repo)

	user, err := svc.GetUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Name)

	_, err = svc.GetUser(context.Background(), 2)
	assertCode(t, err, models.CodeUserNotFound)

	_, err = svc.GetUser(context.Background(), 0)
	assertCode(t, err, models.CodeKeyError)
}

func TestUserService_UpdateMe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        UpdateUserInput
		wantName  string
		wantImage string
		wantCode  string
	}{
		{name: "rename", in: UpdateUserInput{UserID: 1, Name: "  Bob "}, wantName: "Bob", wantImage: "https://old.example/a.png"},
		{name: "new image", in: UpdateUserInput{UserID: 1, ProfileImage: "https://cdn.example/b.png"}, wantName: "alice", wantImage: "https://cdn.example/b.png"},
		{name: "name too long", in: UpdateUserInput{UserID: 1, Name: strings.Repeat("n", 61)}, wantCode: models.CodeValidationError},
		{name: "relative image", in: UpdateUserInput{UserID: 1, ProfileImage: "/me.png"}, wantCode: models.CodeValidationError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := noopUserRepo()
			repo.findByIDFn = func(_ context.Context, id uint) (*models.User, error) {
				return &models.User{ID: id, Name: "alice", ProfileImage: "https://old.example/a.png"}, nil
			}
			updated := false
			repo.updateFn = func(context.Context, *models.User) error {
				updated = true
				return nil
			}

			user, err := NewUserService(repo).UpdateMe(context.Background(), tt.in)
			if tt.wantCode != "" {
				assertCode(t, err, tt.wantCode)
				assert.False(t, updated)
				return
			}
			require.NoError(t, err)
			assert.True(t, updated)
			assert.Equal(t, tt.wantName, user.Name)
			assert.Equal(t, tt.wantImage, user.ProfileImage)
		})
	}
}
