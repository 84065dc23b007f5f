package service

import (
	"context"

	"user-registry/internal/model"
	"user-registry/internal/repository"
	"user-registry/internal/validation"
)

// UserInput is the editable part of a user as submitted by a form.
// Legacy form fields (phone number, position) have no place here and are dropped.
type UserInput struct {
	FirstName string
	LastName  string
	Email     string
}

func (in UserInput) applyTo(u *model.User) {
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Email = in.Email
}

// UserService wraps user-related business logic.
type UserService struct {
	repo *repository.UserRepository
}

func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Create saves a new user. Validation failures come back as *validation.Result.
func (s *UserService) Create(ctx context.Context, input UserInput) (*model.User, error) {
	var user model.User
	input.applyTo(&user)
	if err := s.repo.Create(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update replaces the editable fields of user id.
func (s *UserService) Update(ctx context.Context, id uint, input UserInput) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	input.applyTo(user)
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.repo.List(ctx)
}

func (s *UserService) Delete(ctx context.Context, id uint) error {
	return s.repo.Delete(ctx, id)
}

// CheckField runs the live check the browser form uses for one input.
func (s *UserService) CheckField(field, value string) (validation.FieldCheck, error) {
	return s.repo.Rules().CheckField(field, value)
}

// Revision reports the rule set revision in force.
func (s *UserService) Revision() validation.Revision {
	return s.repo.Rules().Revision()
}
