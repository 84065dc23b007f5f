package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"user-registry/internal/model"
	"user-registry/internal/normalize"
	"user-registry/internal/validation"
)

// DuplicateEmail is a group of rows sharing an address once case is ignored.
type DuplicateEmail struct {
	Email string
	Count int64
}

// UserRepository handles CRUD for users. Saves run the model hooks with the
// repository's rule set.
type UserRepository struct {
	db    *gorm.DB
	rules *validation.Ruleset
}

func NewUserRepository(db *gorm.DB, rules *validation.Ruleset) *UserRepository {
	if rules == nil {
		rules = validation.Default()
	}
	return &UserRepository{db: db, rules: rules}
}

// Rules returns the rule set hooks validate against.
func (r *UserRepository) Rules() *validation.Ruleset {
	return r.rules
}

func (r *UserRepository) session(ctx context.Context) *gorm.DB {
	return r.db.Set(model.RulesetKey, r.rules).WithContext(ctx)
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if err := r.session(ctx).Create(user).Error; err != nil {
		return translate("create user", err)
	}
	return nil
}

// Update writes every column but created_at of an existing user. A missing
// row is reported as ErrUserNotFound and never inserted.
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	if user.ID == 0 {
		return model.ErrUserNotFound
	}
	res := r.session(ctx).Model(user).Select("*").Omit("id", "created_at").Updates(user)
	if res.Error != nil {
		return translate("update user", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, model.ErrUserNotFound
	default:
		return nil, fmt.Errorf("find user: %w", err)
	}
}

// FindByEmail looks the address up ignoring case and surrounding whitespace.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", normalize.Email(email)).First(&user).Error
	switch {
	case err == nil:
		return &user, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, model.ErrUserNotFound
	default:
		return nil, fmt.Errorf("find user by email: %w", err)
	}
}

// List returns every user ordered by last name, first name, id.
func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("last_name ASC, first_name ASC, id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *UserRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.User{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// Each walks all users in id order, batchSize rows at a time.
func (r *UserRepository) Each(ctx context.Context, batchSize int, fn func([]model.User) error) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	var batch []model.User
	res := r.db.WithContext(ctx).FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		return fn(batch)
	})
	if res.Error != nil {
		return fmt.Errorf("iterate users: %w", res.Error)
	}
	return nil
}

// DuplicateEmails lists addresses used by more than one row, ignoring case.
// The unique index makes this empty unless the index was missing when rows were written.
func (r *UserRepository) DuplicateEmails(ctx context.Context) ([]DuplicateEmail, error) {
	var out []DuplicateEmail
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Select("LOWER(email) AS email, COUNT(*) AS count").
		Group("LOWER(email)").
		Having("COUNT(*) > 1").
		Order("email ASC").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("find duplicate emails: %w", err)
	}
	return out, nil
}

// translate keeps validation results intact and turns unique-index
// violations into the same message the hook reports.
func translate(op string, err error) error {
	var res *validation.Result
	if errors.As(err, &res) {
		return res
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		taken := &validation.Result{}
		taken.Add(validation.FieldEmail, "Email", validation.MsgTaken)
		return taken
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "unique constraint failed") ||
		strings.Contains(s, "duplicate key value")
}
