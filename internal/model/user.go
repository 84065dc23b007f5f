package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"user-registry/internal/normalize"
	"user-registry/internal/validation"
)

// RulesetKey is the gorm session setting carrying the *validation.Ruleset
// hooks validate against. Sessions without it use validation.Default().
const RulesetKey = "user_registry:ruleset"

// ErrUserNotFound is returned when a user does not exist.
var ErrUserNotFound = errors.New("user not found")

// User is a registered person. Email is stored trimmed and lower-case.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	FirstName string    `gorm:"size:64;not null" form:"first_name" label:"First name" validate:"notblank,personname,safecontent,max=64"`
	LastName  string    `gorm:"size:64;not null" form:"last_name" label:"Last name" validate:"notblank,personname,safecontent,max=64"`
	Email     string    `gorm:"size:64;not null" form:"email" label:"Email" validate:"notblank,emailformat,max=64"`
	CreatedAt time.Time `form:"-"`
	UpdatedAt time.Time `form:"-"`
}

// Normalize trims names and canonicalizes the email address.
func (u *User) Normalize() {
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.Email = normalize.Email(u.Email)
}

// FullName returns "First Last".
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Validate runs the format rules of rs without touching the database.
func (u *User) Validate(rs *validation.Ruleset) *validation.Result {
	if rs == nil {
		rs = validation.Default()
	}
	return rs.Validate(u)
}

// BeforeSave normalizes the record, runs the active rule set and checks that
// no other row uses the same email, ignoring case. Blocks the save on failure.
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Normalize()

	res := u.Validate(rulesetFrom(tx))
	if len(res.On(validation.FieldEmail)) == 0 {
		taken, err := u.emailTaken(tx)
		if err != nil {
			return err
		}
		if taken {
			res.Add(validation.FieldEmail, "Email", validation.MsgTaken)
		}
	}
	return res.Err()
}

func (u *User) emailTaken(tx *gorm.DB) (bool, error) {
	var count int64
	q := tx.Session(&gorm.Session{NewDB: true}).
		Model(&User{}).
		Where("LOWER(email) = ?", u.Email)
	if u.ID != 0 {
		q = q.Where("id <> ?", u.ID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("check email uniqueness: %w", err)
	}
	return count > 0, nil
}

func rulesetFrom(tx *gorm.DB) *validation.Ruleset {
	if v, ok := tx.Get(RulesetKey); ok {
		if rs, ok := v.(*validation.Ruleset); ok && rs != nil {
			return rs
		}
	}
	return validation.Default()
}
