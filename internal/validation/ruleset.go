// Package validation holds the rules user records must satisfy before they
// are saved, and the real-time field checks the browser form relies on.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"user-registry/internal/normalize"
	"user-registry/internal/validation/contentfilter"
)

// Revision names a rule set for person-name fields.
type Revision string

const (
	// RevisionBasic allows letters and spaces only.
	RevisionBasic Revision = "basic"
	// RevisionExtended also allows hyphens and apostrophes.
	RevisionExtended Revision = "extended"
	// RevisionFiltered is RevisionExtended plus the denylist content filter.
	RevisionFiltered Revision = "filtered"
)

// MaxLength bounds names and email addresses, in characters.
const MaxLength = 64

// Server-side messages, shown after the field label.
const (
	MsgBlank      = "can't be blank"
	MsgProhibited = "contains prohibited content"
	MsgEmail      = "must be a valid email address with proper domain"
	MsgTaken      = "has already been taken"
	MsgInvalid    = "is invalid"

	msgBasicName    = "can only contain letters and spaces"
	msgExtendedName = "can only contain letters, spaces, hyphens, and apostrophes"
)

// Browser-side messages, shown verbatim next to the input.
const (
	LiveNameProhibited = "Name contains prohibited content"
	LiveNameTooLong    = "Name must be 64 characters or less"
	LiveEmailInvalid   = "Please enter a valid email address with proper domain (max 64 characters)"
	LiveRequired       = "This field is required"
)

// Field keys shared by forms, columns and live checks.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
)

var (
	basicName    = regexp.MustCompile(`^[a-zA-Z\s]+$`)
	extendedName = regexp.MustCompile(`^[a-zA-Z\s\-']+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

// ErrUnknownRevision is returned for a revision name NewRuleset does not know.
var ErrUnknownRevision = errors.New("unknown validation revision")

// ErrUnknownField is returned by CheckField for fields without a live rule.
var ErrUnknownField = errors.New("unknown field")

// Ruleset binds the custom validator tags to one revision.
// It is safe for concurrent use.
type Ruleset struct {
	revision    Revision
	namePattern *regexp.Regexp
	nameMessage string
	filter      *contentfilter.Filter
	validate    *validator.Validate
}

// NewRuleset builds the rule set for revision.
func NewRuleset(revision string) (*Ruleset, error) {
	rs := &Ruleset{revision: Revision(normalize.Revision(revision))}

	switch rs.revision {
	case RevisionBasic:
		rs.namePattern, rs.nameMessage = basicName, msgBasicName
	case RevisionExtended:
		rs.namePattern, rs.nameMessage = extendedName, msgExtendedName
	case RevisionFiltered:
		rs.namePattern, rs.nameMessage = extendedName, msgExtendedName
		rs.filter = contentfilter.New()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRevision, revision)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})

	custom := map[string]validator.Func{
		"notblank":    notBlank,
		"personname":  rs.personName,
		"safecontent": rs.safeContent,
		"emailformat": emailFormat,
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return nil, fmt.Errorf("register %s: %w", tag, err)
		}
	}
	rs.validate = v

	return rs, nil
}

// MustRuleset is NewRuleset for package-level defaults; it panics on error.
func MustRuleset(revision Revision) *Ruleset {
	rs, err := NewRuleset(string(revision))
	if err != nil {
		panic(err)
	}
	return rs
}

var defaultRuleset = MustRuleset(RevisionFiltered)

// Default returns the filtered rule set.
func Default() *Ruleset { return defaultRuleset }

// Revision reports which revision the rule set enforces.
func (rs *Ruleset) Revision() Revision { return rs.revision }

// Filtering reports whether the content filter is active.
func (rs *Ruleset) Filtering() bool { return rs.filter != nil }

// Validate checks the `validate` tags of v. Field keys come from the `form`
// tag and labels from the `label` tag. Each field reports its first failure.
func (rs *Ruleset) Validate(v any) *Result {
	res := &Result{}
	err := rs.validate.Struct(v)
	if err == nil {
		return res
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.Add("", "", err.Error())
		return res
	}

	t := reflect.Indirect(reflect.ValueOf(v)).Type()
	for _, fe := range verrs {
		res.Add(fe.Field(), labelFor(t, fe.StructField()), rs.message(fe))
	}
	return res
}

func (rs *Ruleset) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank", "required":
		return MsgBlank
	case "max":
		return fmt.Sprintf("is too long (maximum is %s characters)", fe.Param())
	case "personname":
		return rs.nameMessage
	case "safecontent":
		return MsgProhibited
	case "emailformat":
		return MsgEmail
	default:
		return MsgInvalid
	}
}

func labelFor(t reflect.Type, structField string) string {
	if t.Kind() != reflect.Struct {
		return ""
	}
	if f, ok := t.FieldByName(structField); ok {
		return f.Tag.Get("label")
	}
	return ""
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func (rs *Ruleset) personName(fl validator.FieldLevel) bool {
	return rs.namePattern.MatchString(fl.Field().String())
}

func (rs *Ruleset) safeContent(fl validator.FieldLevel) bool {
	if rs.filter == nil {
		return true
	}
	return !rs.filter.Contains(fl.Field().String())
}

func emailFormat(fl validator.FieldLevel) bool {
	return emailPattern.MatchString(fl.Field().String())
}

// FieldCheck is the outcome of a live check of one input.
type FieldCheck struct {
	Field   string `json:"field"`
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// CheckField validates a single value the way the browser form does while the
// user types: blank values pass (presence is enforced on submit), and the value
// is normalized first so live feedback agrees with what the server will store.
func (rs *Ruleset) CheckField(field, value string) (FieldCheck, error) {
	check := FieldCheck{Field: field, Valid: true}

	switch field {
	case FieldFirstName, FieldLastName:
		value = normalize.Name(value)
		if value == "" {
			return check, nil
		}
		switch {
		case !rs.namePattern.MatchString(value):
			check.Message = "Name " + rs.nameMessage
		case rs.filter != nil && rs.filter.Contains(value):
			check.Message = LiveNameProhibited
		case utf8.RuneCountInString(value) > MaxLength:
			check.Message = LiveNameTooLong
		}
	case FieldEmail:
		value = normalize.Email(value)
		if value == "" {
			return check, nil
		}
		if !emailPattern.MatchString(value) || utf8.RuneCountInString(value) > MaxLength {
			check.Message = LiveEmailInvalid
		}
	default:
		return FieldCheck{}, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	check.Valid = check.Message == ""
	return check, nil
}

// ProhibitedContent reports the content-filter finding for value, if the
// revision filters at all.
func (rs *Ruleset) ProhibitedContent(value string) (contentfilter.Finding, bool) {
	if rs.filter == nil {
		return contentfilter.Finding{}, false
	}
	return rs.filter.Match(value)
}
