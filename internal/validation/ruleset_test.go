package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type person struct {
	FirstName string `form:"first_name" label:"First name" validate:"notblank,personname,safecontent,max=64"`
	LastName  string `form:"last_name" label:"Last name" validate:"notblank,personname,safecontent,max=64"`
	Email     string `form:"email" label:"Email" validate:"notblank,emailformat,max=64"`
}

func validPerson() person {
	return person{FirstName: "Mary Ann", LastName: "Smith", Email: "mary@example.com"}
}

func TestNewRuleset(t *testing.T) {
	for _, rev := range []string{"basic", "Extended", " filtered "} {
		rs, err := NewRuleset(rev)
		require.NoError(t, err)
		require.NotEmpty(t, rs.Revision())
	}

	_, err := NewRuleset("v4")
	require.ErrorIs(t, err, ErrUnknownRevision)
}

func TestValidateValid(t *testing.T) {
	res := Default().Validate(validPerson())
	require.False(t, res.HasErrors(), res.All())
	require.NoError(t, res.Err())
}

func TestValidateMessages(t *testing.T) {
	tests := []struct {
		name      string
		revision  Revision
		mutate    func(p *person)
		field     string
		wantFirst string
	}{
		{
			name:      "blank first name",
			revision:  RevisionFiltered,
			mutate:    func(p *person) { p.FirstName = "" },
			field:     FieldFirstName,
			wantFirst: "First name can't be blank",
		},
		{
			name:      "whitespace last name",
			revision:  RevisionFiltered,
			mutate:    func(p *person) { p.LastName = "   " },
			field:     FieldLastName,
			wantFirst: "Last name can't be blank",
		},
		{
			name:      "digits in name under basic",
			revision:  RevisionBasic,
			mutate:    func(p *person) { p.FirstName = "R2D2" },
			field:     FieldFirstName,
			wantFirst: "First name can only contain letters and spaces",
		},
		{
			name:      "apostrophe under basic",
			revision:  RevisionBasic,
			mutate:    func(p *person) { p.LastName = "O'Brien" },
			field:     FieldLastName,
			wantFirst: "Last name can only contain letters and spaces",
		},
		{
			name:      "digits in name under extended",
			revision:  RevisionExtended,
			mutate:    func(p *person) { p.FirstName = "R2D2" },
			field:     FieldFirstName,
			wantFirst: "First name can only contain letters, spaces, hyphens, and apostrophes",
		},
		{
			name:      "keyword under filtered",
			revision:  RevisionFiltered,
			mutate:    func(p *person) { p.LastName = "Drop Table" },
			field:     FieldLastName,
			wantFirst: "Last name contains prohibited content",
		},
		{
			name:      "long name",
			revision:  RevisionFiltered,
			mutate:    func(p *person) { p.FirstName = strings.Repeat("a", 65) },
			field:     FieldFirstName,
			wantFirst: "First name is too long (maximum is 64 characters)",
		},
		{
			name:      "kelvin sign in email",
			revision:  RevisionFiltered,
			mutate:    func(p *person) { p.Email = "\u212Aate@example.com" },
			field:     FieldEmail,
			wantFirst: "Email must be a valid email address with proper domain",
		},
		{
			name:      "bad email",
			revision:  RevisionFiltered,
			mutate:    func(p *person) { p.Email = "mary@example" },
			field:     FieldEmail,
			wantFirst: "Email must be a valid email address with proper domain",
		},
		{
			name:      "long email",
			revision:  RevisionFiltered,
			mutate:    func(p *person) { p.Email = strings.Repeat("a", 60) + "@example.com" },
			field:     FieldEmail,
			wantFirst: "Email is too long (maximum is 64 characters)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPerson()
			tt.mutate(&p)

			res := MustRuleset(tt.revision).Validate(p)
			require.True(t, res.HasErrors())
			require.Equal(t, tt.wantFirst, res.First())
			require.Len(t, res.On(tt.field), 1)
		})
	}
}

func TestValidateAcceptsValuesAtTheLimit(t *testing.T) {
	p := validPerson()
	p.FirstName = strings.Repeat("a", 64)
	p.LastName = strings.Repeat("z", 64)
	p.Email = strings.Repeat("m", 52) + "@example.com"
	require.Len(t, p.Email, 64)

	res := Default().Validate(p)
	require.False(t, res.HasErrors(), res.All())
}

func TestValidateAccumulatesFields(t *testing.T) {
	res := Default().Validate(person{})
	require.Equal(t, []string{
		"First name can't be blank",
		"Last name can't be blank",
		"Email can't be blank",
	}, res.FullMessages())
}

func TestKeywordAllowedWithoutFilter(t *testing.T) {
	p := validPerson()
	p.LastName = "Drop Table"
	require.False(t, MustRuleset(RevisionExtended).Validate(p).HasErrors())
	require.True(t, MustRuleset(RevisionFiltered).Validate(p).HasErrors())
}

func TestCheckField(t *testing.T) {
	tests := []struct {
		name     string
		revision Revision
		field    string
		value    string
		want     string
	}{
		{"empty name is fine while typing", RevisionFiltered, FieldFirstName, "", ""},
		{"valid name", RevisionFiltered, FieldFirstName, "Jean-Luc", ""},
		{"padded name", RevisionFiltered, FieldLastName, " O'Brien ", ""},
		{"symbols", RevisionFiltered, FieldFirstName, "Bob<", "Name can only contain letters, spaces, hyphens, and apostrophes"},
		{"symbols under basic", RevisionBasic, FieldFirstName, "Jean-Luc", "Name can only contain letters and spaces"},
		{"prohibited", RevisionFiltered, FieldLastName, "Select Where", LiveNameProhibited},
		{"prohibited passes unfiltered", RevisionExtended, FieldLastName, "Select Where", ""},
		{"too long", RevisionFiltered, FieldFirstName, strings.Repeat("b", 65), LiveNameTooLong},
		{"valid email", RevisionFiltered, FieldEmail, "  Mary@Example.COM ", ""},
		{"email without tld", RevisionFiltered, FieldEmail, "mary@example", LiveEmailInvalid},
		{"email too long", RevisionFiltered, FieldEmail, strings.Repeat("m", 60) + "@example.com", LiveEmailInvalid},
		{"name at the limit", RevisionFiltered, FieldFirstName, strings.Repeat("b", 64), ""},
		{"email at the limit", RevisionFiltered, FieldEmail, strings.Repeat("m", 52) + "@example.com", ""},
		{"kelvin sign in email", RevisionFiltered, FieldEmail, "\u212Aate@example.com", LiveEmailInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MustRuleset(tt.revision).CheckField(tt.field, tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.field, got.Field)
			require.Equal(t, tt.want, got.Message)
			require.Equal(t, tt.want == "", got.Valid)
		})
	}
}

func TestCheckFieldUnknown(t *testing.T) {
	_, err := Default().CheckField("phone_number", "555")
	require.ErrorIs(t, err, ErrUnknownField)
}

func TestProhibitedContent(t *testing.T) {
	f, ok := Default().ProhibitedContent("Robert'); DROP TABLE students;--")
	require.True(t, ok)
	require.Equal(t, "sql", string(f.Category))

	_, ok = MustRuleset(RevisionBasic).ProhibitedContent("DROP TABLE")
	require.False(t, ok)
}
