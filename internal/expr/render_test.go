package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderBoolStr(t *testing.T, src string) string {
	t.Helper()

	g, user := exprGraph()

	code, err := RenderBool(MustParse(src), "src", user, g)
	require.NoError(t, err)

	return code
}

func TestRenderBool_BarePaths(t *testing.T) {
	assert.Equal(t, "src.IsActive", renderBoolStr(t, "IsActive"))

	// A bare nullable bool reads as false when nil.
	assert.Equal(t, "src.Flag != nil && *src.Flag", renderBoolStr(t, "Flag"))
}

func TestRenderBool_Comparisons(t *testing.T) {
	assert.Equal(t, "src.Age > 18", renderBoolStr(t, "Age > 18"))
	assert.Equal(t, "src.Age >= 18 && src.Age <= 65", renderBoolStr(t, "Age >= 18 && Age <= 65"))

	// Intermediate nullable links guard the comparison.
	assert.Equal(t,
		"src.Profile != nil && src.Profile.Rank > 1",
		renderBoolStr(t, "Profile.Rank > 1"))

	// A nullable leaf is dereferenced under its own nil check.
	assert.Equal(t,
		`src.Nick != nil && *src.Nick == "x"`,
		renderBoolStr(t, `Nick == "x"`))

	// Inequality holds when the value is missing.
	assert.Equal(t,
		`(src.Nick == nil || *src.Nick != "x")`,
		renderBoolStr(t, `Nick != "x"`))
}

func TestRenderBool_BothSidesNullable(t *testing.T) {
	code := renderBoolStr(t, "Nick == Profile.Zip")
	assert.Equal(t,
		"((src.Nick == nil && (src.Profile == nil || src.Profile.Zip == nil)) || "+
			"(src.Nick != nil && src.Profile != nil && src.Profile.Zip != nil && *src.Nick == *src.Profile.Zip))",
		code)

	neq := renderBoolStr(t, "Nick != Profile.Zip")
	assert.Equal(t, "!"+code, neq)
}

func TestRenderBool_NullChecks(t *testing.T) {
	assert.Equal(t, "src.Nick == nil", renderBoolStr(t, "Nick == null"))
	assert.Equal(t, "src.Nick != nil", renderBoolStr(t, "Nick != null"))

	// Any nil link on the way makes the chain null.
	assert.Equal(t,
		"(src.Profile == nil || src.Profile.Zip == nil)",
		renderBoolStr(t, "Profile.Zip == null"))
	assert.Equal(t,
		"src.Profile != nil && src.Profile.Zip != nil",
		renderBoolStr(t, "Profile.Zip != null"))

	// Order of operands does not matter.
	assert.Equal(t, "src.Nick == nil", renderBoolStr(t, "null == Nick"))
}

func TestRenderBool_Logic(t *testing.T) {
	assert.Equal(t, "!src.IsActive", renderBoolStr(t, "!IsActive"))
	assert.Equal(t, "!(src.Age > 18)", renderBoolStr(t, "!(Age > 18)"))
	assert.Equal(t,
		"src.Age > 18 && src.IsActive || src.Flag != nil && *src.Flag",
		renderBoolStr(t, "Age > 18 && IsActive || Flag"))
	assert.Equal(t,
		"src.IsActive && (src.Flag != nil && *src.Flag || src.Age > 90)",
		renderBoolStr(t, "IsActive && (Flag || Age > 90)"))
}

func TestRenderBool_Errors(t *testing.T) {
	g, user := exprGraph()

	_, err := RenderBool(MustParse("Age + 1"), "src", user, g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not boolean")

	_, err = RenderBool(MustParse("Missing"), "src", user, g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown field "Missing"`)

	_, err = RenderBool(MustParse("Age < null"), "src", user, g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot compare against null")

	_, err = RenderBool(MustParse(`"x" == null`), "src", user, g)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null comparison requires a field operand")
}

func renderValueStr(t *testing.T, src string) (string, []string) {
	t.Helper()

	g, user := exprGraph()

	code, guards, err := RenderValue(MustParse(src), "src", user, g)
	require.NoError(t, err)

	return code, guards
}

func TestRenderValue_Scalars(t *testing.T) {
	code, guards := renderValueStr(t, "Email")
	assert.Equal(t, "src.Email", code)
	assert.Empty(t, guards)

	code, guards = renderValueStr(t, "Age + 1")
	assert.Equal(t, "src.Age + 1", code)
	assert.Empty(t, guards)

	code, _ = renderValueStr(t, `Name + " " + Email`)
	assert.Equal(t, `src.Name + " " + src.Email`, code)

	code, _ = renderValueStr(t, "-Age")
	assert.Equal(t, "-src.Age", code)
}

func TestRenderValue_GuardsFromNullableLinks(t *testing.T) {
	code, guards := renderValueStr(t, "Profile.City")
	assert.Equal(t, "src.Profile.City", code)
	assert.Equal(t, []string{"src.Profile != nil"}, guards)

	// The nullable leaf itself stays a pointer and needs no guard.
	code, guards = renderValueStr(t, "Profile.Zip")
	assert.Equal(t, "src.Profile.Zip", code)
	assert.Equal(t, []string{"src.Profile != nil"}, guards)

	// Duplicate guards from repeated links collapse.
	code, guards = renderValueStr(t, "Profile.City + Profile.City")
	assert.Equal(t, "src.Profile.City + src.Profile.City", code)
	assert.Equal(t, []string{"src.Profile != nil"}, guards)
}

func TestRenderValue_Parens(t *testing.T) {
	code, _ := renderValueStr(t, "(Age + 1) * 2")
	assert.Equal(t, "(src.Age + 1) * 2", code)

	code, _ = renderValueStr(t, "Age - (Age - 1)")
	assert.Equal(t, "src.Age - (src.Age - 1)", code)
}

func TestRenderValue_BooleanShaped(t *testing.T) {
	// Boolean expressions render self-contained with their guards inside.
	code, guards := renderValueStr(t, "Profile.Rank > 1")
	assert.Equal(t, "src.Profile != nil && src.Profile.Rank > 1", code)
	assert.Empty(t, guards)

	code, guards = renderValueStr(t, "!IsActive")
	assert.Equal(t, "!src.IsActive", code)
	assert.Empty(t, guards)
}
