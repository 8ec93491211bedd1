package messages

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/flagbot/internal/domain/issuance"
)

func intPtr(v int) *int { return &v }

func TestCatalog_LocaleSelection(t *testing.T) {
	c, err := Load("fr")
	require.NoError(t, err)

	require.Equal(t, "fr", c.Tag("").String())
	require.Equal(t, "fr", c.Tag("fr").String())
	require.Equal(t, "en", c.Tag("en-US").String())
	require.Equal(t, "en", c.Tag("en-GB").String())
	require.Equal(t, "fr", c.Tag("not a locale").String())

	require.Equal(t, "Enregistrement CTF", c.Text("", KeyModalTitle))
	require.Equal(t, "CTF registration", c.Text("en-US", KeyModalTitle))
}

func TestCatalog_DefaultLocaleOverride(t *testing.T) {
	c, err := Load("en")
	require.NoError(t, err)
	require.Equal(t, "Get my Flag", c.Text("", KeyButtonLabel))
	require.Equal(t, "Récupérer mon Flag", c.Text("fr", KeyButtonLabel))
}

func TestCatalog_Outcomes(t *testing.T) {
	c, err := Load("fr")
	require.NoError(t, err)

	credited := c.Outcome("fr", &issuance.Outcome{
		Status:      issuance.StatusCredited,
		DisplayName: "Neo",
		Flag:        "ISEN{neo_fast}",
		Points:      intPtr(50),
		Score:       intPtr(50),
		TotalFlags:  intPtr(1),
	})
	require.Contains(t, credited, "Bravo **Neo**")
	require.Contains(t, credited, "`ISEN{neo_fast}`")
	require.Contains(t, credited, "+50 points")
	require.Contains(t, credited, "Flags trouvés : **1**")

	unknownPoints := c.Outcome("en", &issuance.Outcome{Status: issuance.StatusCredited, DisplayName: "Neo", Flag: "F"})
	require.Contains(t, unknownPoints, "+? points")

	already := c.Outcome("fr", &issuance.Outcome{Status: issuance.StatusAlreadySolved, DisplayName: "Neo", Flag: "F"})
	require.Contains(t, already, "déjà résolu")
	require.Contains(t, already, "`F`")

	notValidated := c.Outcome("fr", &issuance.Outcome{Status: issuance.StatusNotValidated, DisplayName: "Neo", Flag: "F"})
	require.Contains(t, notValidated, "pas été validé")

	unreachable := c.Outcome("fr", &issuance.Outcome{Status: issuance.StatusUnreachable, DisplayName: "Neo", Flag: "F"})
	require.Contains(t, unreachable, "Impossible de contacter la plateforme CTF")
	require.Contains(t, unreachable, "`F`")

	rejected := c.Outcome("en", &issuance.Outcome{Status: issuance.StatusRejected, DisplayName: "Ghost"})
	require.Contains(t, rejected, "No player **Ghost**")
}

func TestLoadFromFS_RequiresDefaultLocale(t *testing.T) {
	fsys := fstest.MapFS{
		"locales/en.yaml": {Data: []byte("locale: en\nmessages:\n  modal.title: Hi\n")},
	}
	_, err := LoadFromFS(fsys, "fr")
	require.Error(t, err)

	c, err := LoadFromFS(fsys, "en")
	require.NoError(t, err)
	require.Equal(t, "Hi", c.Text("fr", KeyModalTitle))
}
