package csvutil

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"

	"civiroster/lib/roster"
)

func TestWrite(t *testing.T) {
	recs := []roster.Record{
		{
			Organization:  "Ville de Laval",
			Party:         "Mouvement lavallois",
			District:      "Chomedey",
			Name:          "Aline Dib",
			PrimaryRoleEN: "Councillor",
			PrimaryRoleFR: "Conseillère",
			SecondaryRoles: roster.SecondaryRoles{
				Current: []string{"Comité exécutif"},
			},
			Email:     "a.dib@laval.ca",
			SourceURL: "https://www.laval.ca/membre/aline-dib",
		},
		{
			Organization:  "Ville de Laval",
			Name:          "Stéphane Boyer",
			PrimaryRoleFR: "Maire",
			SourceURL:     "https://www.laval.ca/membre/stephane-boyer",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, recs))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, Header, rows[0])
	require.Equal(t, "Aline Dib", rows[1][3])
	require.Equal(t, `{"current":["Comité exécutif"]}`, rows[1][6])
	// the zero value still serializes as an explicit empty list
	require.Equal(t, `{"current":[]}`, rows[2][6])
}

func TestWriteEmptyStillEmitsHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, Header, rows[0])
}
