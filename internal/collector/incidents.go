package collector

import (
	"encoding/json"
	"fmt"
	"strings"
)

const insertIncidentFormat = "INSERT INTO INCIDENT (description, actions_taken, rca, resolution, status) VALUES ('%s', '%s', '%s', '%s', 'CLOSED');"

// IncidentSeed renders one INSERT per record, joined by newlines. Single
// quotes are doubled in every field; double quotes are removed from the
// joined actions.
func IncidentSeed(payloads []json.RawMessage) (string, error) {
	stmts, err := incidentStatements(payloads)
	if err != nil {
		return "", err
	}
	return strings.Join(stmts, "\n"), nil
}

func incidentStatements(payloads []json.RawMessage) ([]string, error) {
	lists, err := decodePayloads(payloads)
	if err != nil {
		return nil, err
	}
	var stmts []string
	for _, list := range lists {
		for _, rec := range list.Datasets {
			actions := strings.ReplaceAll(quote(strings.Join(rec.ActionsTaken, "\n")), `"`, "")
			stmts = append(stmts, fmt.Sprintf(insertIncidentFormat,
				quote(rec.IssueDescription), actions, quote(rec.RCA), quote(rec.Resolution)))
		}
	}
	return stmts, nil
}

func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
